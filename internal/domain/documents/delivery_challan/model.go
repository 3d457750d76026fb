// Package delivery_challan records delivery challans, either fresh or produced from a quotation.
package delivery_challan

import (
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/documents"
)

// DeliveryChallan accompanies goods delivered against a purchase order.
// It carries quantities only and does not move stock.
type DeliveryChallan struct {
	entity.Document

	CustomerID    id.ID     `db:"customer_id" json:"customerId"`
	PONo          string    `db:"po_no" json:"poNo"`
	PODate        time.Time `db:"po_date" json:"poDate"`
	TotalQuantity int64     `db:"total_quantity" json:"totalQuantity"`

	QuotationID   *id.ID `db:"quotation_id" json:"quotationId,omitempty"`
	SaleInvoiceID *id.ID `db:"sale_invoice_id" json:"saleInvoiceId,omitempty"`

	CustomerName string               `db:"customer_name" json:"customerName"`
	Lines        []documents.LineItem `db:"-" json:"lines,omitempty"`
}

// PurchaseOrder is the customer's order reference.
type PurchaseOrder struct {
	Number string
	Date   time.Time
}

// Validate requires both the number and the date.
func (po PurchaseOrder) Validate() error {
	if strings.TrimSpace(po.Number) == "" {
		return apperror.NewValidation("all fields are required").WithDetail("field", "poNo")
	}
	if po.Date.IsZero() {
		return apperror.NewValidation("all fields are required").WithDetail("field", "poDate")
	}
	return nil
}

// CreateInput is a delivery challan with fresh lines.
type CreateInput struct {
	Customer customer.Fields
	Lines    []documents.LineInput
	PO       PurchaseOrder
}

// FromQuotationInput is a delivery challan whose lines are copied from a quotation.
type FromQuotationInput struct {
	QuotationID id.ID
	Customer    customer.Fields
	PO          PurchaseOrder
}
