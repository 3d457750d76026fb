// Package quotation records price quotations.
package quotation

import (
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/documents"
)

// TaxSales is the only tax a quotation carries.
const TaxSales = "sales_tax"

// Quotation is a priced offer. It does not move stock.
type Quotation struct {
	entity.Document

	CustomerID   id.ID       `db:"customer_id" json:"customerId"`
	ValidUntil   *time.Time  `db:"valid_until" json:"validUntil,omitempty"`
	Subtotal     types.Money `db:"subtotal" json:"subtotal"`
	Discount     types.Money `db:"discount" json:"discount"`
	TaxableValue types.Money `db:"taxable_value" json:"taxableValue"`
	SalesTaxRate types.Rate  `db:"sales_tax_rate" json:"salesTaxRate"`
	SalesTax     types.Money `db:"sales_tax" json:"salesTax"`
	GrandTotal   types.Money `db:"grand_total" json:"grandTotal"`

	// Set when a delivery challan or sale was produced from this quotation.
	DeliveryChallanID *id.ID `db:"delivery_challan_id" json:"deliveryChallanId,omitempty"`
	SaleInvoiceID     *id.ID `db:"sale_invoice_id" json:"saleInvoiceId,omitempty"`

	CustomerName string               `db:"customer_name" json:"customerName"`
	Lines        []documents.LineItem `db:"-" json:"lines,omitempty"`
}

// CreateInput is a new quotation as submitted by the client.
type CreateInput struct {
	Customer     customer.Fields
	Lines        []documents.LineInput
	ValidUntil   *time.Time
	SalesTaxRate types.Rate
	Discount     types.Money
}

// Validate checks the quotation-only fields.
func (in CreateInput) Validate(now time.Time) error {
	if in.ValidUntil != nil && in.ValidUntil.Before(now.Truncate(24*time.Hour)) {
		return apperror.NewValidation("valid until must not be in the past").WithDetail("field", "validUntil")
	}
	return nil
}

func (in CreateInput) charges() documents.Charges {
	return documents.Charges{
		Discount: in.Discount,
		Freight:  types.Zero(),
		Taxes:    []documents.TaxRate{{Code: TaxSales, Label: "Sales Tax", Rate: in.SalesTaxRate}},
	}
}
