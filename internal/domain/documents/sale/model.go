// Package sale records sales and their tax invoices.
package sale

import (
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/documents"
)

// Tax codes applied to a sale, in print order.
const (
	TaxSales         = "sales_tax"
	TaxSpecialExcise = "special_excise"
	TaxFurtherSales  = "further_sales_tax"
)

// Sale is a stock-moving transaction. Its printable side is the Invoice.
type Sale struct {
	entity.BaseEntity

	InvoiceID  id.ID  `db:"invoice_id" json:"invoiceId"`
	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	HSCode     string `db:"hs_code" json:"hsCode"`
	AttnTo     string `db:"attn_to" json:"attnTo"`

	Subtotal            types.Money `db:"subtotal" json:"subtotal"`
	Discount            types.Money `db:"discount" json:"discount"`
	TaxableValue        types.Money `db:"taxable_value" json:"taxableValue"`
	SalesTaxRate        types.Rate  `db:"sales_tax_rate" json:"salesTaxRate"`
	SalesTax            types.Money `db:"sales_tax" json:"salesTax"`
	SpecialExciseRate   types.Rate  `db:"special_excise_rate" json:"specialExciseRate"`
	SpecialExcise       types.Money `db:"special_excise" json:"specialExcise"`
	FurtherSalesTaxRate types.Rate  `db:"further_sales_tax_rate" json:"furtherSalesTaxRate"`
	FurtherSalesTax     types.Money `db:"further_sales_tax" json:"furtherSalesTax"`
	Freight             types.Money `db:"freight" json:"freight"`
	GrandTotal          types.Money `db:"grand_total" json:"grandTotal"`
	AmountInWords       string      `db:"amount_in_words" json:"amountInWords"`

	// SourceKind and SourceID name the quotation or delivery challan the lines were copied from.
	SourceKind *string `db:"source_kind" json:"sourceKind,omitempty"`
	SourceID   *id.ID  `db:"source_id" json:"sourceId,omitempty"`

	// Read-side joins
	InvoiceNumber string               `db:"invoice_number" json:"invoiceNumber"`
	PDFURL        string               `db:"pdf_url" json:"pdfUrl"`
	CustomerName  string               `db:"customer_name" json:"customerName"`
	Lines         []documents.LineItem `db:"-" json:"lines,omitempty"`
}

// Invoice is the numbered, rendered document of a sale.
type Invoice struct {
	entity.Document

	SaleID            id.ID  `db:"sale_id" json:"saleId"`
	QuotationID       *id.ID `db:"quotation_id" json:"quotationId,omitempty"`
	DeliveryChallanID *id.ID `db:"delivery_challan_id" json:"deliveryChallanId,omitempty"`
}

// CreateInput is a new sale as submitted by the client.
type CreateInput struct {
	Customer customer.Fields
	HSCode   string
	AttnTo   string

	// Lines are used unless Source is set.
	Lines  []documents.LineInput
	Source *documents.CopiedFrom

	SalesTaxRate        types.Rate
	SpecialExciseRate   types.Rate
	FurtherSalesTaxRate types.Rate
	Discount            types.Money
	Freight             types.Money
}

// Validate checks the sale-only required fields.
func (in CreateInput) Validate() error {
	required := []struct {
		field, value string
	}{
		{"hsCode", in.HSCode},
		{"attnTo", in.AttnTo},
		{"customerGST", in.Customer.GSTNo},
		{"customerNTN", in.Customer.NTNNo},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperror.NewValidation("all fields are required").WithDetail("field", r.field)
		}
	}
	if in.Source != nil && in.Source.Kind != documents.KindQuotation && in.Source.Kind != documents.KindDeliveryChallan {
		return apperror.NewValidation("a sale can only be produced from a quotation or delivery challan").
			WithDetail("field", "source")
	}
	return nil
}

// charges maps the sale's rates onto workflow charges.
func (in CreateInput) charges() documents.Charges {
	return documents.Charges{
		Discount: in.Discount,
		Freight:  in.Freight,
		Taxes: []documents.TaxRate{
			{Code: TaxSales, Label: "Sales Tax", Rate: in.SalesTaxRate},
			{Code: TaxSpecialExcise, Label: "Special Excise", Rate: in.SpecialExciseRate},
			{Code: TaxFurtherSales, Label: "Further Sales Tax", Rate: in.FurtherSalesTaxRate},
		},
	}
}

func (in CreateInput) lineSource() documents.LineItemSource {
	if in.Source != nil {
		return *in.Source
	}
	return documents.Fresh{Lines: in.Lines}
}

// ExportFilter bounds the sales exported to a spreadsheet.
type ExportFilter struct {
	OwnerID id.ID
	From    *time.Time
	To      *time.Time
}
