// Package reports builds owner-scoped reports over recorded documents.
package reports

import (
	"time"

	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
)

// SalesRegisterFilter bounds the register by creation date. Nil bounds are open.
type SalesRegisterFilter struct {
	From *time.Time
	To   *time.Time
}

// SalesRegisterRow is one sale of the register.
type SalesRegisterRow struct {
	SaleID          id.ID       `json:"saleId"`
	Date            time.Time   `json:"date"`
	InvoiceNumber   string      `json:"invoiceNumber"`
	CustomerName    string      `json:"customerName"`
	HSCode          string      `json:"hsCode"`
	TaxableValue    types.Money `json:"taxableValue"`
	SalesTax        types.Money `json:"salesTax"`
	SpecialExcise   types.Money `json:"specialExcise"`
	FurtherSalesTax types.Money `json:"furtherSalesTax"`
	Freight         types.Money `json:"freight"`
	GrandTotal      types.Money `json:"grandTotal"`
}

// SalesRegisterTotals sums the register columns.
type SalesRegisterTotals struct {
	Count           int         `json:"count"`
	TaxableValue    types.Money `json:"taxableValue"`
	SalesTax        types.Money `json:"salesTax"`
	SpecialExcise   types.Money `json:"specialExcise"`
	FurtherSalesTax types.Money `json:"furtherSalesTax"`
	Freight         types.Money `json:"freight"`
	GrandTotal      types.Money `json:"grandTotal"`
}

// SalesRegister lists sales oldest first with column totals.
type SalesRegister struct {
	From        *time.Time          `json:"from,omitempty"`
	To          *time.Time          `json:"to,omitempty"`
	Rows        []SalesRegisterRow  `json:"rows"`
	Totals      SalesRegisterTotals `json:"totals"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

func (t *SalesRegisterTotals) add(r SalesRegisterRow) {
	t.Count++
	t.TaxableValue = t.TaxableValue.Add(r.TaxableValue)
	t.SalesTax = t.SalesTax.Add(r.SalesTax)
	t.SpecialExcise = t.SpecialExcise.Add(r.SpecialExcise)
	t.FurtherSalesTax = t.FurtherSalesTax.Add(r.FurtherSalesTax)
	t.Freight = t.Freight.Add(r.Freight)
	t.GrandTotal = t.GrandTotal.Add(r.GrandTotal)
}
