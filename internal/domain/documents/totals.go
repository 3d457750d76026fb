package documents

import (
	"invoicer/internal/core/apperror"
	"invoicer/internal/core/types"
)

// TaxRate is one configured tax category applied to the taxable value.
type TaxRate struct {
	Code  string
	Label string
	Rate  types.Rate
}

// Charges are the document-level adjustments on top of the lines.
type Charges struct {
	Discount types.Money
	Freight  types.Money
	Taxes    []TaxRate
}

// Validate rejects negative amounts and rates, and values the sale columns
// cannot store exactly: amounts beyond cents, rates beyond four places or 1000%.
func (c Charges) Validate() error {
	if c.Discount.IsNegative() || !types.ValidMoney(c.Discount) {
		return apperror.NewValidation("discount must be a non-negative amount with at most 2 decimals").WithDetail("field", "discount")
	}
	if c.Freight.IsNegative() || !types.ValidMoney(c.Freight) {
		return apperror.NewValidation("freight must be a non-negative amount with at most 2 decimals").WithDetail("field", "freight")
	}
	for _, t := range c.Taxes {
		if t.Rate.IsNegative() {
			return apperror.NewValidation("tax rates cannot be negative").WithDetail("field", t.Code)
		}
		if !types.ValidRate(t.Rate) {
			return apperror.NewValidation("tax rates must be below 1000 with at most 4 decimals").WithDetail("field", t.Code)
		}
	}
	return nil
}

// TaxLine is a computed tax amount.
type TaxLine struct {
	Code   string      `json:"code"`
	Label  string      `json:"label"`
	Rate   types.Rate  `json:"rate"`
	Amount types.Money `json:"amount"`
}

// Totals are the computed document amounts, unrounded.
type Totals struct {
	Subtotal      types.Money `json:"subtotal"`
	Discount      types.Money `json:"discount"`
	Taxable       types.Money `json:"taxableValue"`
	Taxes         []TaxLine   `json:"taxes"`
	TaxTotal      types.Money `json:"taxTotal"`
	Freight       types.Money `json:"freight"`
	GrandTotal    types.Money `json:"grandTotal"`
	TotalQuantity int64       `json:"totalQuantity"`
}

// Stored rounds every amount to the stored scale, once, half away from zero.
// Records persist these values; the exact ones stay on the draft.
func (t Totals) Stored() Totals {
	r := func(m types.Money) types.Money { return m.Round(types.MoneyPlaces) }
	out := t
	out.Subtotal, out.Discount, out.Taxable = r(t.Subtotal), r(t.Discount), r(t.Taxable)
	out.TaxTotal, out.Freight, out.GrandTotal = r(t.TaxTotal), r(t.Freight), r(t.GrandTotal)
	out.Taxes = make([]TaxLine, len(t.Taxes))
	for i, tl := range t.Taxes {
		tl.Amount = r(tl.Amount)
		out.Taxes[i] = tl
	}
	return out
}

// Tax returns the computed line for code, zero when absent.
func (t Totals) Tax(code string) TaxLine {
	for _, tl := range t.Taxes {
		if tl.Code == code {
			return tl
		}
	}
	return TaxLine{Code: code, Rate: types.Zero(), Amount: types.Zero()}
}

// ComputeTotals prices lines and applies charges:
//
//	subtotal = Σ price×qty
//	taxable  = max(subtotal − discount, 0)
//	tax_i    = rate_i% × taxable
//	total    = taxable + Σ tax_i + freight
//
// Line amounts are filled in place.
func ComputeTotals(lines []LineItem, c Charges) Totals {
	t := Totals{
		Subtotal: types.Zero(),
		Discount: c.Discount,
		TaxTotal: types.Zero(),
		Freight:  c.Freight,
	}

	for i := range lines {
		lines[i].Amount = lines[i].UnitPrice.Mul(types.NewMoneyFromInt(lines[i].Quantity))
		t.Subtotal = t.Subtotal.Add(lines[i].Amount)
		t.TotalQuantity += lines[i].Quantity
	}

	t.Taxable = types.FloorZero(t.Subtotal.Sub(c.Discount))

	t.Taxes = make([]TaxLine, 0, len(c.Taxes))
	for _, rate := range c.Taxes {
		amount := types.PercentOf(t.Taxable, rate.Rate)
		t.Taxes = append(t.Taxes, TaxLine{Code: rate.Code, Label: rate.Label, Rate: rate.Rate, Amount: amount})
		t.TaxTotal = t.TaxTotal.Add(amount)
	}

	t.GrandTotal = t.Taxable.Add(t.TaxTotal).Add(c.Freight)
	return t
}
