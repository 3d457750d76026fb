package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/types"
)

func line(qty int64, price string) LineItem {
	return LineItem{Quantity: qty, UnitPrice: types.MustMoney(price)}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		lines    []LineItem
		charges  Charges
		subtotal string
		taxable  string
		tax      string
		total    string
	}{
		{
			name:     "single line with tax and freight",
			lines:    []LineItem{line(3, "100")},
			charges:  Charges{Freight: types.MustMoney("5"), Taxes: []TaxRate{{Code: "sales_tax", Rate: types.MustMoney("10")}}},
			subtotal: "300", taxable: "300", tax: "30", total: "335",
		},
		{
			name:  "three taxes on discounted value",
			lines: []LineItem{line(2, "250"), line(1, "500")},
			charges: Charges{
				Discount: types.MustMoney("100"),
				Taxes: []TaxRate{
					{Code: "sales_tax", Rate: types.MustMoney("17")},
					{Code: "special_excise", Rate: types.MustMoney("1")},
					{Code: "further_sales_tax", Rate: types.MustMoney("3")},
				},
			},
			subtotal: "1000", taxable: "900", tax: "189", total: "1089",
		},
		{
			name:     "discount larger than subtotal floors at zero",
			lines:    []LineItem{line(1, "40")},
			charges:  Charges{Discount: types.MustMoney("50"), Freight: types.MustMoney("7.5"), Taxes: []TaxRate{{Code: "sales_tax", Rate: types.MustMoney("10")}}},
			subtotal: "40", taxable: "0", tax: "0", total: "7.5",
		},
		{
			name:     "fractional prices stay exact",
			lines:    []LineItem{line(3, "0.1")},
			charges:  Charges{},
			subtotal: "0.3", taxable: "0.3", tax: "0", total: "0.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines, tt.charges)

			assert.True(t, types.MustMoney(tt.subtotal).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, types.MustMoney(tt.taxable).Equal(got.Taxable), "taxable %s", got.Taxable)
			assert.True(t, types.MustMoney(tt.tax).Equal(got.TaxTotal), "tax %s", got.TaxTotal)
			assert.True(t, types.MustMoney(tt.total).Equal(got.GrandTotal), "total %s", got.GrandTotal)
		})
	}
}

func TestComputeTotals_GrandTotalFormula(t *testing.T) {
	lines := []LineItem{line(4, "19.99"), line(7, "3.05")}
	charges := Charges{
		Discount: types.MustMoney("12.34"),
		Freight:  types.MustMoney("8"),
		Taxes: []TaxRate{
			{Code: "a", Rate: types.MustMoney("17")},
			{Code: "b", Rate: types.MustMoney("2.5")},
		},
	}

	got := ComputeTotals(lines, charges)

	// (Σ price×qty − discount, floored at 0) × (1 + Σ rates/100) + freight
	sum := types.MustMoney("19.99").Mul(types.NewMoneyFromInt(4)).Add(types.MustMoney("3.05").Mul(types.NewMoneyFromInt(7)))
	base := types.FloorZero(sum.Sub(charges.Discount))
	want := base.Mul(types.MustMoney("1").Add(types.MustMoney("19.5").Div(types.NewMoneyFromInt(100)))).Add(charges.Freight)

	assert.True(t, want.Equal(got.GrandTotal), "want %s got %s", want, got.GrandTotal)
	assert.Equal(t, int64(11), got.TotalQuantity)
	assert.True(t, types.MustMoney("79.96").Equal(lines[0].Amount))
}

func TestTotals_TaxMissingCodeIsZero(t *testing.T) {
	got := ComputeTotals([]LineItem{line(1, "10")}, Charges{})
	assert.True(t, got.Tax("sales_tax").Amount.IsZero())
}

func TestCharges_ValidateRejectsNegatives(t *testing.T) {
	assert.Error(t, Charges{Discount: types.MustMoney("-1")}.Validate())
	assert.Error(t, Charges{Freight: types.MustMoney("-0.01")}.Validate())
	assert.Error(t, Charges{Taxes: []TaxRate{{Code: "sales_tax", Rate: types.MustMoney("-5")}}}.Validate())
	assert.NoError(t, Charges{}.Validate())
}

func TestCharges_ValidateRejectsUnstorablePrecision(t *testing.T) {
	tests := []struct {
		name    string
		charges Charges
	}{
		{"discount below a cent", Charges{Discount: types.MustMoney("1.005")}},
		{"freight below a cent", Charges{Freight: types.MustMoney("0.001")}},
		{"rate with five decimals", Charges{Taxes: []TaxRate{{Code: "sales_tax", Rate: types.MustMoney("10.12345")}}}},
		{"rate of 1000 percent", Charges{Taxes: []TaxRate{{Code: "sales_tax", Rate: types.MustMoney("1000")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.charges.Validate()
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}

	assert.NoError(t, Charges{
		Discount: types.MustMoney("1.50"),
		Freight:  types.MustMoney("0.01"),
		Taxes:    []TaxRate{{Code: "sales_tax", Rate: types.MustMoney("999.9999")}},
	}.Validate())
}

// stored mimics a NUMERIC(p, places) column.
func stored(d types.Money, places int32) types.Money {
	return d.Round(places)
}

func TestComputeTotals_ReproducibleFromStoredRows(t *testing.T) {
	lines := []LineItem{line(3, "10.55"), line(2, "0.99")}
	charges := Charges{
		Discount: types.MustMoney("1.25"),
		Freight:  types.MustMoney("4.10"),
		Taxes: []TaxRate{
			{Code: "sales_tax", Rate: types.MustMoney("17.1234")},
			{Code: "further_sales_tax", Rate: types.MustMoney("3")},
		},
	}
	require.NoError(t, charges.Validate())

	got := ComputeTotals(lines, charges)

	persisted := make([]LineItem, len(lines))
	for i, l := range lines {
		persisted[i] = LineItem{
			Quantity:  l.Quantity,
			UnitPrice: stored(l.UnitPrice, types.MoneyPlaces),
		}
		assert.True(t, stored(l.Amount, types.MoneyPlaces).Equal(persisted[i].UnitPrice.Mul(types.NewMoneyFromInt(l.Quantity))),
			"line %d amount must equal stored price × qty", i+1)
	}
	persistedCharges := Charges{
		Discount: stored(charges.Discount, types.MoneyPlaces),
		Freight:  stored(charges.Freight, types.MoneyPlaces),
	}
	for _, tr := range charges.Taxes {
		persistedCharges.Taxes = append(persistedCharges.Taxes, TaxRate{Code: tr.Code, Rate: stored(tr.Rate, types.RatePlaces)})
	}

	again := ComputeTotals(persisted, persistedCharges)
	assert.True(t, got.GrandTotal.Equal(again.GrandTotal), "response %s, recomputed %s", got.GrandTotal, again.GrandTotal)
	assert.Equal(t, types.Present(got.GrandTotal), stored(again.GrandTotal, types.MoneyPlaces).StringFixed(types.MoneyPlaces))
}
