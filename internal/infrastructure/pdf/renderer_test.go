package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/documents"
)

func sampleData() *documents.TemplateData {
	data := &documents.TemplateData{
		Title:  "Sales Tax Invoice",
		Number: "INV-00001",
		Date:   "10/19/2026",
		Issuer: documents.Issuer{
			BusinessName: "Acme Traders",
			City:         "Lahore",
			Country:      "Pakistan",
			SignURL:      "https://cdn.test/sign.png",
		},
		Customer: customer.Fields{Name: "Zed & Co", Street: "Mall Road", City: "Lahore"},
		Lines: []documents.TemplateLine{
			{No: 1, Name: "Widget", Quantity: 3, UnitPrice: "100.00", Amount: "300.00"},
		},
		Subtotal:      "300.00",
		Discount:      "0.00",
		Taxable:       "300.00",
		Taxes:         []documents.TemplateTax{{Label: "Sales Tax", Rate: "10", Amount: "30.00"}},
		Freight:       "5.00",
		GrandTotal:    "335.00",
		TotalQuantity: 3,
		AmountInWords: "Three Hundred Thirty Five Rupees Only",
	}
	data.AddField("HS Code", "8471")
	return data
}

func TestHTML_EveryKind(t *testing.T) {
	r, err := NewRenderer(Config{})
	require.NoError(t, err)

	for _, kind := range []documents.Kind{documents.KindInvoice, documents.KindQuotation, documents.KindDeliveryChallan} {
		t.Run(string(kind), func(t *testing.T) {
			html, err := r.HTML(string(kind), sampleData())
			require.NoError(t, err)
			out := string(html)
			assert.Contains(t, out, "INV-00001")
			assert.Contains(t, out, "Acme Traders")
			assert.Contains(t, out, "Zed &amp; Co")
			assert.Contains(t, out, "Mall Road, Lahore")
			assert.Contains(t, out, "Widget")
			assert.Contains(t, out, "https://cdn.test/sign.png")
		})
	}
}

func TestHTML_InvoiceTotals(t *testing.T) {
	r, err := NewRenderer(Config{})
	require.NoError(t, err)

	html, err := r.HTML("invoice", sampleData())
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Sales Tax @ 10%")
	assert.Contains(t, out, "335.00")
	assert.Contains(t, out, "HS Code")
	assert.Contains(t, out, "Three Hundred Thirty Five Rupees Only")
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer(Config{})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "receipt", sampleData())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRenderFailed, appErr.Code)
}

func TestJoinNonBlank(t *testing.T) {
	assert.Equal(t, "a, c", joinNonBlank("a", " ", "c"))
	assert.Equal(t, "", joinNonBlank())
}
