package documents

import (
	"invoicer/internal/core/types"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/pkg/amountwords"
)

// TemplateData is what the PDF templates render. Money is already rounded for display.
type TemplateData struct {
	Title         string
	Number        string
	Date          string
	Issuer        Issuer
	Customer      customer.Fields
	Lines         []TemplateLine
	Subtotal      string
	Discount      string
	Taxable       string
	Taxes         []TemplateTax
	TaxTotal      string
	Freight       string
	GrandTotal    string
	TotalQuantity int64
	AmountInWords string

	// Fields are kind-specific label/value pairs (HS code, PO number, validity).
	Fields []TemplateField
}

type TemplateLine struct {
	No        int
	Name      string
	Quantity  int64
	UnitPrice string
	Amount    string
}

type TemplateTax struct {
	Label  string
	Rate   string
	Amount string
}

type TemplateField struct {
	Label string
	Value string
}

// AddField appends a kind-specific field, skipping blank values.
func (t *TemplateData) AddField(label, value string) {
	if value == "" {
		return
	}
	t.Fields = append(t.Fields, TemplateField{Label: label, Value: value})
}

func newTemplateData(d *Draft) *TemplateData {
	data := &TemplateData{
		Number:        d.Number.Display,
		Date:          d.CreatedAt.Format("01/02/2006"),
		Subtotal:      types.Present(d.Totals.Subtotal),
		Discount:      types.Present(d.Totals.Discount),
		Taxable:       types.Present(d.Totals.Taxable),
		TaxTotal:      types.Present(d.Totals.TaxTotal),
		Freight:       types.Present(d.Totals.Freight),
		GrandTotal:    types.Present(d.Totals.GrandTotal),
		TotalQuantity: d.Totals.TotalQuantity,
		AmountInWords: amountwords.Money(d.Totals.GrandTotal),
	}
	if d.Issuer != nil {
		data.Issuer = *d.Issuer
	}
	if c := d.Customer; c != nil {
		data.Customer = customer.Fields{
			Name: c.Name, Landmark: c.Landmark, Street: c.Street, Area: c.Area,
			City: c.City, Country: c.Country, GSTNo: c.GSTNo, NTNNo: c.NTNNo,
		}
	}
	for _, l := range d.Lines {
		data.Lines = append(data.Lines, TemplateLine{
			No:        l.LineNo,
			Name:      l.ItemName,
			Quantity:  l.Quantity,
			UnitPrice: types.Present(l.UnitPrice),
			Amount:    types.Present(l.Amount),
		})
	}
	for _, t := range d.Totals.Taxes {
		data.Taxes = append(data.Taxes, TemplateTax{
			Label:  t.Label,
			Rate:   t.Rate.String(),
			Amount: types.Present(t.Amount),
		})
	}
	return data
}
