package dto

import (
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/documents"
	dc "invoicer/internal/domain/documents/delivery_challan"
	"invoicer/internal/domain/documents/quotation"
	"invoicer/internal/domain/documents/sale"
)

// DateLayout is the calendar date format accepted next to RFC 3339.
const DateLayout = "2006-01-02"

// CustomerRequest holds the customer fields captured on every document.
type CustomerRequest struct {
	CustomerName     string `json:"customerName" binding:"required,max=200"`
	CustomerLandmark string `json:"customerLandmark" binding:"max=200"`
	CustomerStreet   string `json:"customerStreet" binding:"required,max=200"`
	CustomerArea     string `json:"customerArea" binding:"required,max=200"`
	CustomerCity     string `json:"customerCity" binding:"required,max=100"`
	CustomerCountry  string `json:"customerCountry" binding:"required,max=100"`
	CustomerGST      string `json:"customerGST" binding:"max=50"`
	CustomerNTN      string `json:"customerNTN" binding:"max=50"`
}

// Fields converts to the registry's fields.
func (r CustomerRequest) Fields() customer.Fields {
	return customer.Fields{
		Name:     r.CustomerName,
		Landmark: r.CustomerLandmark,
		Street:   r.CustomerStreet,
		Area:     r.CustomerArea,
		City:     r.CustomerCity,
		Country:  r.CustomerCountry,
		GSTNo:    r.CustomerGST,
		NTNNo:    r.CustomerNTN,
	}
}

// LineRequest is one submitted line.
type LineRequest struct {
	ItemID    string      `json:"itemId" binding:"required,uuid4or7"`
	Quantity  int64       `json:"quantity" binding:"required,gt=0"`
	UnitPrice types.Money `json:"unitPrice"`
}

func toLines(in []LineRequest) ([]documents.LineInput, error) {
	lines := make([]documents.LineInput, 0, len(in))
	for i, l := range in {
		itemID, err := id.Parse(l.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid item id").WithDetail("line", i+1)
		}
		lines = append(lines, documents.LineInput{
			ItemID:    itemID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return lines, nil
}

// SourceRequest names the quotation or delivery challan a sale is produced from.
type SourceRequest struct {
	Kind string `json:"kind" binding:"required,oneof=quotation delivery_challan"`
	ID   string `json:"id" binding:"required,uuid4or7"`
}

// --- Sales ---

// CreateSaleRequest records a sale. Items are ignored when Source is set.
type CreateSaleRequest struct {
	CustomerRequest
	HSCode              string         `json:"hsCode" binding:"required,max=50"`
	AttnTo              string         `json:"attnTo" binding:"required,max=200"`
	Items               []LineRequest  `json:"items" binding:"omitempty,dive"`
	Source              *SourceRequest `json:"source" binding:"omitempty"`
	SalesTaxRate        types.Rate     `json:"salesTaxRate"`
	SpecialExciseRate   types.Rate     `json:"specialExciseRate"`
	FurtherSalesTaxRate types.Rate     `json:"furtherSalesTaxRate"`
	Discount            types.Money    `json:"discount"`
	Freight             types.Money    `json:"freight"`
}

// ToInput converts to the domain input.
func (r *CreateSaleRequest) ToInput() (sale.CreateInput, error) {
	in := sale.CreateInput{
		Customer:            r.Fields(),
		HSCode:              r.HSCode,
		AttnTo:              r.AttnTo,
		SalesTaxRate:        r.SalesTaxRate,
		SpecialExciseRate:   r.SpecialExciseRate,
		FurtherSalesTaxRate: r.FurtherSalesTaxRate,
		Discount:            r.Discount,
		Freight:             r.Freight,
	}
	if r.Source != nil {
		sourceID, err := id.Parse(r.Source.ID)
		if err != nil {
			return in, apperror.NewValidation("invalid source document").WithDetail("field", "source")
		}
		in.Source = &documents.CopiedFrom{Kind: documents.Kind(r.Source.Kind), DocumentID: sourceID}
		return in, nil
	}
	lines, err := toLines(r.Items)
	if err != nil {
		return in, err
	}
	in.Lines = lines
	return in, nil
}

// ExportQuery bounds the exported sales by creation date, both ends inclusive.
type ExportQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// ToFilter converts to the domain export filter. The owner is set by the handler.
func (q ExportQuery) ToFilter() (sale.ExportFilter, error) {
	var f sale.ExportFilter
	from, err := ParseOptionalDate(q.From, "from")
	if err != nil {
		return f, err
	}
	to, err := ParseOptionalDate(q.To, "to")
	if err != nil {
		return f, err
	}
	if to != nil && len(strings.TrimSpace(q.To)) == len(DateLayout) {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	f.From, f.To = from, to
	return f, nil
}

// --- Quotations ---

// CreateQuotationRequest records a quotation.
type CreateQuotationRequest struct {
	CustomerRequest
	Items        []LineRequest `json:"items" binding:"required,min=1,dive"`
	ValidUntil   string        `json:"validUntil"`
	SalesTaxRate types.Rate    `json:"salesTaxRate"`
	Discount     types.Money   `json:"discount"`
}

// ToInput converts to the domain input.
func (r *CreateQuotationRequest) ToInput() (quotation.CreateInput, error) {
	in := quotation.CreateInput{
		Customer:     r.Fields(),
		SalesTaxRate: r.SalesTaxRate,
		Discount:     r.Discount,
	}
	validUntil, err := ParseOptionalDate(r.ValidUntil, "validUntil")
	if err != nil {
		return in, err
	}
	in.ValidUntil = validUntil
	if in.Lines, err = toLines(r.Items); err != nil {
		return in, err
	}
	return in, nil
}

// --- Delivery challans ---

// PurchaseOrderRequest is the customer's order reference.
type PurchaseOrderRequest struct {
	PONo   string `json:"poNo" binding:"required,max=100"`
	PODate string `json:"poDate" binding:"required"`
}

func (r PurchaseOrderRequest) toPurchaseOrder() (dc.PurchaseOrder, error) {
	date, err := ParseDate(r.PODate, "poDate")
	if err != nil {
		return dc.PurchaseOrder{}, err
	}
	return dc.PurchaseOrder{Number: strings.TrimSpace(r.PONo), Date: date}, nil
}

// CreateDeliveryChallanRequest records a delivery challan with fresh lines.
type CreateDeliveryChallanRequest struct {
	CustomerRequest
	PurchaseOrderRequest
	Items []LineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts to the domain input.
func (r *CreateDeliveryChallanRequest) ToInput() (dc.CreateInput, error) {
	po, err := r.toPurchaseOrder()
	if err != nil {
		return dc.CreateInput{}, err
	}
	lines, err := toLines(r.Items)
	if err != nil {
		return dc.CreateInput{}, err
	}
	return dc.CreateInput{Customer: r.Fields(), Lines: lines, PO: po}, nil
}

// DeliveryChallanFromQuotationRequest copies the lines of a quotation.
type DeliveryChallanFromQuotationRequest struct {
	CustomerRequest
	PurchaseOrderRequest
}

// ToInput converts to the domain input for quotationID.
func (r *DeliveryChallanFromQuotationRequest) ToInput(quotationID id.ID) (dc.FromQuotationInput, error) {
	po, err := r.toPurchaseOrder()
	if err != nil {
		return dc.FromQuotationInput{}, err
	}
	return dc.FromQuotationInput{QuotationID: quotationID, Customer: r.Fields(), PO: po}, nil
}

// --- Dates ---

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s, field string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date").WithDetail("field", field)
	}
	return t.UTC(), nil
}

// ParseOptionalDate is ParseDate for optional values; blank yields nil.
func ParseOptionalDate(s, field string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
