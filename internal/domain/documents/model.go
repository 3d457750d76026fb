// Package documents implements the creation workflow shared by sales,
// quotations and delivery challans.
//
// A document is created in one transaction: customer upsert, optional stock
// decrement, number issue, record and line inserts, PDF render and upload,
// and the link updates. Any failure rolls the transaction back and removes an
// already uploaded PDF.
package documents

import (
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/pkg/numerator"
)

// Kind identifies a document kind; each kind has its own counter and template.
type Kind = numerator.Kind

const (
	KindInvoice         = numerator.KindInvoice
	KindQuotation       = numerator.KindQuotation
	KindDeliveryChallan = numerator.KindDeliveryChallan
)

// LineInput is a line submitted by the client.
type LineInput struct {
	ItemID    id.ID
	Quantity  int64
	UnitPrice types.Money
}

// LineItem is a captured (item, quantity, price) snapshot belonging to one document.
// Immutable once the document is committed.
type LineItem struct {
	ID           id.ID       `db:"id" json:"id"`
	OwnerID      id.ID       `db:"owner_id" json:"-"`
	DocumentKind Kind        `db:"document_kind" json:"-"`
	DocumentID   id.ID       `db:"document_id" json:"-"`
	LineNo       int         `db:"line_no" json:"lineNo"`
	ItemID       id.ID       `db:"item_id" json:"itemId"`
	ItemName     string      `db:"item_name" json:"itemName"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	UnitPrice    types.Money `db:"unit_price" json:"unitPrice"`
	Amount       types.Money `db:"amount" json:"amount"`
}

// LineItemSource says where a new document's lines come from.
// It is either Fresh or CopiedFrom.
type LineItemSource interface {
	lineItemSource()
}

// Fresh lines are validated against the owner's inventory.
type Fresh struct {
	Lines []LineInput
}

// CopiedFrom reuses the captured lines of an earlier document of the same owner.
// Copied lines are not re-validated against current inventory.
type CopiedFrom struct {
	Kind       Kind
	DocumentID id.ID
}

func (Fresh) lineItemSource()      {}
func (CopiedFrom) lineItemSource() {}

// Issuer is the owner's business profile printed on every document.
type Issuer struct {
	BusinessName string
	Email        string
	Phone        string
	Slogan       string
	Website      string
	GSTNo        string
	NTNNo        string
	LogoURL      string
	StampURL     string
	SignURL      string
	Landmark     string
	Street       string
	Area         string
	City         string
	Country      string
}

// Request describes one document to create.
type Request struct {
	OwnerID  id.ID
	Kind     Kind
	Customer customer.Fields
	Lines    LineItemSource
	Charges  Charges

	// ConsumesStock decrements inventory for every line. Only sales move stock.
	ConsumesStock bool
}

// Validate checks the request shape before anything is read or written.
func (r Request) Validate() error {
	if id.IsNil(r.OwnerID) {
		return apperror.NewUnauthorized("authentication required")
	}
	if !r.Kind.Valid() {
		return apperror.NewValidation("unknown document kind").WithDetail("kind", string(r.Kind))
	}
	if err := r.Customer.Validate(); err != nil {
		return err
	}
	if err := r.Charges.Validate(); err != nil {
		return err
	}

	switch src := r.Lines.(type) {
	case Fresh:
		if len(src.Lines) == 0 {
			return apperror.NewValidation("at least one line item is required").WithDetail("field", "items")
		}
		for i, l := range src.Lines {
			if id.IsNil(l.ItemID) {
				return apperror.NewValidation("invalid item id").WithDetail("line", i+1)
			}
			if l.Quantity <= 0 || !l.UnitPrice.IsPositive() {
				return apperror.NewValidation("invalid quantity or price").WithDetail("line", i+1)
			}
			if !types.ValidMoney(l.UnitPrice) {
				return apperror.NewValidation("price must have at most 2 decimals").WithDetail("line", i+1)
			}
		}
	case CopiedFrom:
		if id.IsNil(src.DocumentID) || !src.Kind.Valid() {
			return apperror.NewValidation("invalid source document").WithDetail("field", "source")
		}
	default:
		return apperror.NewValidation("at least one line item is required").WithDetail("field", "items")
	}
	return nil
}

// Draft is the document being built. Sinks read it to persist their records.
type Draft struct {
	ID        id.ID
	OwnerID   id.ID
	Kind      Kind
	Number    numerator.Number
	Issuer    *Issuer
	Customer  *customer.Customer
	Lines     []LineItem
	Totals    Totals
	Source    *CopiedFrom
	PDFURL    string
	CreatedAt time.Time

	// LinkID is the ID other records reference (customers, superseded documents).
	// Defaults to ID; a sale links through its invoice.
	LinkID id.ID
}

// LinkTarget returns LinkID, or ID when no separate link record exists.
func (d *Draft) LinkTarget() id.ID {
	if id.IsNil(d.LinkID) {
		return d.ID
	}
	return d.LinkID
}

// ObjectKey is the storage key of the rendered PDF.
func (d *Draft) ObjectKey() string {
	return d.OwnerID.String() + "/" + string(d.Kind) + "/" + strings.ToLower(d.Number.Display) + ".pdf"
}
