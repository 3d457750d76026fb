package entity

import (
	"context"
	"strings"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
)

// Document is the numbered, rendered part shared by invoices, quotations and delivery challans.
type Document struct {
	BaseEntity

	// Number is the display name issued by the owner's counter for this kind (e.g. INV-00012).
	Number string `db:"number" json:"number"`

	// SeqNo is the raw counter value behind Number.
	SeqNo int64 `db:"seq_no" json:"seqNo"`

	// PDFURL is the durable object store URL of the rendered document.
	PDFURL string `db:"pdf_url" json:"pdfUrl"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(ownerID id.ID) Document {
	return Document{BaseEntity: NewBaseEntity(ownerID)}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.ValidateOwner(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Number) == "" {
		return apperror.NewValidation("number is required").
			WithDetail("field", "number")
	}
	return nil
}

// AttachPDF records the uploaded document URL.
func (d *Document) AttachPDF(url string) {
	d.PDFURL = url
	d.Touch()
}
