// Package customer provides the customer registry.
// Customers are upserted by (owner, name) whenever a document is issued to them.
package customer

import (
	"context"
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
)

// Customer is a buyer known to one owner.
type Customer struct {
	entity.BaseCatalog

	// Name is unique per owner
	Name     string `db:"name" json:"name"`
	Landmark string `db:"landmark" json:"landmark,omitempty"`
	Street   string `db:"street" json:"street"`
	Area     string `db:"area" json:"area"`
	City     string `db:"city" json:"city"`
	Country  string `db:"country" json:"country"`
	GSTNo    string `db:"gst_no" json:"gstNo,omitempty"`
	NTNNo    string `db:"ntn_no" json:"ntnNo,omitempty"`

	// Documents is loaded on demand
	Documents []DocumentRef `db:"-" json:"documents,omitempty"`
}

// DocumentRef points at a document issued to a customer.
type DocumentRef struct {
	Kind       string    `db:"document_kind" json:"kind"`
	DocumentID id.ID     `db:"document_id" json:"documentId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Fields are the customer attributes captured on a document.
type Fields struct {
	Name     string
	Landmark string
	Street   string
	Area     string
	City     string
	Country  string
	GSTNo    string
	NTNNo    string
}

// Normalize trims every field.
func (f Fields) Normalize() Fields {
	return Fields{
		Name:     strings.TrimSpace(f.Name),
		Landmark: strings.TrimSpace(f.Landmark),
		Street:   strings.TrimSpace(f.Street),
		Area:     strings.TrimSpace(f.Area),
		City:     strings.TrimSpace(f.City),
		Country:  strings.TrimSpace(f.Country),
		GSTNo:    strings.TrimSpace(f.GSTNo),
		NTNNo:    strings.TrimSpace(f.NTNNo),
	}
}

// Validate checks the fields every document requires.
func (f Fields) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"customerName", f.Name},
		{"customerStreet", f.Street},
		{"customerArea", f.Area},
		{"customerCity", f.City},
		{"customerCountry", f.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperror.NewValidation("all customer fields are required").WithDetail("field", r.field)
		}
	}
	return nil
}

// NewCustomer creates a customer from fields.
func NewCustomer(ownerID id.ID, f Fields) *Customer {
	f = f.Normalize()
	return &Customer{
		BaseCatalog: entity.NewBaseCatalog(ownerID),
		Name:        f.Name,
		Landmark:    f.Landmark,
		Street:      f.Street,
		Area:        f.Area,
		City:        f.City,
		Country:     f.Country,
		GSTNo:       f.GSTNo,
		NTNNo:       f.NTNNo,
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.ValidateOwner(); err != nil {
		return err
	}
	return Fields{
		Name: c.Name, Street: c.Street, Area: c.Area, City: c.City, Country: c.Country,
	}.Validate()
}
