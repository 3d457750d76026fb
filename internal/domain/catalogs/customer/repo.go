package customer

import (
	"context"

	"invoicer/internal/core/id"
	"invoicer/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// Upsert inserts c or updates the owner's customer with the same name.
	// Blank GST/NTN values keep the stored ones. Returns the stored row.
	Upsert(ctx context.Context, c *Customer) (*Customer, error)

	// LinkDocument records that a document was issued to the customer.
	LinkDocument(ctx context.Context, ownerID, customerID id.ID, kind string, documentID id.ID) error

	// UnlinkDocument removes every reference to the document.
	UnlinkDocument(ctx context.Context, ownerID id.ID, kind string, documentID id.ID) error

	// ListDocuments returns the customer's document references, newest first.
	ListDocuments(ctx context.Context, ownerID, customerID id.ID) ([]DocumentRef, error)
}
