package item

import (
	"context"

	"invoicer/internal/core/id"
	"invoicer/internal/domain"
)

// Repository defines the interface for Item persistence.
type Repository interface {
	domain.CatalogRepository[*Item]

	// SetQuantity overwrites the on-hand quantity.
	SetQuantity(ctx context.Context, ownerID, itemID id.ID, quantity int64) error

	// Decrement subtracts qty only while enough is on hand.
	// ok is false when the item is missing or short; nothing is changed then.
	Decrement(ctx context.Context, ownerID, itemID id.ID, qty int64) (ok bool, err error)

	// Restore adds qty back to the item.
	Restore(ctx context.Context, ownerID, itemID id.ID, qty int64) error
}
