// Package entity provides base types shared by catalogs and documents.
package entity

import (
	"context"
	"time"

	"invoicer/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains the identity and timestamps of every owner-scoped row.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	Owned

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity(ownerID id.ID) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Owned:     Owned{OwnerID: ownerID},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch refreshes UpdatedAt.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// BaseCatalog adds an optimistic-locking version to editable reference data (items, customers).
type BaseCatalog struct {
	BaseEntity

	// Version is incremented on each update.
	Version int `db:"version" json:"version"`
}

// NewBaseCatalog creates a new BaseCatalog with generated ID.
func NewBaseCatalog(ownerID id.ID) BaseCatalog {
	return BaseCatalog{
		BaseEntity: NewBaseEntity(ownerID),
		Version:    1,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (b *BaseCatalog) Touch() {
	b.BaseEntity.Touch()
	b.Version++
}
