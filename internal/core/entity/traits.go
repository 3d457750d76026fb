package entity

import (
	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
)

// Owned is a trait for rows that belong to one registered business.
// Nothing crosses owners: every lookup filters by OwnerID.
type Owned struct {
	OwnerID id.ID `db:"owner_id" json:"ownerId"`
}

// ValidateOwner ensures an owner is set.
func (o *Owned) ValidateOwner() error {
	if id.IsNil(o.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}
	return nil
}

// IsOwnedBy reports whether the row belongs to ownerID.
func (o *Owned) IsOwnedBy(ownerID id.ID) bool {
	return o.OwnerID == ownerID
}
