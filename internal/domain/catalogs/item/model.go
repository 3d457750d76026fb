// Package item provides the item catalog and the inventory ledger built on it.
package item

import (
	"context"
	"strings"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
)

const (
	DefaultRange  = "Pure"
	DefaultDesign = "As Approved"
)

// Item is a sellable product with its on-hand quantity.
type Item struct {
	entity.BaseCatalog

	// Name is unique per owner
	Name string `db:"name" json:"name"`

	Price types.Money `db:"price" json:"price"`

	// Quantity on hand, never negative
	Quantity int64 `db:"quantity" json:"quantity"`

	ImageURL string `db:"image_url" json:"imageUrl,omitempty"`
	Range    string `db:"item_range" json:"range"`
	Design   string `db:"design" json:"design"`
}

// NewItem creates an item with the catalog defaults applied.
func NewItem(ownerID id.ID, name string, price types.Money, quantity int64) *Item {
	return &Item{
		BaseCatalog: entity.NewBaseCatalog(ownerID),
		Name:        strings.TrimSpace(name),
		Price:       price,
		Quantity:    quantity,
		Range:       DefaultRange,
		Design:      DefaultDesign,
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(ctx context.Context) error {
	if err := i.ValidateOwner(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !i.Price.IsPositive() {
		return apperror.NewValidation("price must be greater than zero").WithDetail("field", "price")
	}
	if !types.ValidMoney(i.Price) {
		return apperror.NewValidation("price must have at most 2 decimals").WithDetail("field", "price")
	}
	if i.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	return nil
}

// CanSupply reports whether qty units are on hand.
func (i *Item) CanSupply(qty int64) bool {
	return qty > 0 && qty <= i.Quantity
}

// applyDefaults fills blank range and design.
func (i *Item) applyDefaults() {
	if strings.TrimSpace(i.Range) == "" {
		i.Range = DefaultRange
	}
	if strings.TrimSpace(i.Design) == "" {
		i.Design = DefaultDesign
	}
}

// UpdateInput carries the editable fields. Nil fields are left unchanged.
type UpdateInput struct {
	Name     *string
	Price    *types.Money
	Quantity *int64
	Range    *string
	Design   *string
	Version  int
}

// Apply copies the set fields onto i.
func (in UpdateInput) Apply(i *Item) {
	if in.Name != nil {
		i.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		i.Price = *in.Price
	}
	if in.Quantity != nil {
		i.Quantity = *in.Quantity
	}
	if in.Range != nil {
		i.Range = strings.TrimSpace(*in.Range)
	}
	if in.Design != nil {
		i.Design = strings.TrimSpace(*in.Design)
	}
	i.applyDefaults()
}
