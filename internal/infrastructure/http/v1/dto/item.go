package dto

import (
	"encoding/json"
	"strings"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/catalogs/item"
)

// CreateItemRequest is bound from JSON or from the fields of a multipart form.
// The optional picture arrives as the "image" file part.
type CreateItemRequest struct {
	Name     string      `json:"name" form:"name" binding:"required,max=200"`
	Price    json.Number `json:"price" form:"price" binding:"required"`
	Quantity int64       `json:"quantity" form:"quantity" binding:"min=0"`
	Range    string      `json:"range" form:"range" binding:"max=100"`
	Design   string      `json:"design" form:"design" binding:"max=100"`
}

// ToItem builds a new item. The service assigns the owner.
func (r *CreateItemRequest) ToItem() (*item.Item, error) {
	price, err := parseMoney(r.Price, "price")
	if err != nil {
		return nil, err
	}
	it := item.NewItem(id.Nil(), r.Name, price, r.Quantity)
	if s := strings.TrimSpace(r.Range); s != "" {
		it.Range = s
	}
	if s := strings.TrimSpace(r.Design); s != "" {
		it.Design = s
	}
	return it, nil
}

// UpdateItemRequest carries the editable item fields. Omitted fields are unchanged.
type UpdateItemRequest struct {
	Name     *string      `json:"name" binding:"omitempty,max=200"`
	Price    *json.Number `json:"price"`
	Quantity *int64       `json:"quantity" binding:"omitempty,min=0"`
	Range    *string      `json:"range" binding:"omitempty,max=100"`
	Design   *string      `json:"design" binding:"omitempty,max=100"`
	Version  int          `json:"version" binding:"min=0"`
}

// ToInput converts to the domain update input.
func (r *UpdateItemRequest) ToInput() (item.UpdateInput, error) {
	in := item.UpdateInput{
		Name:     r.Name,
		Quantity: r.Quantity,
		Range:    r.Range,
		Design:   r.Design,
		Version:  r.Version,
	}
	if r.Price != nil {
		price, err := parseMoney(*r.Price, "price")
		if err != nil {
			return in, err
		}
		in.Price = &price
	}
	return in, nil
}

// UpdateQuantityRequest overwrites the on-hand quantity.
type UpdateQuantityRequest struct {
	Quantity *int64 `json:"quantity" binding:"required,min=0"`
}

func parseMoney(n json.Number, field string) (types.Money, error) {
	m, err := types.NewMoneyFromString(string(n))
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid amount").WithDetail("field", field)
	}
	return m, nil
}
