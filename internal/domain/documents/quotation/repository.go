package quotation

import (
	"context"

	"invoicer/internal/core/id"
	"invoicer/internal/domain"
)

// Repository persists quotations.
type Repository interface {
	Create(ctx context.Context, q *Quotation) error
	AttachPDF(ctx context.Context, ownerID, quotationID id.ID, url string) error
	GetByID(ctx context.Context, ownerID, quotationID id.ID) (*Quotation, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Quotation], error)
}
