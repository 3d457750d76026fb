package delivery_challan

import (
	"context"

	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/documents/quotation"
)

// Repository persists delivery challans.
type Repository interface {
	Create(ctx context.Context, dc *DeliveryChallan) error
	AttachPDF(ctx context.Context, ownerID, challanID id.ID, url string) error
	GetByID(ctx context.Context, ownerID, challanID id.ID) (*DeliveryChallan, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*DeliveryChallan], error)
}

// Quotations reads the quotation a challan is produced from.
type Quotations interface {
	GetByID(ctx context.Context, ownerID, quotationID id.ID) (*quotation.Quotation, error)
}
