package sale

import (
	"context"

	"invoicer/internal/core/id"
	"invoicer/internal/domain"
)

// Repository persists sales and invoices.
type Repository interface {
	CreateSale(ctx context.Context, s *Sale) error
	CreateInvoice(ctx context.Context, inv *Invoice) error
	AttachPDF(ctx context.Context, ownerID, invoiceID id.ID, url string) error

	GetByID(ctx context.Context, ownerID, saleID id.ID) (*Sale, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Sale], error)
	ListForExport(ctx context.Context, filter ExportFilter) ([]*Sale, error)

	// Delete removes the sale and its invoice.
	Delete(ctx context.Context, ownerID, saleID id.ID) error

	GetInvoice(ctx context.Context, ownerID, invoiceID id.ID) (*Invoice, error)
	ListInvoices(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error)
}
