package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/documents/sale"
	"invoicer/internal/infrastructure/storage/postgres"
)

const (
	salesTable    = "sales"
	invoicesTable = "invoices"
)

// SaleRepo implements sale.Repository. Invoices are deleted with their sale (ON DELETE CASCADE).
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]
	invoices *BaseDocumentRepo[*sale.Invoice]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: newBaseDocumentRepo(txManager, tableDef{
			table:  salesTable,
			entity: "sale",
			insertCols: storedColumns(postgres.ExtractDBColumns[sale.Sale](),
				"invoice_number", "pdf_url", "customer_name"),
			joined: []string{
				"i.number AS invoice_number",
				"i.pdf_url AS pdf_url",
				"c.name AS customer_name",
			},
			joins: []string{
				"JOIN invoices i ON i.id = d.invoice_id",
				"JOIN customers c ON c.id = d.customer_id",
			},
			searchCol: "i.number",
		}, func() *sale.Sale { return &sale.Sale{} }),
		invoices: newBaseDocumentRepo(txManager, tableDef{
			table:      invoicesTable,
			entity:     "invoice",
			insertCols: postgres.ExtractDBColumns[sale.Invoice](),
			searchCol:  "d.number",
		}, func() *sale.Invoice { return &sale.Invoice{} }),
	}
}

var _ sale.Repository = (*SaleRepo)(nil)

// CreateSale implements sale.Repository.
func (r *SaleRepo) CreateSale(ctx context.Context, s *sale.Sale) error {
	return r.BaseDocumentRepo.Create(ctx, s)
}

// CreateInvoice implements sale.Repository.
func (r *SaleRepo) CreateInvoice(ctx context.Context, inv *sale.Invoice) error {
	return r.invoices.Create(ctx, inv)
}

// AttachPDF stores the URL on the invoice.
func (r *SaleRepo) AttachPDF(ctx context.Context, ownerID, invoiceID id.ID, url string) error {
	return r.invoices.AttachPDF(ctx, ownerID, invoiceID, url)
}

// GetInvoice implements sale.Repository.
func (r *SaleRepo) GetInvoice(ctx context.Context, ownerID, invoiceID id.ID) (*sale.Invoice, error) {
	return r.invoices.GetByID(ctx, ownerID, invoiceID)
}

// ListInvoices implements sale.Repository.
func (r *SaleRepo) ListInvoices(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*sale.Invoice], error) {
	return r.invoices.List(ctx, filter)
}

func (r *SaleRepo) exportQuery(filter sale.ExportFilter) squirrel.SelectBuilder {
	q := r.baseSelect(filter.OwnerID)
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"d.created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"d.created_at": *filter.To})
	}
	return q.OrderBy("d.created_at ASC")
}

// ListForExport implements sale.Repository.
func (r *SaleRepo) ListForExport(ctx context.Context, filter sale.ExportFilter) ([]*sale.Sale, error) {
	sql, args, err := r.exportQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export query: %w", err)
	}
	out := []*sale.Sale{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales for export: %w", err)
	}
	return out, nil
}

// Delete implements sale.Repository.
func (r *SaleRepo) Delete(ctx context.Context, ownerID, saleID id.ID) error {
	sql, args, err := r.Builder().
		Delete(salesTable).
		Where(squirrel.Eq{"id": saleID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "sale", "id")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}
