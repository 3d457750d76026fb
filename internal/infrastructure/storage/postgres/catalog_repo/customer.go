package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/id"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/infrastructure/storage/postgres"
)

const (
	customerTable     = "customers"
	customerDocsTable = "customer_documents"
)

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			customerTable,
			"customer",
			"name",
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

var _ customer.Repository = (*CustomerRepo)(nil)

func (r *CustomerRepo) upsertQuery(c *customer.Customer) (squirrel.InsertBuilder, error) {
	q, err := r.insertQuery(c)
	if err != nil {
		return q, err
	}
	return q.Suffix(`ON CONFLICT (owner_id, name) DO UPDATE SET
		landmark = EXCLUDED.landmark,
		street = EXCLUDED.street,
		area = EXCLUDED.area,
		city = EXCLUDED.city,
		country = EXCLUDED.country,
		gst_no = COALESCE(NULLIF(EXCLUDED.gst_no, ''), customers.gst_no),
		ntn_no = COALESCE(NULLIF(EXCLUDED.ntn_no, ''), customers.ntn_no),
		version = customers.version + 1,
		updated_at = EXCLUDED.updated_at
		RETURNING ` + strings.Join(r.Columns(), ", ")), nil
}

// Upsert implements customer.Repository.
func (r *CustomerRepo) Upsert(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	q, err := r.upsertQuery(c)
	if err != nil {
		return nil, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}

	stored := &customer.Customer{}
	if err := pgxscan.Get(ctx, r.Querier(ctx), stored, sql, args...); err != nil {
		return nil, r.mapErr(err)
	}
	return stored, nil
}

// LinkDocument implements customer.Repository.
func (r *CustomerRepo) LinkDocument(ctx context.Context, ownerID, customerID id.ID, kind string, documentID id.ID) error {
	sql, args, err := r.Builder().
		Insert(customerDocsTable).
		Columns("owner_id", "customer_id", "document_kind", "document_id").
		Values(ownerID, customerID, kind, documentID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build link: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "customer document", "document_id")
	}
	return nil
}

// UnlinkDocument implements customer.Repository.
func (r *CustomerRepo) UnlinkDocument(ctx context.Context, ownerID id.ID, kind string, documentID id.ID) error {
	sql, args, err := r.Builder().
		Delete(customerDocsTable).
		Where(squirrel.Eq{"owner_id": ownerID, "document_kind": kind, "document_id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build unlink: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("unlink customer document: %w", err)
	}
	return nil
}

// ListDocuments implements customer.Repository.
func (r *CustomerRepo) ListDocuments(ctx context.Context, ownerID, customerID id.ID) ([]customer.DocumentRef, error) {
	sql, args, err := r.Builder().
		Select("document_kind", "document_id", "created_at").
		From(customerDocsTable).
		Where(squirrel.Eq{"owner_id": ownerID, "customer_id": customerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	refs := []customer.DocumentRef{}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &refs, sql, args...); err != nil {
		return nil, fmt.Errorf("list customer documents: %w", err)
	}
	return refs, nil
}
