// Package document_repo provides PostgreSQL implementations for document repositories.
// The main table is always aliased "d"; read models may join customers and invoices.
package document_repo

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/infrastructure/storage/postgres"
)

// tableDef describes how a document type maps onto its table.
type tableDef struct {
	table  string
	entity string

	// insertCols are the columns stored in table.
	insertCols []string
	// joined are extra select expressions ("c.name AS customer_name").
	joined []string
	joins  []string
	// searchCol is matched by ListFilter.Search.
	searchCol string
}

// BaseDocumentRepo provides common operations for document entities.
type BaseDocumentRepo[T any] struct {
	txManager *postgres.TxManager
	def       tableDef
	newFn     func() T
}

func newBaseDocumentRepo[T any](txManager *postgres.TxManager, def tableDef, newFn func() T) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{txManager: txManager, def: def, newFn: newFn}
}

// storedColumns drops the read-only join columns from the entity's db columns.
func storedColumns(all []string, joinedOnly ...string) []string {
	return slices.DeleteFunc(slices.Clone(all), func(c string) bool {
		return slices.Contains(joinedOnly, c)
	})
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T]) insertQuery(entity T) (squirrel.InsertBuilder, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return squirrel.InsertBuilder{}, fmt.Errorf("no db tags found in %s", r.def.entity)
	}
	filtered := make(map[string]any, len(r.def.insertCols))
	for _, col := range r.def.insertCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return r.Builder().Insert(r.def.table).SetMap(filtered), nil
}

// Create inserts a new document row.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	q, err := r.insertQuery(entity)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, r.def.entity, "number")
	}
	return nil
}

// AttachPDF stores the rendered document URL.
func (r *BaseDocumentRepo[T]) AttachPDF(ctx context.Context, ownerID, docID id.ID, url string) error {
	sql, args, err := r.Builder().
		Update(r.def.table).
		Set("pdf_url", url).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": docID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build attach pdf: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.def.entity, "pdf_url")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.def.entity, docID.String())
	}
	return nil
}

// baseSelect selects the owner's documents with their joins.
func (r *BaseDocumentRepo[T]) baseSelect(ownerID id.ID) squirrel.SelectBuilder {
	cols := make([]string, 0, len(r.def.insertCols)+len(r.def.joined))
	for _, c := range r.def.insertCols {
		cols = append(cols, "d."+c)
	}
	cols = append(cols, r.def.joined...)

	q := r.Builder().Select(cols...).From(r.def.table + " d")
	for _, j := range r.def.joins {
		q = q.JoinClause(j)
	}
	return q.Where(squirrel.Eq{"d.owner_id": ownerID})
}

// GetByID retrieves the owner's document.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, ownerID, docID id.ID) (T, error) {
	entity := r.newFn()
	sql, args, err := r.baseSelect(ownerID).Where(squirrel.Eq{"d.id": docID}).ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.def.entity, docID.String())
		}
		return entity, fmt.Errorf("get %s: %w", r.def.entity, err)
	}
	return entity, nil
}

func (r *BaseDocumentRepo[T]) listQuery(filter domain.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect(filter.OwnerID)
	if filter.Search != "" && r.def.searchCol != "" {
		q = q.Where(squirrel.ILike{r.def.searchCol: "%" + filter.Search + "%"})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"d.id": filter.IDs})
	}
	return q
}

// List retrieves the owner's documents, newest first by default.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	q := r.listQuery(filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.def.table, err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.def.table, err)
	}
	return result, nil
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "d.created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}
	field = strings.TrimSpace(field)

	if field == "" || !slices.Contains(r.def.insertCols, field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return "d." + field + " " + direction, nil
}
