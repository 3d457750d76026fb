// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
// Every query is scoped by owner_id; rows of other owners behave as missing.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	uniqueCol  string
	selectCols []string
	newFn      func() T
}

// NewBaseCatalogRepo creates a new base catalog repository.
// uniqueCol is reported as the field of duplicate errors.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName, entityName, uniqueCol string,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		uniqueCol:  uniqueCol,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction bound to ctx or the pool.
func (r *BaseCatalogRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Columns returns the selected columns.
func (r *BaseCatalogRepo[T]) Columns() []string {
	return r.selectCols
}

func (r *BaseCatalogRepo[T]) mapErr(err error) error {
	return postgres.MapError(err, r.entityName, r.uniqueCol)
}

// insertMap keeps the entity values of the selected columns.
func (r *BaseCatalogRepo[T]) insertMap(entity T) (map[string]any, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return nil, fmt.Errorf("no db tags found in %s", r.entityName)
	}
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered, nil
}

// insertQuery builds the INSERT for entity.
func (r *BaseCatalogRepo[T]) insertQuery(entity T) (squirrel.InsertBuilder, error) {
	data, err := r.insertMap(entity)
	if err != nil {
		return squirrel.InsertBuilder{}, err
	}
	return r.Builder().Insert(r.tableName).SetMap(data), nil
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	q, err := r.insertQuery(entity)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapErr(err)
	}
	return nil
}

// updateQuery builds the optimistic-locking UPDATE for entity.
// The entity carries the version it expects to replace.
func (r *BaseCatalogRepo[T]) updateQuery(entity T) (squirrel.UpdateBuilder, error) {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("%s has no 'id' db field", r.entityName)
	}
	ownerID, ok := data["owner_id"]
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("%s has no 'owner_id' db field", r.entityName)
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("%s has no int 'version' db field", r.entityName)
	}

	set := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "owner_id", "created_at", "version":
			continue
		}
		if val, ok := data[col]; ok {
			set[col] = val
		}
	}

	return r.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID, "owner_id": ownerID, "version": version}), nil
}

// Update modifies an existing entity with optimistic locking.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	q, err := r.updateQuery(entity)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapErr(err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, postgres.StructToMap(entity)["id"])
	}
	return nil
}

// BaseSelect creates a SELECT builder over the owner's rows.
func (r *BaseCatalogRepo[T]) BaseSelect(ownerID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"owner_id": ownerID})
}

// GetByID retrieves the owner's entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, ownerID, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.BaseSelect(ownerID).Where(squirrel.Eq{"id": entityID}).Limit(1), entityID.String())
}

// GetForUpdate retrieves the owner's entity with a row lock.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, ownerID, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.BaseSelect(ownerID).Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE"), entityID.String())
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

// listQuery applies the filter without pagination.
func (r *BaseCatalogRepo[T]) listQuery(filter domain.ListFilter) squirrel.SelectBuilder {
	q := r.BaseSelect(filter.OwnerID)
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	return q
}

// List retrieves the owner's entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	q := r.listQuery(filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.Querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := ParseOrderBy(filter.OrderBy, r.selectCols)
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
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

// Exists checks if the owner's entity exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, ownerID, entityID id.ID) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID, "owner_id": ownerID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// Delete performs physical removal. Rows still referenced by documents give a conflict.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, ownerID, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapErr(err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

// ParseOrderBy turns "field" / "-field" into an ORDER BY clause over the allowed columns.
// Empty orderBy sorts newest first.
func ParseOrderBy(orderBy string, cols []string) (string, error) {
	if orderBy == "" {
		return "created_at DESC", nil
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

	for _, col := range cols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
}
