package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain/catalogs/item"
	"invoicer/internal/infrastructure/storage/postgres"
)

const itemTable = "items"

// ItemRepo implements item.Repository.
type ItemRepo struct {
	*BaseCatalogRepo[*item.Item]
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			itemTable,
			"item",
			"name",
			postgres.ExtractDBColumns[item.Item](),
			func() *item.Item { return &item.Item{} },
		),
	}
}

var _ item.Repository = (*ItemRepo)(nil)

func (r *ItemRepo) setQuantityQuery(ownerID, itemID id.ID, quantity int64) squirrel.UpdateBuilder {
	return r.Builder().
		Update(itemTable).
		Set("quantity", quantity).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": itemID, "owner_id": ownerID})
}

// SetQuantity overwrites the on-hand quantity.
func (r *ItemRepo) SetQuantity(ctx context.Context, ownerID, itemID id.ID, quantity int64) error {
	sql, args, err := r.setQuantityQuery(ownerID, itemID, quantity).ToSql()
	if err != nil {
		return fmt.Errorf("build set quantity: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("item", itemID.String())
	}
	return nil
}

// decrementQuery only matches while enough stock is on hand, so concurrent
// sales can never drive the quantity below zero.
func (r *ItemRepo) decrementQuery(ownerID, itemID id.ID, qty int64) squirrel.UpdateBuilder {
	return r.Builder().
		Update(itemTable).
		Set("quantity", squirrel.Expr("quantity - ?", qty)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": itemID, "owner_id": ownerID}).
		Where(squirrel.GtOrEq{"quantity": qty})
}

// Decrement implements item.Repository.
func (r *ItemRepo) Decrement(ctx context.Context, ownerID, itemID id.ID, qty int64) (bool, error) {
	sql, args, err := r.decrementQuery(ownerID, itemID, qty).ToSql()
	if err != nil {
		return false, fmt.Errorf("build decrement: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, r.mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// Restore implements item.Repository.
func (r *ItemRepo) Restore(ctx context.Context, ownerID, itemID id.ID, qty int64) error {
	sql, args, err := r.Builder().
		Update(itemTable).
		Set("quantity", squirrel.Expr("quantity + ?", qty)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": itemID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build restore: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("item", itemID.String())
	}
	return nil
}
