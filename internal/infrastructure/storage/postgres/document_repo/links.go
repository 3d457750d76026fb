package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain/documents"
	"invoicer/internal/infrastructure/storage/postgres"
)

// LinkRepo records which document superseded a quotation or delivery challan.
type LinkRepo struct {
	txManager *postgres.TxManager
}

// NewLinkRepo creates a new link repository.
func NewLinkRepo(txManager *postgres.TxManager) *LinkRepo {
	return &LinkRepo{txManager: txManager}
}

var _ documents.SourceLinker = (*LinkRepo)(nil)

// supersededColumn returns the source table and the column pointing at a target of kind.
func supersededColumn(source, target documents.Kind) (table, column string, ok bool) {
	switch {
	case source == documents.KindQuotation && target == documents.KindDeliveryChallan:
		return quotationsTable, "delivery_challan_id", true
	case source == documents.KindQuotation && target == documents.KindInvoice:
		return quotationsTable, "sale_invoice_id", true
	case source == documents.KindDeliveryChallan && target == documents.KindInvoice:
		return deliveryChallansTable, "sale_invoice_id", true
	}
	return "", "", false
}

func linkQuery(ownerID id.ID, source documents.CopiedFrom, kind documents.Kind, targetID id.ID) (squirrel.UpdateBuilder, error) {
	table, column, ok := supersededColumn(source.Kind, kind)
	if !ok {
		return squirrel.UpdateBuilder{}, apperror.NewValidation(
			fmt.Sprintf("a %s cannot be produced from a %s", kind, source.Kind)).
			WithDetail("field", "source")
	}
	return builder().
		Update(table).
		Set(column, targetID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": source.DocumentID, "owner_id": ownerID}), nil
}

// LinkSuperseded implements documents.SourceLinker.
func (r *LinkRepo) LinkSuperseded(ctx context.Context, ownerID id.ID, source documents.CopiedFrom, kind documents.Kind, targetID id.ID) error {
	q, err := linkQuery(ownerID, source, kind, targetID)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build link: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, string(source.Kind), "id")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(string(source.Kind), source.DocumentID.String())
	}
	return nil
}
