package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgtype"

	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain/documents"
	"invoicer/internal/infrastructure/storage/postgres"
)

const linesTable = "document_lines"

var lineColumns = []string{
	"id", "owner_id", "document_kind", "document_id", "line_no",
	"item_id", "item_name", "quantity", "unit_price", "amount",
}

// LineRepo implements documents.LineRepository over document_lines.
type LineRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
}

// NewLineRepo creates a new line repository.
func NewLineRepo(txManager *postgres.TxManager) *LineRepo {
	return &LineRepo{txManager: txManager, batch: postgres.NewBatchInserter(txManager)}
}

var _ documents.LineRepository = (*LineRepo)(nil)

func lineRows(lines []documents.LineItem) ([][]any, error) {
	rows := make([][]any, len(lines))
	for i, l := range lines {
		price, err := numeric(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("line %d unit price: %w", l.LineNo, err)
		}
		amount, err := numeric(l.Amount)
		if err != nil {
			return nil, fmt.Errorf("line %d amount: %w", l.LineNo, err)
		}
		rows[i] = []any{
			l.ID, l.OwnerID, string(l.DocumentKind), l.DocumentID, l.LineNo,
			l.ItemID, l.ItemName, l.Quantity, price, amount,
		}
	}
	return rows, nil
}

// numeric converts money for the binary COPY protocol.
func numeric(m types.Money) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(m.String()); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("convert %s to numeric: %w", m, err)
	}
	return n, nil
}

// SaveLines copies lines in one round trip.
func (r *LineRepo) SaveLines(ctx context.Context, lines []documents.LineItem) error {
	rows, err := lineRows(lines)
	if err != nil {
		return err
	}
	if _, err := r.batch.CopyFromSlice(ctx, linesTable, lineColumns, rows); err != nil {
		return postgres.MapError(err, "line item", "item_id")
	}
	return nil
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func linesQuery(ownerID id.ID, kind documents.Kind, documentID id.ID) squirrel.SelectBuilder {
	return builder().
		Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"owner_id": ownerID, "document_kind": string(kind), "document_id": documentID}).
		OrderBy("line_no")
}

// GetLines implements documents.LineRepository.
func (r *LineRepo) GetLines(ctx context.Context, ownerID id.ID, kind documents.Kind, documentID id.ID) ([]documents.LineItem, error) {
	sql, args, err := linesQuery(ownerID, kind, documentID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var lines []documents.LineItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// DeleteLines implements documents.LineRepository.
func (r *LineRepo) DeleteLines(ctx context.Context, ownerID id.ID, kind documents.Kind, documentID id.ID) error {
	sql, args, err := builder().
		Delete(linesTable).
		Where(squirrel.Eq{"owner_id": ownerID, "document_kind": string(kind), "document_id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	return nil
}
