package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// BatchInserter performs bulk inserts using the COPY protocol.
// Document lines are written this way: one round-trip per document regardless of line count.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice inserts rows into table. Each row must match columns positionally.
// Runs inside the context transaction when there is one.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	return b.txManager.GetQuerier(ctx).CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}
