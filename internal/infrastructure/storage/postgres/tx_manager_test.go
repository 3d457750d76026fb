package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotOptions(t *testing.T) {
	opts := DefaultTxOptions()
	opts.UseSavepoint = true

	got := snapshotOptions(opts)

	assert.Equal(t, pgx.ReadOnly, got.AccessMode)
	assert.Equal(t, pgx.RepeatableRead, got.IsolationLevel)
	assert.False(t, got.UseSavepoint)
	assert.Equal(t, opts.StatementTimeout, got.StatementTimeout)
	assert.Equal(t, pgx.ReadWrite, opts.AccessMode, "input is not modified")
}

func TestStatementTimeoutSQL(t *testing.T) {
	assert.Equal(t, "SET LOCAL statement_timeout = '30000ms'", statementTimeoutSQL(30*time.Second))
	assert.Equal(t, "SET LOCAL statement_timeout = '250ms'", statementTimeoutSQL(250*time.Millisecond))
	assert.Empty(t, statementTimeoutSQL(0))
	assert.Empty(t, statementTimeoutSQL(-time.Second))
}

func TestTx_SavepointNamesAreSequential(t *testing.T) {
	tx := &Tx{}
	assert.Equal(t, "sp_1", tx.nextSavepoint())
	assert.Equal(t, "sp_2", tx.nextSavepoint())
}

func TestWithOptions_KeepsPool(t *testing.T) {
	m := &TxManager{pool: &pgxpool.Pool{}, opts: DefaultTxOptions()}
	opts := DefaultTxOptions()
	opts.UseSavepoint = true

	derived := m.WithOptions(opts)

	assert.True(t, derived.opts.UseSavepoint)
	assert.False(t, m.opts.UseSavepoint)
	assert.Same(t, m.pool, derived.pool)
}

func TestGetTx_OutsideTransaction(t *testing.T) {
	m := &TxManager{}
	assert.Nil(t, m.GetTx(context.Background()))
}
