package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"invoicer/internal/core/tx"
	"invoicer/pkg/logger"
)

var tracer = otel.Tracer("invoicer/tx")

// TxManager serves both read-write and read-only units of work.
var _ tx.ReadOnlyManager = (*TxManager)(nil)

// TxOptions configures transaction behavior.
type TxOptions struct {
	// IsolationLevel: pgx.ReadCommitted for document creation, pgx.RepeatableRead for snapshots
	IsolationLevel pgx.TxIsoLevel

	// AccessMode: pgx.ReadWrite, pgx.ReadOnly
	AccessMode pgx.TxAccessMode

	// StatementTimeout bounds every statement of the unit (0 disables)
	StatementTimeout time.Duration

	// UseSavepoint makes a nested call roll back on its own instead of
	// failing the outer unit. The seeder uses it per item.
	UseSavepoint bool
}

// DefaultTxOptions is READ COMMITTED read-write with a 30s statement timeout.
// Stock and counters stay consistent through conditional updates, not isolation.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel:   pgx.ReadCommitted,
		AccessMode:       pgx.ReadWrite,
		StatementTimeout: 30 * time.Second,
	}
}

// snapshotOptions derives the read-only REPEATABLE READ variant of opts.
func snapshotOptions(opts TxOptions) TxOptions {
	opts.AccessMode = pgx.ReadOnly
	opts.IsolationLevel = pgx.RepeatableRead
	opts.UseSavepoint = false
	return opts
}

// statementTimeoutSQL returns the SET LOCAL statement for d, or "" when d is not positive.
func statementTimeoutSQL(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return "SET LOCAL statement_timeout = '" + strconv.FormatInt(d.Milliseconds(), 10) + "ms'"
}

// TxManager binds a pgx transaction to the context so that every repository
// called inside RunInTransaction shares it. Document creation relies on this:
// the counter increment, stock decrement and inserts commit or roll back together.
type TxManager struct {
	pool *pgxpool.Pool
	opts TxOptions
}

// NewTxManager creates a new transaction manager.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool, opts: DefaultTxOptions()}
}

// WithOptions returns a copy of m using opts for RunInTransaction.
func (m *TxManager) WithOptions(opts TxOptions) *TxManager {
	return &TxManager{pool: m.pool, opts: opts}
}

// txKey is the context key for active transaction.
type txKey struct{}

// Tx is the transaction bound to a context.
type Tx struct {
	pgx.Tx
	started    time.Time
	savepoints int
}

// nextSavepoint names the next savepoint of t: sp_1, sp_2, ...
// Nested calls run sequentially on one connection, so a counter is enough.
func (t *Tx) nextSavepoint() string {
	t.savepoints++
	return "sp_" + strconv.Itoa(t.savepoints)
}

// RunInTransaction executes fn within a transaction.
// If a transaction already exists in ctx, it will be reused.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, m.opts, fn)
}

// ReadOnly executes fn in a read-only REPEATABLE READ transaction: every
// statement in fn sees the same snapshot. Document views load the header and
// its lines this way.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, snapshotOptions(m.opts), fn)
}

// RunInTransactionWithOptions executes fn with custom transaction options.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	existing := m.GetTx(ctx)

	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(opts.IsolationLevel)),
			attribute.String("tx.access_mode", string(opts.AccessMode)),
			attribute.Bool("tx.nested", existing != nil),
		))
	defer span.End()

	var err error
	if existing != nil {
		err = m.runNested(ctx, existing, opts, fn)
	} else {
		err = m.runTopLevel(ctx, opts, fn)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
	}
	return err
}

// runTopLevel begins, runs and finishes a new database transaction.
func (m *TxManager) runTopLevel(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	pgTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   opts.IsolationLevel,
		AccessMode: opts.AccessMode,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Guard against runaway queries holding item rows locked
	if stmt := statementTimeoutSQL(opts.StatementTimeout); stmt != "" {
		if _, err := pgTx.Exec(ctx, stmt); err != nil {
			_ = pgTx.Rollback(context.Background())
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	bound := &Tx{Tx: pgTx, started: time.Now()}
	if err := fn(context.WithValue(ctx, txKey{}, bound)); err != nil {
		// Rollback must complete even if the request context was cancelled
		if rbErr := pgTx.Rollback(context.Background()); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		} else {
			logger.Debug(ctx, "transaction rolled back", "elapsed", time.Since(bound.started), "error", err)
		}
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// runNested joins the transaction in ctx, isolating fn behind a savepoint when asked.
func (m *TxManager) runNested(ctx context.Context, existing *Tx, opts TxOptions, fn func(ctx context.Context) error) error {
	if !opts.UseSavepoint {
		return fn(ctx)
	}

	name := existing.nextSavepoint()
	if _, err := existing.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(ctx); err != nil {
		// The outer unit continues from the savepoint
		if _, rbErr := existing.Exec(context.Background(), "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.Error(ctx, "rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		return err
	}

	if _, err := existing.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// GetTx returns the current transaction from context, or nil if none.
func (m *TxManager) GetTx(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t
	}
	return nil
}

// Querier is satisfied by both pgx.Tx and *pgxpool.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// GetQuerier returns the transaction bound to ctx, or the pool outside a transaction.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t.Tx
	}
	return m.pool
}
