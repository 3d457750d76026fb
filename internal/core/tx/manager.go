// Package tx provides transaction management abstractions.
// Domain services depend on Manager; the pgx implementation lives in
// infrastructure/storage/postgres and carries the open transaction in the context.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back and the error returned as is.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the transaction already bound to ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
