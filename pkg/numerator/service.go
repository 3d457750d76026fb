// Package numerator issues per-owner, per-kind document sequence numbers.
//
// Counters live in doc_counters, one row per (owner, kind). They are provisioned
// at registration and incremented inside the transaction that persists the
// numbered document, so a rolled back document never consumes a visible number
// for other readers. Gaps after rollback are acceptable; numbers are monotonic,
// not contiguous.
package numerator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
)

// Kind identifies a numbered document kind.
type Kind string

const (
	KindInvoice         Kind = "invoice"
	KindQuotation       Kind = "quotation"
	KindDeliveryChallan Kind = "delivery_challan"
)

// Kinds lists every kind provisioned for a new owner.
var Kinds = []Kind{KindInvoice, KindQuotation, KindDeliveryChallan}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// FirstValue is the sequence value a freshly provisioned counter hands out.
const FirstValue int64 = 1

// Querier interface for database operations.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier bound to ctx (the open transaction, or the pool).
type QuerierFunc func(ctx context.Context) Querier

// Service provides document numbering functionality.
type Service struct {
	querier QuerierFunc
	configs map[Kind]Config
}

// New creates a numerator that resolves its querier per call.
func New(querier QuerierFunc) *Service {
	return &Service{
		querier: querier,
		configs: map[Kind]Config{
			KindInvoice:         DefaultConfig("INV"),
			KindQuotation:       DefaultConfig("QT"),
			KindDeliveryChallan: DefaultConfig("DC"),
		},
	}
}

// WithConfig overrides the display format for one kind.
func (s *Service) WithConfig(kind Kind, cfg Config) *Service {
	s.configs[kind] = cfg
	return s
}

// Config holds numbering display configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV", "QT")
	Prefix string

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 5,
	}
}

// Number is an issued sequence value with its display form.
type Number struct {
	Seq     int64
	Display string
}

// Next returns the current counter value for (owner, kind) and increments it.
// Must run inside the transaction of the document being numbered.
func (s *Service) Next(ctx context.Context, ownerID id.ID, kind Kind) (Number, error) {
	if s == nil {
		return Number{}, fmt.Errorf("numerator service is not initialized")
	}

	var seq int64
	err := s.querier(ctx).QueryRow(ctx, `
		UPDATE doc_counters
		SET next_val = next_val + 1, updated_at = now()
		WHERE owner_id = $1 AND kind = $2
		RETURNING next_val - 1
	`, ownerID, string(kind)).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Number{}, apperror.NewCounterMissing(string(kind))
		}
		return Number{}, fmt.Errorf("next %s number: %w", kind, err)
	}

	return Number{Seq: seq, Display: s.Format(kind, seq)}, nil
}

// Peek returns the number the next document of kind would receive, without consuming it.
func (s *Service) Peek(ctx context.Context, ownerID id.ID, kind Kind) (Number, error) {
	var seq int64
	err := s.querier(ctx).QueryRow(ctx, `
		SELECT next_val FROM doc_counters WHERE owner_id = $1 AND kind = $2
	`, ownerID, string(kind)).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Number{}, apperror.NewCounterMissing(string(kind))
		}
		return Number{}, fmt.Errorf("peek %s number: %w", kind, err)
	}
	return Number{Seq: seq, Display: s.Format(kind, seq)}, nil
}

// Provision creates the counters of every kind for a new owner.
// Existing counters are left untouched.
func (s *Service) Provision(ctx context.Context, ownerID id.ID) error {
	q := s.querier(ctx)
	for _, kind := range Kinds {
		_, err := q.Exec(ctx, `
			INSERT INTO doc_counters (owner_id, kind, next_val)
			VALUES ($1, $2, $3)
			ON CONFLICT (owner_id, kind) DO NOTHING
		`, ownerID, string(kind), FirstValue)
		if err != nil {
			return fmt.Errorf("provision %s counter: %w", kind, err)
		}
	}
	return nil
}

// Format creates the display string for a sequence value.
func (s *Service) Format(kind Kind, seq int64) string {
	cfg, ok := s.configs[kind]
	if !ok {
		cfg = DefaultConfig(string(kind))
	}
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, seq)
}
