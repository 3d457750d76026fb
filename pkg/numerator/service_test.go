package numerator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type counterKey struct {
	owner id.ID
	kind  string
}

// mockQuerier simulates doc_counters.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[counterKey]int64
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[counterKey]int64)}
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := counterKey{owner: args[0].(id.ID), kind: args[1].(string)}
	if _, exists := m.counters[key]; !exists {
		m.counters[key] = args[2].(int64)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := counterKey{owner: args[0].(id.ID), kind: args[1].(string)}
	current, exists := m.counters[key]
	if !exists {
		return &mockRow{err: pgx.ErrNoRows}
	}
	if strings.Contains(sql, "UPDATE") {
		m.counters[key] = current + 1
	}
	return &mockRow{val: current}
}

func newTestService(q *mockQuerier) *Service {
	return New(func(ctx context.Context) Querier { return q })
}

func TestNext_IncrementsPerOwnerAndKind(t *testing.T) {
	q := newMockQuerier()
	svc := newTestService(q)
	ctx := context.Background()
	owner := id.New()

	require.NoError(t, svc.Provision(ctx, owner))

	first, err := svc.Next(ctx, owner, KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "INV-00001", first.Display)

	second, err := svc.Next(ctx, owner, KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-00002", second.Display)

	// Other kinds are independent.
	quote, err := svc.Next(ctx, owner, KindQuotation)
	require.NoError(t, err)
	assert.Equal(t, "QT-00001", quote.Display)
}

func TestNext_NoCrossOwnerLeakage(t *testing.T) {
	q := newMockQuerier()
	svc := newTestService(q)
	ctx := context.Background()
	a, b := id.New(), id.New()

	require.NoError(t, svc.Provision(ctx, a))
	require.NoError(t, svc.Provision(ctx, b))

	for i := 0; i < 3; i++ {
		_, err := svc.Next(ctx, a, KindDeliveryChallan)
		require.NoError(t, err)
	}

	n, err := svc.Next(ctx, b, KindDeliveryChallan)
	require.NoError(t, err)
	assert.Equal(t, "DC-00001", n.Display)
}

func TestNext_MissingCounter(t *testing.T) {
	svc := newTestService(newMockQuerier())

	_, err := svc.Next(context.Background(), id.New(), KindInvoice)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCounterMissing, appErr.Code)
}

func TestPeek_DoesNotConsume(t *testing.T) {
	q := newMockQuerier()
	svc := newTestService(q)
	ctx := context.Background()
	owner := id.New()
	require.NoError(t, svc.Provision(ctx, owner))

	peeked, err := svc.Peek(ctx, owner, KindQuotation)
	require.NoError(t, err)

	issued, err := svc.Next(ctx, owner, KindQuotation)
	require.NoError(t, err)
	assert.Equal(t, peeked, issued)
}

func TestProvision_Idempotent(t *testing.T) {
	q := newMockQuerier()
	svc := newTestService(q)
	ctx := context.Background()
	owner := id.New()

	require.NoError(t, svc.Provision(ctx, owner))
	_, err := svc.Next(ctx, owner, KindInvoice)
	require.NoError(t, err)

	require.NoError(t, svc.Provision(ctx, owner))
	n, err := svc.Next(ctx, owner, KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n.Seq)
}

func TestFormat(t *testing.T) {
	svc := newTestService(newMockQuerier()).WithConfig(KindInvoice, Config{Prefix: "SI", PadWidth: 3})

	assert.Equal(t, "SI-042", svc.Format(KindInvoice, 42))
	assert.Equal(t, "QT-00007", svc.Format(KindQuotation, 7))
	assert.True(t, KindDeliveryChallan.Valid())
	assert.False(t, Kind("receipt").Valid())
}
