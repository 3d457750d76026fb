package quotation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/documents"
	"invoicer/internal/domain/documents/documentstest"
	"invoicer/internal/domain/documents/quotation"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[id.ID]quotation.Quotation
}

func (r *memRepo) Create(_ context.Context, q *quotation.Quotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[q.ID] = *q
	return nil
}

func (r *memRepo) AttachPDF(_ context.Context, _, quotationID id.ID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.rows[quotationID]
	q.PDFURL = url
	r.rows[quotationID] = q
	return nil
}

func (r *memRepo) GetByID(_ context.Context, ownerID, quotationID id.ID) (*quotation.Quotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.rows[quotationID]
	if !ok || q.OwnerID != ownerID {
		return nil, apperror.NewNotFound("quotation", quotationID.String())
	}
	return &q, nil
}

func (r *memRepo) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*quotation.Quotation], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[*quotation.Quotation]{Limit: f.Limit, Offset: f.Offset}
	for _, q := range r.rows {
		if q.OwnerID == f.OwnerID {
			res.Items = append(res.Items, &q)
		}
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memRepo) Snapshot() func() {
	r.mu.Lock()
	saved := make(map[id.ID]quotation.Quotation, len(r.rows))
	for k, v := range r.rows {
		saved[k] = v
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.rows = saved
		r.mu.Unlock()
	}
}

func setup(t *testing.T) (context.Context, id.ID, *documentstest.Memory, *documentstest.ObjectStore, *quotation.Service) {
	t.Helper()
	owner := id.New()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: owner.String()})
	mem := documentstest.NewMemory()
	repo := &memRepo{rows: map[id.ID]quotation.Quotation{}}
	mem.Join(repo)
	require.NoError(t, mem.Provision(ctx, owner))
	store := &documentstest.ObjectStore{}
	wf := documentstest.Workflow(mem, &documentstest.Renderer{Dir: t.TempDir()}, store)
	return ctx, owner, mem, store, quotation.NewService(repo, wf)
}

func input(itemID id.ID, qty int64) quotation.CreateInput {
	return quotation.CreateInput{
		Customer:     customer.Fields{Name: "Initech", Street: "Main Blvd", Area: "DHA", City: "Karachi", Country: "Pakistan"},
		Lines:        []documents.LineInput{{ItemID: itemID, Quantity: qty, UnitPrice: types.MustMoney("250")}},
		SalesTaxRate: types.MustMoney("17"),
		Discount:     types.MustMoney("100"),
	}
}

func TestCreate_DoesNotMoveStock(t *testing.T) {
	ctx, owner, mem, store, svc := setup(t)
	it := mem.AddItem(owner, "Valve", "250", 5)

	q, err := svc.Create(ctx, input(it.ID, 4))
	require.NoError(t, err)

	assert.Equal(t, "QT-00001", q.Number)
	assert.True(t, q.Subtotal.Equal(types.MustMoney("1000")))
	assert.True(t, q.TaxableValue.Equal(types.MustMoney("900")))
	assert.True(t, q.SalesTax.Equal(types.MustMoney("153")))
	assert.True(t, q.GrandTotal.Equal(types.MustMoney("1053")))
	assert.Equal(t, int64(5), mem.Quantity(it.ID))
	assert.True(t, store.HasPrefix("https://files.test/"+owner.String()+"/quotation/qt-00001"))

	got, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.PDFURL, got.PDFURL)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Valve", got.Lines[0].ItemName)
}

func TestCreate_StillRequiresStockOnHand(t *testing.T) {
	ctx, owner, mem, _, svc := setup(t)
	it := mem.AddItem(owner, "Valve", "250", 2)

	_, err := svc.Create(ctx, input(it.ID, 3))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(1), mem.Counter(owner, documents.KindQuotation))
}

func TestCreate_ValidUntilInPast(t *testing.T) {
	ctx, owner, mem, _, svc := setup(t)
	it := mem.AddItem(owner, "Valve", "250", 2)

	in := input(it.ID, 1)
	past := time.Now().AddDate(0, 0, -3)
	in.ValidUntil = &past

	_, err := svc.Create(ctx, in)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "validUntil", appErr.Details["field"])
}

func TestGet_OtherOwner(t *testing.T) {
	ctx, owner, mem, _, svc := setup(t)
	it := mem.AddItem(owner, "Valve", "250", 2)
	q, err := svc.Create(ctx, input(it.ID, 1))
	require.NoError(t, err)

	other := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: id.New().String()})
	_, err = svc.Get(other, q.ID)
	assert.True(t, apperror.IsNotFound(err))

	res, err := svc.List(other, domain.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
	assert.Equal(t, domain.DefaultLimit, res.Limit)
}
