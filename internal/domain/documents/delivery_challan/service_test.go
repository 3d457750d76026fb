package delivery_challan_test

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
	dc "invoicer/internal/domain/documents/delivery_challan"
	"invoicer/internal/domain/documents/documentstest"
	"invoicer/internal/domain/documents/quotation"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[id.ID]dc.DeliveryChallan
}

func (r *memRepo) Create(_ context.Context, c *dc.DeliveryChallan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = *c
	return nil
}

func (r *memRepo) AttachPDF(_ context.Context, _, challanID id.ID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.rows[challanID]
	c.PDFURL = url
	r.rows[challanID] = c
	return nil
}

func (r *memRepo) GetByID(_ context.Context, ownerID, challanID id.ID) (*dc.DeliveryChallan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[challanID]
	if !ok || c.OwnerID != ownerID {
		return nil, apperror.NewNotFound("delivery_challan", challanID.String())
	}
	return &c, nil
}

func (r *memRepo) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*dc.DeliveryChallan], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[*dc.DeliveryChallan]{Limit: f.Limit, Offset: f.Offset}
	for _, c := range r.rows {
		if c.OwnerID == f.OwnerID {
			res.Items = append(res.Items, &c)
		}
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memRepo) Snapshot() func() {
	r.mu.Lock()
	saved := make(map[id.ID]dc.DeliveryChallan, len(r.rows))
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

// quotations is a read-only quotation store.
type quotations map[id.ID]*quotation.Quotation

func (q quotations) GetByID(_ context.Context, ownerID, quotationID id.ID) (*quotation.Quotation, error) {
	found, ok := q[quotationID]
	if !ok || found.OwnerID != ownerID {
		return nil, apperror.NewNotFound("quotation", quotationID.String())
	}
	return found, nil
}

type fixture struct {
	ctx    context.Context
	owner  id.ID
	mem    *documentstest.Memory
	store  *documentstest.ObjectStore
	quotes quotations
	repo   *memRepo
	svc    *dc.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	owner := id.New()
	f := &fixture{
		ctx:    appctx.WithUser(context.Background(), &appctx.UserContext{UserID: owner.String()}),
		owner:  owner,
		mem:    documentstest.NewMemory(),
		store:  &documentstest.ObjectStore{},
		quotes: quotations{},
		repo:   &memRepo{rows: map[id.ID]dc.DeliveryChallan{}},
	}
	f.mem.Join(f.repo)
	require.NoError(t, f.mem.Provision(f.ctx, owner))
	wf := documentstest.Workflow(f.mem, &documentstest.Renderer{Dir: t.TempDir()}, f.store)
	f.svc = dc.NewService(f.repo, f.quotes, wf)
	return f
}

// addQuotation stores a quotation of owner with one line.
func (f *fixture) addQuotation(t *testing.T, owner, itemID id.ID, qty int64) id.ID {
	t.Helper()
	q := &quotation.Quotation{}
	q.ID = id.New()
	q.OwnerID = owner
	q.Number = "QT-00001"
	f.quotes[q.ID] = q
	require.NoError(t, f.mem.SaveLines(f.ctx, []documents.LineItem{{
		ID: id.New(), OwnerID: owner, DocumentKind: documents.KindQuotation, DocumentID: q.ID,
		LineNo: 1, ItemID: itemID, ItemName: "Pipe", Quantity: qty, UnitPrice: types.MustMoney("40"),
	}}))
	return q.ID
}

func buyer() customer.Fields {
	return customer.Fields{Name: "Hooli", Street: "Ferozepur Road", Area: "Model Town", City: "Lahore", Country: "Pakistan"}
}

func po() dc.PurchaseOrder {
	return dc.PurchaseOrder{Number: "PO-77", Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}
}

func TestCreate_FreshLines(t *testing.T) {
	f := newFixture(t)
	it := f.mem.AddItem(f.owner, "Pipe", "40", 20)

	got, err := f.svc.Create(f.ctx, dc.CreateInput{
		Customer: buyer(),
		Lines: []documents.LineInput{
			{ItemID: it.ID, Quantity: 5, UnitPrice: types.MustMoney("40")},
			{ItemID: it.ID, Quantity: 3, UnitPrice: types.MustMoney("40")},
		},
		PO: po(),
	})
	require.NoError(t, err)

	assert.Equal(t, "DC-00001", got.Number)
	assert.Equal(t, int64(8), got.TotalQuantity)
	assert.Equal(t, "PO-77", got.PONo)
	assert.Nil(t, got.QuotationID)
	assert.Equal(t, int64(20), f.mem.Quantity(it.ID))
}

func TestCreate_RequiresPurchaseOrder(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		po    dc.PurchaseOrder
		field string
	}{
		{"missing number", dc.PurchaseOrder{Date: time.Now()}, "poNo"},
		{"missing date", dc.PurchaseOrder{Number: "PO-1"}, "poDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, dc.CreateInput{Customer: buyer(), PO: tt.po})
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestCreateFromQuotation_CopiesLinesAndLinks(t *testing.T) {
	f := newFixture(t)
	it := f.mem.AddItem(f.owner, "Pipe", "40", 1)
	quoteID := f.addQuotation(t, f.owner, it.ID, 12)

	got, err := f.svc.CreateFromQuotation(f.ctx, dc.FromQuotationInput{
		QuotationID: quoteID,
		Customer:    buyer(),
		PO:          po(),
	})
	require.NoError(t, err)

	// Copied lines are not checked against current stock.
	assert.Equal(t, int64(12), got.TotalQuantity)
	require.NotNil(t, got.QuotationID)
	assert.Equal(t, quoteID, *got.QuotationID)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Pipe", got.Lines[0].ItemName)

	sup := f.mem.SupersededBy(quoteID)
	require.Len(t, sup, 1)
	assert.Equal(t, documents.KindDeliveryChallan, sup[0].Kind)
	assert.Equal(t, got.ID, sup[0].TargetID)

	stored, err := f.svc.Get(f.ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.PDFURL, stored.PDFURL)
	assert.Len(t, stored.Lines, 1)
}

func TestCreateFromQuotation_OtherOwnersQuotation(t *testing.T) {
	f := newFixture(t)
	stranger := id.New()
	it := f.mem.AddItem(stranger, "Pipe", "40", 10)
	quoteID := f.addQuotation(t, stranger, it.ID, 2)

	_, err := f.svc.CreateFromQuotation(f.ctx, dc.FromQuotationInput{QuotationID: quoteID, Customer: buyer(), PO: po()})
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, int64(1), f.mem.Counter(f.owner, documents.KindDeliveryChallan))
	assert.Empty(t, f.mem.SupersededBy(quoteID))
}

func TestCreateFromQuotation_UploadFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	it := f.mem.AddItem(f.owner, "Pipe", "40", 1)
	quoteID := f.addQuotation(t, f.owner, it.ID, 3)
	f.store.UploadErr = apperror.NewUploadFailed(assert.AnError)

	_, err := f.svc.CreateFromQuotation(f.ctx, dc.FromQuotationInput{QuotationID: quoteID, Customer: buyer(), PO: po()})
	require.Error(t, err)

	assert.Empty(t, f.mem.SupersededBy(quoteID))
	assert.Empty(t, f.store.Objects())
	assert.Equal(t, int64(1), f.mem.Counter(f.owner, documents.KindDeliveryChallan))
	res, err := f.svc.List(f.ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
	assert.Empty(t, f.mem.Customers(f.owner))
}
