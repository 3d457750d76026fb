package customer_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/internal/domain/catalogs/customer"
)

type inlineTx struct{}

func (inlineTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type link struct {
	ownerID    id.ID
	customerID id.ID
	ref        customer.DocumentRef
}

type memRepo struct {
	mu        sync.Mutex
	customers map[id.ID]customer.Customer
	links     []link
	listErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{customers: map[id.ID]customer.Customer{}}
}

func (r *memRepo) Create(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = *c
	return nil
}

func (r *memRepo) GetByID(_ context.Context, ownerID, customerID id.ID) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	if !ok || c.OwnerID != ownerID {
		return nil, apperror.NewNotFound("customer", customerID.String())
	}
	return &c, nil
}

func (r *memRepo) Update(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = *c
	return nil
}

func (r *memRepo) Delete(_ context.Context, _, customerID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.customers, customerID)
	return nil
}

func (r *memRepo) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[*customer.Customer]{Limit: f.Limit, Offset: f.Offset}
	for _, c := range r.customers {
		if c.OwnerID == f.OwnerID {
			res.Items = append(res.Items, &c)
		}
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memRepo) Exists(_ context.Context, ownerID, customerID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	return ok && c.OwnerID == ownerID, nil
}

func (r *memRepo) Upsert(_ context.Context, c *customer.Customer) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, existing := range r.customers {
		if existing.OwnerID != c.OwnerID || existing.Name != c.Name {
			continue
		}
		stored := *c
		stored.ID, stored.CreatedAt = existing.ID, existing.CreatedAt
		if stored.GSTNo == "" {
			stored.GSTNo = existing.GSTNo
		}
		if stored.NTNNo == "" {
			stored.NTNNo = existing.NTNNo
		}
		r.customers[key] = stored
		return &stored, nil
	}
	r.customers[c.ID] = *c
	stored := *c
	return &stored, nil
}

func (r *memRepo) LinkDocument(_ context.Context, ownerID, customerID id.ID, kind string, documentID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, link{
		ownerID:    ownerID,
		customerID: customerID,
		ref:        customer.DocumentRef{Kind: kind, DocumentID: documentID, CreatedAt: time.Now()},
	})
	return nil
}

func (r *memRepo) UnlinkDocument(_ context.Context, ownerID id.ID, kind string, documentID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.links[:0]
	for _, l := range r.links {
		if l.ownerID == ownerID && l.ref.Kind == kind && l.ref.DocumentID == documentID {
			continue
		}
		kept = append(kept, l)
	}
	r.links = kept
	return nil
}

func (r *memRepo) ListDocuments(_ context.Context, ownerID, customerID id.ID) ([]customer.DocumentRef, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []customer.DocumentRef
	for _, l := range r.links {
		if l.ownerID == ownerID && l.customerID == customerID {
			out = append(out, l.ref)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func fields(name string) customer.Fields {
	return customer.Fields{Name: name, Street: "Canal Road", Area: "Gulberg", City: "Lahore", Country: "Pakistan"}
}

func setup() (context.Context, id.ID, *memRepo, *customer.Service) {
	owner := id.New()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: owner.String()})
	repo := newMemRepo()
	return ctx, owner, repo, customer.NewService(repo, inlineTx{})
}

func TestUpsert_SameNameUpdatesOneCustomer(t *testing.T) {
	ctx, owner, _, svc := setup()

	f := fields(" Globex ")
	f.GSTNo = "GST-1"
	first, err := svc.Upsert(ctx, owner, f)
	require.NoError(t, err)
	assert.Equal(t, "Globex", first.Name)

	f = fields("Globex")
	f.City = "Karachi"
	second, err := svc.Upsert(ctx, owner, f)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Karachi", second.City)
	assert.Equal(t, "GST-1", second.GSTNo)
}

func TestUpsert_RequiresAddress(t *testing.T) {
	ctx, owner, _, svc := setup()

	f := fields("Globex")
	f.Country = " "
	_, err := svc.Upsert(ctx, owner, f)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "customerCountry", appErr.Details["field"])
}

func TestGetWithDocuments(t *testing.T) {
	ctx, owner, _, svc := setup()

	c, err := svc.Upsert(ctx, owner, fields("Globex"))
	require.NoError(t, err)
	invoiceID, quotationID := id.New(), id.New()
	require.NoError(t, svc.LinkDocument(ctx, owner, c.ID, "quotation", quotationID))
	require.NoError(t, svc.LinkDocument(ctx, owner, c.ID, "invoice", invoiceID))

	got, err := svc.GetWithDocuments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Documents, 2)
	assert.ElementsMatch(t, []id.ID{invoiceID, quotationID},
		[]id.ID{got.Documents[0].DocumentID, got.Documents[1].DocumentID})

	require.NoError(t, svc.UnlinkDocument(ctx, owner, "invoice", invoiceID))
	got, err = svc.GetWithDocuments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, quotationID, got.Documents[0].DocumentID)
}

func TestGetWithDocuments_OtherOwner(t *testing.T) {
	ctx, owner, _, svc := setup()
	c, err := svc.Upsert(ctx, owner, fields("Globex"))
	require.NoError(t, err)

	other := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: id.New().String()})
	_, err = svc.GetWithDocuments(other, c.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetWithDocuments_ListFailure(t *testing.T) {
	ctx, owner, repo, svc := setup()
	c, err := svc.Upsert(ctx, owner, fields("Globex"))
	require.NoError(t, err)

	repo.listErr = errors.New("connection reset")
	_, err = svc.GetWithDocuments(ctx, c.ID)
	assert.ErrorIs(t, err, repo.listErr)
}
