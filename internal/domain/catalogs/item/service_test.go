package item_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/core/id"
	"invoicer/internal/core/types"
	"invoicer/internal/domain"
	"invoicer/internal/domain/catalogs/item"
)

type inlineTx struct{}

func (inlineTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	mu    sync.Mutex
	items map[id.ID]item.Item
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[id.ID]item.Item{}}
}

func (r *memRepo) Create(_ context.Context, it *item.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.OwnerID == it.OwnerID && existing.Name == it.Name {
			return apperror.NewDuplicate("item", "name", it.Name)
		}
	}
	r.items[it.ID] = *it
	return nil
}

func (r *memRepo) GetByID(_ context.Context, ownerID, itemID id.ID) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok || it.OwnerID != ownerID {
		return nil, apperror.NewNotFound("item", itemID.String())
	}
	return &it, nil
}

func (r *memRepo) Update(_ context.Context, it *item.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.ID] = *it
	return nil
}

func (r *memRepo) Delete(_ context.Context, ownerID, itemID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, itemID)
	return nil
}

func (r *memRepo) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*item.Item], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[*item.Item]{Limit: f.Limit, Offset: f.Offset}
	for _, it := range r.items {
		if it.OwnerID == f.OwnerID {
			res.Items = append(res.Items, &it)
		}
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memRepo) Exists(_ context.Context, ownerID, itemID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	return ok && it.OwnerID == ownerID, nil
}

func (r *memRepo) SetQuantity(_ context.Context, ownerID, itemID id.ID, quantity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok || it.OwnerID != ownerID {
		return apperror.NewNotFound("item", itemID.String())
	}
	it.Quantity = quantity
	r.items[itemID] = it
	return nil
}

func (r *memRepo) Decrement(_ context.Context, ownerID, itemID id.ID, qty int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok || it.OwnerID != ownerID || it.Quantity < qty {
		return false, nil
	}
	it.Quantity -= qty
	r.items[itemID] = it
	return true, nil
}

func (r *memRepo) Restore(_ context.Context, ownerID, itemID id.ID, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.items[itemID]
	it.Quantity += qty
	r.items[itemID] = it
	return nil
}

type publisher struct {
	mu         sync.Mutex
	publishErr error
	published  []string
	removed    []string
}

func (p *publisher) Publish(_ context.Context, key string, src io.Reader) (string, error) {
	if _, err := io.ReadAll(src); err != nil {
		return "", err
	}
	if p.publishErr != nil {
		return "", p.publishErr
	}
	url := "https://files.test/" + key
	p.mu.Lock()
	p.published = append(p.published, url)
	p.mu.Unlock()
	return url, nil
}

func (p *publisher) Remove(_ context.Context, url string) error {
	p.mu.Lock()
	p.removed = append(p.removed, url)
	p.mu.Unlock()
	return nil
}

type fixture struct {
	ctx    context.Context
	owner  id.ID
	repo   *memRepo
	images *publisher
	svc    *item.Service
}

func newFixture() *fixture {
	owner := id.New()
	f := &fixture{
		ctx:    appctx.WithUser(context.Background(), &appctx.UserContext{UserID: owner.String()}),
		owner:  owner,
		repo:   newMemRepo(),
		images: &publisher{},
	}
	f.svc = item.NewService(f.repo, inlineTx{}, f.images)
	return f
}

func picture() *item.Image {
	return &item.Image{Filename: "bolt.PNG", Body: strings.NewReader("png bytes")}
}

func TestCreate_PublishesImage(t *testing.T) {
	f := newFixture()
	it := item.NewItem(id.Nil(), "  Bolt ", types.MustMoney("2.50"), 40)

	require.NoError(t, f.svc.Create(f.ctx, it, picture()))

	assert.Equal(t, f.owner, it.OwnerID)
	assert.Equal(t, "https://files.test/"+f.owner.String()+"/items/"+it.ID.String()+".png", it.ImageURL)
	stored, err := f.svc.GetByID(f.ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bolt", stored.Name)
	assert.Equal(t, item.DefaultRange, stored.Range)
	assert.Empty(t, f.images.removed)
}

func TestCreate_RemovesImageWhenInsertFails(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.svc.Create(f.ctx, item.NewItem(id.Nil(), "Bolt", types.MustMoney("2"), 1), nil))

	dup := item.NewItem(id.Nil(), "Bolt", types.MustMoney("3"), 1)
	err := f.svc.Create(f.ctx, dup, picture())
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	require.Len(t, f.images.published, 1)
	assert.Equal(t, f.images.published, f.images.removed)
}

func TestCreate_InvalidItemPublishesNothing(t *testing.T) {
	tests := []struct {
		name  string
		price string
	}{
		{"zero price", "0"},
		{"sub-cent price", "1.005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			err := f.svc.Create(f.ctx, item.NewItem(id.Nil(), "Bolt", types.MustMoney(tt.price), 1), picture())
			require.Error(t, err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Empty(t, f.images.published)
		})
	}
}

func TestCreate_PublishFailure(t *testing.T) {
	f := newFixture()
	f.images.publishErr = errors.New("bucket unavailable")

	it := item.NewItem(id.Nil(), "Bolt", types.MustMoney("2"), 1)
	require.ErrorIs(t, f.svc.Create(f.ctx, it, picture()), f.images.publishErr)

	exists, err := f.repo.Exists(f.ctx, f.owner, it.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreate_Unauthenticated(t *testing.T) {
	f := newFixture()
	err := f.svc.Create(context.Background(), item.NewItem(id.Nil(), "Bolt", types.MustMoney("2"), 1), nil)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture()
	it := item.NewItem(id.Nil(), "Bolt", types.MustMoney("2"), 5)
	require.NoError(t, f.svc.Create(f.ctx, it, nil))

	got, err := f.svc.UpdateQuantity(f.ctx, it.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Quantity)

	got, err = f.svc.UpdateQuantity(f.ctx, it.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity)
}

func TestUpdateQuantity_RejectsNegative(t *testing.T) {
	f := newFixture()
	it := item.NewItem(id.Nil(), "Bolt", types.MustMoney("2"), 5)
	require.NoError(t, f.svc.Create(f.ctx, it, nil))

	_, err := f.svc.UpdateQuantity(f.ctx, it.ID, -1)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	stored, err := f.svc.GetByID(f.ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Quantity)
}

func TestUpdateQuantity_OtherOwnersItem(t *testing.T) {
	f := newFixture()
	it := item.NewItem(id.Nil(), "Bolt", types.MustMoney("2"), 5)
	require.NoError(t, f.svc.Create(f.ctx, it, nil))

	other := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: id.New().String()})
	_, err := f.svc.UpdateQuantity(other, it.ID, 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestInventoryLedger(t *testing.T) {
	f := newFixture()
	it := item.NewItem(id.Nil(), "Bolt", types.MustMoney("2"), 5)
	require.NoError(t, f.svc.Create(f.ctx, it, nil))

	_, err := f.svc.CheckSufficient(f.ctx, f.owner, it.ID, 6)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	require.NoError(t, f.svc.Decrement(f.ctx, f.owner, it.ID, 5))
	assert.Error(t, f.svc.Decrement(f.ctx, f.owner, it.ID, 1))

	require.NoError(t, f.svc.Restore(f.ctx, f.owner, it.ID, 2))
	got, err := f.svc.CheckSufficient(f.ctx, f.owner, it.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Quantity)
}
