package item

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/core/tx"
	"invoicer/internal/domain"
	"invoicer/pkg/logger"
)

// ImagePublisher normalizes an uploaded picture and stores it durably.
type ImagePublisher interface {
	Publish(ctx context.Context, key string, src io.Reader) (url string, err error)
	Remove(ctx context.Context, url string) error
}

// Image is an optional picture attached on create.
type Image struct {
	Filename string
	Body     io.Reader
}

// Service provides the item catalog and the inventory ledger.
type Service struct {
	*domain.CatalogService[*Item]
	repo   Repository
	images ImagePublisher
}

// NewService creates a new Item service.
func NewService(repo Repository, txManager tx.Manager, images ImagePublisher) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Item]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "item",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		images:         images,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)
	base.Hooks().OnAfterDelete(svc.removeImage)

	return svc
}

func (s *Service) prepare(_ context.Context, it *Item) error {
	it.Name = strings.TrimSpace(it.Name)
	it.applyDefaults()
	return nil
}

func (s *Service) removeImage(ctx context.Context, it *Item) error {
	if it.ImageURL == "" || s.images == nil {
		return nil
	}
	return s.images.Remove(ctx, it.ImageURL)
}

// Create stores a new item for the caller, publishing img first when given.
// A published image is removed again if the insert fails.
func (s *Service) Create(ctx context.Context, it *Item, img *Image) error {
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return err
	}
	it.OwnerID = ownerID
	if err := it.Validate(ctx); err != nil {
		return err
	}

	if img != nil && img.Body != nil {
		if s.images == nil {
			return apperror.NewValidation("image uploads are not configured").WithDetail("field", "image")
		}
		key := fmt.Sprintf("%s/items/%s%s", ownerID, it.ID, strings.ToLower(path.Ext(img.Filename)))
		url, err := s.images.Publish(ctx, key, img.Body)
		if err != nil {
			return err
		}
		it.ImageURL = url
	}

	if err := s.CatalogService.Create(ctx, it); err != nil {
		if it.ImageURL != "" {
			if rmErr := s.images.Remove(ctx, it.ImageURL); rmErr != nil {
				logger.Warn(ctx, "failed to remove orphaned item image", "url", it.ImageURL, "error", rmErr)
			}
		}
		return err
	}

	logger.Info(ctx, "item created", "item_id", it.ID, "name", it.Name)
	return nil
}

// Update applies in to the caller's item.
func (s *Service) Update(ctx context.Context, itemID id.ID, in UpdateInput) (*Item, error) {
	it, err := s.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if in.Version != 0 && in.Version != it.Version {
		return nil, apperror.NewConcurrentModification("item", itemID.String())
	}

	in.Apply(it)
	if err := s.CatalogService.Update(ctx, it); err != nil {
		return nil, err
	}
	it.Touch()
	return it, nil
}

// UpdateQuantity overwrites the on-hand quantity of the caller's item.
func (s *Service) UpdateQuantity(ctx context.Context, itemID id.ID, quantity int64) (*Item, error) {
	if quantity < 0 {
		return nil, apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, ownerID, itemID, quantity); err != nil {
		return nil, s.NormalizeGetErr(err, itemID)
	}
	logger.Info(ctx, "item quantity updated", "item_id", itemID, "quantity", quantity)
	return s.GetByID(ctx, itemID)
}

// --- Inventory ledger ---

// CheckSufficient returns the owner's item when qty units are on hand.
// Fails closed: a missing or foreign item is not found, a shortage is INSUFFICIENT_STOCK.
func (s *Service) CheckSufficient(ctx context.Context, ownerID, itemID id.ID, qty int64) (*Item, error) {
	it, err := s.repo.GetByID(ctx, ownerID, itemID)
	if err != nil {
		return nil, s.NormalizeGetErr(err, itemID)
	}
	if !it.CanSupply(qty) {
		return nil, apperror.NewInsufficientStock(itemID.String(), qty, it.Quantity)
	}
	return it, nil
}

// Decrement consumes qty units. Runs inside the caller's transaction.
func (s *Service) Decrement(ctx context.Context, ownerID, itemID id.ID, qty int64) error {
	ok, err := s.repo.Decrement(ctx, ownerID, itemID, qty)
	if err != nil {
		return fmt.Errorf("decrement item %s: %w", itemID, err)
	}
	if !ok {
		return apperror.NewInsufficientStock(itemID.String(), qty, -1)
	}
	return nil
}

// Restore returns qty units to stock.
func (s *Service) Restore(ctx context.Context, ownerID, itemID id.ID, qty int64) error {
	if err := s.repo.Restore(ctx, ownerID, itemID, qty); err != nil {
		return fmt.Errorf("restore item %s: %w", itemID, err)
	}
	return nil
}
