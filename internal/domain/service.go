package domain

import (
	"context"
	"fmt"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/core/tx"
	"invoicer/pkg/logger"
)

// RequireOwner returns the authenticated owner from ctx.
func RequireOwner(ctx context.Context) (id.ID, error) {
	ownerID, ok := appctx.GetOwnerID(ctx)
	if !ok {
		return id.Nil(), apperror.NewUnauthorized("authentication required")
	}
	return ownerID, nil
}

// CatalogService provides owner-scoped CRUD for catalog entities.
type CatalogService[T entity.Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	hooks     *HookRegistry[T]

	// entityName for error messages
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Validatable] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Validatable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// TxManager exposes the transaction manager to embedding services.
func (s *CatalogService[T]) TxManager() tx.Manager {
	return s.txManager
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

// NormalizeGetErr maps a repository read error to the entity's not-found or internal error.
func (s *CatalogService[T]) NormalizeGetErr(err error, entityID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", entityID.String())
}

// Create validates and inserts entity.
func (s *CatalogService[T]) Create(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.Run(ctx, BeforeCreate, entity); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterCreate, entity); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// GetByID retrieves the caller's entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	var zero T
	ownerID, err := RequireOwner(ctx)
	if err != nil {
		return zero, err
	}
	entity, err := s.repo.GetByID(ctx, ownerID, entityID)
	if err != nil {
		return entity, s.NormalizeGetErr(err, entityID)
	}
	return entity, nil
}

// Update validates and stores entity with optimistic locking.
func (s *CatalogService[T]) Update(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.Run(ctx, BeforeUpdate, entity); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, entity); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
}

// Delete removes the caller's entity.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	ownerID, err := RequireOwner(ctx)
	if err != nil {
		return err
	}

	entity, err := s.repo.GetByID(ctx, ownerID, entityID)
	if err != nil {
		return s.NormalizeGetErr(err, entityID)
	}

	if err := s.hooks.Run(ctx, BeforeDelete, entity); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, ownerID, entityID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterDelete, entity); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// List retrieves the caller's entities.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	ownerID, err := RequireOwner(ctx)
	if err != nil {
		return ListResult[T]{}, err
	}
	filter.OwnerID = ownerID
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
