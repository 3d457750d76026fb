package customer

import (
	"context"
	"fmt"

	"invoicer/internal/core/id"
	"invoicer/internal/core/tx"
	"invoicer/internal/domain"
)

// Service provides the customer registry.
type Service struct {
	*domain.CatalogService[*Customer]
	repo Repository
}

// NewService creates a new Customer service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "customer",
	})
	return &Service{CatalogService: base, repo: repo}
}

// Upsert creates or updates the owner's customer named f.Name.
// Runs in the caller's transaction when there is one.
func (s *Service) Upsert(ctx context.Context, ownerID id.ID, f Fields) (*Customer, error) {
	c := NewCustomer(ownerID, f)
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	stored, err := s.repo.Upsert(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	return stored, nil
}

// LinkDocument appends a document reference to the customer.
func (s *Service) LinkDocument(ctx context.Context, ownerID, customerID id.ID, kind string, documentID id.ID) error {
	if err := s.repo.LinkDocument(ctx, ownerID, customerID, kind, documentID); err != nil {
		return fmt.Errorf("link customer document: %w", err)
	}
	return nil
}

// UnlinkDocument drops references to a removed document.
func (s *Service) UnlinkDocument(ctx context.Context, ownerID id.ID, kind string, documentID id.ID) error {
	if err := s.repo.UnlinkDocument(ctx, ownerID, kind, documentID); err != nil {
		return fmt.Errorf("unlink customer document: %w", err)
	}
	return nil
}

// GetWithDocuments returns the caller's customer with its document references.
func (s *Service) GetWithDocuments(ctx context.Context, customerID id.ID) (*Customer, error) {
	c, err := s.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDocuments(ctx, c.OwnerID, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list customer documents: %w", err)
	}
	c.Documents = docs
	return c, nil
}
