package item

import (
	"context"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/pkg/logger"
)

// Service provides business logic for the Item catalog.
type Service struct {
	repo Repository
}

// NewService creates a new Item service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new catalog item after checking code uniqueness.
func (s *Service) Create(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}

	if existing, err := s.repo.FindByCode(ctx, it.Code); err == nil && existing != nil {
		return apperror.NewDuplicate("item", "code", it.Code)
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return err
	}

	logger.Info(ctx, "item created", "id", it.ID, "code", it.Code)
	return nil
}

// Update saves item changes. The valuation method is deliberately not
// updatable here: changing it mid-life requires a revaluation, which is an
// administrative operation outside this engine.
func (s *Service) Update(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	if current.ValuationMethod != it.ValuationMethod {
		return apperror.NewInvalidState("valuation method cannot be changed through this API").
			WithDetail("field", "valuationMethod")
	}

	return s.repo.Update(ctx, it)
}

// GetByID retrieves an item, failing NotFound when absent.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetByID(ctx, itemID)
}

// List retrieves items matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Item, error) {
	return s.repo.List(ctx, filter)
}
