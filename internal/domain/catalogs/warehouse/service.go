package warehouse

import (
	"context"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/pkg/logger"
)

// Service provides business logic for warehouses and locations.
type Service struct {
	repo Repository
}

// NewService creates a new Warehouse service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new warehouse.
func (s *Service) Create(ctx context.Context, wh *Warehouse) error {
	if err := wh.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, wh); err != nil {
		return err
	}

	logger.Info(ctx, "warehouse created", "id", wh.ID, "code", wh.Code)
	return nil
}

// Update saves warehouse changes.
func (s *Service) Update(ctx context.Context, wh *Warehouse) error {
	if err := wh.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, wh)
}

// GetByID retrieves a warehouse, failing NotFound when absent.
func (s *Service) GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	return s.repo.GetByID(ctx, warehouseID)
}

// List retrieves warehouses.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Warehouse, error) {
	return s.repo.List(ctx, activeOnly)
}

// CreateLocation creates a location inside an existing warehouse.
func (s *Service) CreateLocation(ctx context.Context, loc *Location) error {
	if err := loc.Validate(ctx); err != nil {
		return err
	}

	// Parent must exist and be active.
	wh, err := s.repo.GetByID(ctx, loc.WarehouseID)
	if err != nil {
		return err
	}
	if !wh.IsActive {
		return apperror.NewInvalidState("cannot add a location to an inactive warehouse").
			WithDetail("warehouse_id", wh.ID.String())
	}

	return s.repo.CreateLocation(ctx, loc)
}

// GetLocation retrieves a location, failing NotFound when absent.
func (s *Service) GetLocation(ctx context.Context, locationID id.ID) (*Location, error) {
	return s.repo.GetLocation(ctx, locationID)
}

// ListLocations retrieves locations of a warehouse.
func (s *Service) ListLocations(ctx context.Context, warehouseID id.ID) ([]*Location, error) {
	return s.repo.ListLocations(ctx, warehouseID)
}
