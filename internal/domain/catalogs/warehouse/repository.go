package warehouse

import (
	"context"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
)

// Repository defines the interface for Warehouse/Location persistence.
type Repository interface {
	// Create inserts a new warehouse.
	Create(ctx context.Context, wh *Warehouse) error

	// Update saves warehouse changes.
	Update(ctx context.Context, wh *Warehouse) error

	// GetByID retrieves a warehouse, failing NotFound when absent.
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)

	// List retrieves all warehouses, optionally active only.
	List(ctx context.Context, activeOnly bool) ([]*Warehouse, error)

	// CreateLocation inserts a new location.
	CreateLocation(ctx context.Context, loc *Location) error

	// GetLocation retrieves a location, failing NotFound when absent.
	GetLocation(ctx context.Context, locationID id.ID) (*Location, error)

	// ListLocations retrieves locations of a warehouse.
	ListLocations(ctx context.Context, warehouseID id.ID) ([]*Location, error)
}
