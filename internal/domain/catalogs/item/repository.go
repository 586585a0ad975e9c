package item

import (
	"context"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
)

// ListFilter narrows item listings.
type ListFilter struct {
	Search     string
	Category   string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Repository defines the interface for Item persistence.
type Repository interface {
	// Create inserts a new item.
	Create(ctx context.Context, it *Item) error

	// Update saves item changes with optimistic version check.
	Update(ctx context.Context, it *Item) error

	// GetByID retrieves an item, failing NotFound when absent.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// FindByCode retrieves an item by its unique code.
	FindByCode(ctx context.Context, code string) (*Item, error)

	// List retrieves items matching the filter.
	List(ctx context.Context, filter ListFilter) ([]*Item, error)
}
