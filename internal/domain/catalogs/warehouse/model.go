// Package warehouse provides the Warehouse and Location catalogs.
// Warehouses are the physical containment hierarchy for stock; a location is
// an optional bin within a warehouse. Pure reference data, no stock math.
package warehouse

import (
	"context"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/entity"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
)

// WarehouseType defines the type of warehouse.
type WarehouseType string

const (
	TypeMain         WarehouseType = "main"
	TypeDistribution WarehouseType = "distribution"
	TypeSite         WarehouseType = "site"    // construction site store
	TypeTransit      WarehouseType = "transit" // goods in transit
)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	entity.Catalog

	// Type defines the warehouse category
	Type WarehouseType `db:"type" json:"type"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// AllowNegativeStock permits issues that drive on-hand below zero
	// (backorder-style issue-before-receipt). Transfers and issues from
	// warehouses without this flag fail InsufficientStock instead.
	AllowNegativeStock bool `db:"allow_negative_stock" json:"allowNegativeStock"`
}

// NewWarehouse creates a new Warehouse with required fields.
func NewWarehouse(code, name string, whType WarehouseType) *Warehouse {
	return &Warehouse{
		Catalog: entity.NewCatalog(code, name),
		Type:    whType,
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidWarehouseType(w.Type) {
		return apperror.NewValidation("invalid warehouse type").
			WithDetail("field", "type").
			WithDetail("value", string(w.Type))
	}

	return nil
}

// CanAcceptStock returns true if the warehouse can receive goods.
func (w *Warehouse) CanAcceptStock() bool {
	return w.IsActive
}

func isValidWarehouseType(t WarehouseType) bool {
	switch t {
	case TypeMain, TypeDistribution, TypeSite, TypeTransit:
		return true
	}
	return false
}

// Location is a bin within a warehouse (aisle, rack, yard slot).
type Location struct {
	entity.Catalog

	// WarehouseID is the owning warehouse
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
}

// NewLocation creates a new Location inside a warehouse.
func NewLocation(warehouseID id.ID, code, name string) *Location {
	return &Location{
		Catalog:     entity.NewCatalog(code, name),
		WarehouseID: warehouseID,
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(l.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	return nil
}
