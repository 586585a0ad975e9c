// Package item provides the stock item catalog.
// An item is a stock-keeping definition; it owns the valuation policy and the
// tracking flags every ledger row for the item must respect.
package item

import (
	"context"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/entity"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/valuation"
)

// Item represents a stock-keeping definition.
type Item struct {
	entity.Catalog

	// ValuationMethod is the costing policy for this item.
	// Changing it is an administrative operation outside this engine.
	ValuationMethod valuation.Method `db:"valuation_method" json:"valuationMethod"`

	// Unit is the base unit of measure (pcs, kg, m3)
	Unit string `db:"unit" json:"unit"`

	// TrackBatch indicates the item is tracked by batch/lot numbers
	TrackBatch bool `db:"track_batch" json:"trackBatch"`

	// TrackSerial indicates the item is tracked by serial numbers
	TrackSerial bool `db:"track_serial" json:"trackSerial"`

	// TrackExpiry indicates batches carry expiry dates
	TrackExpiry bool `db:"track_expiry" json:"trackExpiry"`

	// ReorderLevel triggers replenishment when available stock drops below it
	ReorderLevel types.Quantity `db:"reorder_level" json:"reorderLevel"`

	// ReorderQuantity is the suggested replenishment quantity
	ReorderQuantity types.Quantity `db:"reorder_quantity" json:"reorderQuantity"`

	// StandardCost seeds the running cost for standard-cost items
	StandardCost types.Money `db:"standard_cost" json:"standardCost"`

	// Category groups items for reporting filters
	Category string `db:"category" json:"category,omitempty"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewItem creates a new Item with required fields.
func NewItem(code, name string, method valuation.Method) *Item {
	return &Item{
		Catalog:         entity.NewCatalog(code, name),
		ValuationMethod: method,
		Unit:            "pcs",
		StandardCost:    types.ZeroMoney(),
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !i.ValuationMethod.Valid() {
		return apperror.NewValidation("invalid valuation method").
			WithDetail("field", "valuationMethod").
			WithDetail("value", string(i.ValuationMethod))
	}

	if i.ReorderLevel.IsNegative() || i.ReorderQuantity.IsNegative() {
		return apperror.NewValidation("reorder settings cannot be negative").
			WithDetail("field", "reorderLevel")
	}

	if i.StandardCost.IsNegative() {
		return apperror.NewValidation("standard cost cannot be negative").
			WithDetail("field", "standardCost")
	}

	// Serial tracking implies per-unit rows; expiry only makes sense on batches.
	if i.TrackExpiry && !i.TrackBatch {
		return apperror.NewValidation("expiry tracking requires batch tracking").
			WithDetail("field", "trackExpiry")
	}

	return nil
}

// IsTracked returns true if ledger rows for the item carry batch or serial.
func (i *Item) IsTracked() bool {
	return i.TrackBatch || i.TrackSerial
}
