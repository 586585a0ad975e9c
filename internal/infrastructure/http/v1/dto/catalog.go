package dto

import (
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/item"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/warehouse"
)

// ItemRequest creates or updates an item.
type ItemRequest struct {
	Code            string         `json:"code" binding:"required"`
	Name            string         `json:"name" binding:"required"`
	ValuationMethod string         `json:"valuationMethod"`
	Unit            string         `json:"unit"`
	TrackBatch      bool           `json:"trackBatch"`
	TrackSerial     bool           `json:"trackSerial"`
	TrackExpiry     bool           `json:"trackExpiry"`
	ReorderLevel    types.Quantity `json:"reorderLevel"`
	ReorderQuantity types.Quantity `json:"reorderQuantity"`
	StandardCost    *types.Money   `json:"standardCost"`
	Category        string         `json:"category"`
	Description     *string        `json:"description"`
}

// ItemResponse is an item catalog entry.
type ItemResponse struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	IsActive        bool    `json:"isActive"`
	ValuationMethod string  `json:"valuationMethod"`
	Unit            string  `json:"unit"`
	TrackBatch      bool    `json:"trackBatch"`
	TrackSerial     bool    `json:"trackSerial"`
	TrackExpiry     bool    `json:"trackExpiry"`
	ReorderLevel    string  `json:"reorderLevel"`
	ReorderQuantity string  `json:"reorderQuantity"`
	StandardCost    string  `json:"standardCost"`
	Category        string  `json:"category,omitempty"`
	Description     *string `json:"description,omitempty"`
}

// FromItem converts an item.
func FromItem(it *item.Item) ItemResponse {
	return ItemResponse{
		ID:              it.ID.String(),
		Code:            it.Code,
		Name:            it.Name,
		IsActive:        it.IsActive,
		ValuationMethod: string(it.ValuationMethod),
		Unit:            it.Unit,
		TrackBatch:      it.TrackBatch,
		TrackSerial:     it.TrackSerial,
		TrackExpiry:     it.TrackExpiry,
		ReorderLevel:    it.ReorderLevel.String(),
		ReorderQuantity: it.ReorderQuantity.String(),
		StandardCost:    it.StandardCost.String(),
		Category:        it.Category,
		Description:     it.Description,
	}
}

// FromItems converts a slice of items.
func FromItems(items []*item.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, it := range items {
		out[i] = FromItem(it)
	}
	return out
}

// WarehouseRequest creates or updates a warehouse.
type WarehouseRequest struct {
	Code               string  `json:"code" binding:"required"`
	Name               string  `json:"name" binding:"required"`
	Type               string  `json:"type"`
	Address            *string `json:"address"`
	AllowNegativeStock bool    `json:"allowNegativeStock"`
}

// WarehouseResponse is a warehouse catalog entry.
type WarehouseResponse struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	IsActive           bool    `json:"isActive"`
	Type               string  `json:"type"`
	Address            *string `json:"address,omitempty"`
	AllowNegativeStock bool    `json:"allowNegativeStock"`
}

// FromWarehouse converts a warehouse.
func FromWarehouse(wh *warehouse.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:                 wh.ID.String(),
		Code:               wh.Code,
		Name:               wh.Name,
		IsActive:           wh.IsActive,
		Type:               string(wh.Type),
		Address:            wh.Address,
		AllowNegativeStock: wh.AllowNegativeStock,
	}
}

// FromWarehouses converts a slice of warehouses.
func FromWarehouses(warehouses []*warehouse.Warehouse) []WarehouseResponse {
	out := make([]WarehouseResponse, len(warehouses))
	for i, wh := range warehouses {
		out[i] = FromWarehouse(wh)
	}
	return out
}

// LocationRequest creates a storage location inside a warehouse.
type LocationRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// LocationResponse is a storage location.
type LocationResponse struct {
	ID          string `json:"id"`
	WarehouseID string `json:"warehouseId"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	IsActive    bool   `json:"isActive"`
}

// FromLocation converts a location.
func FromLocation(loc *warehouse.Location) LocationResponse {
	return LocationResponse{
		ID:          loc.ID.String(),
		WarehouseID: loc.WarehouseID.String(),
		Code:        loc.Code,
		Name:        loc.Name,
		IsActive:    loc.IsActive,
	}
}
