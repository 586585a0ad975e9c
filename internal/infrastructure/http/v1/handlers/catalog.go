package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/item"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/warehouse"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/valuation"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles item and warehouse catalog maintenance.
type CatalogHandler struct {
	*BaseHandler
	items      *item.Service
	warehouses *warehouse.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, items *item.Service, warehouses *warehouse.Service) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: base,
		items:       items,
		warehouses:  warehouses,
	}
}

func (h *CatalogHandler) parsePathID(c *gin.Context, what string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+what+" id format"))
		return id.Nil(), false
	}
	return parsed, true
}

// CreateItem handles POST /items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req dto.ItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	method := valuation.MethodWeightedAverage
	if req.ValuationMethod != "" {
		method = valuation.Method(req.ValuationMethod)
	}

	it := item.NewItem(req.Code, req.Name, method)
	applyItemRequest(it, &req)

	if err := h.items.Create(c.Request.Context(), it); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, it.ID.String())
}

// UpdateItem handles PUT /items/:id
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	itemID, ok := h.parsePathID(c, "item")
	if !ok {
		return
	}

	var req dto.ItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	it, err := h.items.GetByID(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	it.Code = req.Code
	it.Name = req.Name
	applyItemRequest(it, &req)

	if err := h.items.Update(ctx, it); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(it))
}

func applyItemRequest(it *item.Item, req *dto.ItemRequest) {
	if req.Unit != "" {
		it.Unit = req.Unit
	}
	it.TrackBatch = req.TrackBatch
	it.TrackSerial = req.TrackSerial
	it.TrackExpiry = req.TrackExpiry
	it.ReorderLevel = req.ReorderLevel
	it.ReorderQuantity = req.ReorderQuantity
	if req.StandardCost != nil {
		it.StandardCost = *req.StandardCost
	}
	it.Category = req.Category
	it.Description = req.Description
}

// GetItem handles GET /items/:id
func (h *CatalogHandler) GetItem(c *gin.Context) {
	itemID, ok := h.parsePathID(c, "item")
	if !ok {
		return
	}

	it, err := h.items.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(it))
}

// ListItems handles GET /items
func (h *CatalogHandler) ListItems(c *gin.Context) {
	filter := item.ListFilter{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		ActiveOnly: c.Query("activeOnly") == "true",
		Limit:      h.ParseIntQuery(c, "limit", 100),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	items, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"items": dto.FromItems(items),
		"meta":  dto.ListMeta{Count: len(items), Limit: filter.Limit, Offset: filter.Offset},
	})
}

// CreateWarehouse handles POST /warehouses
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req dto.WarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	whType := warehouse.TypeMain
	if req.Type != "" {
		whType = warehouse.WarehouseType(req.Type)
	}

	wh := warehouse.NewWarehouse(req.Code, req.Name, whType)
	wh.Address = req.Address
	wh.AllowNegativeStock = req.AllowNegativeStock

	if err := h.warehouses.Create(c.Request.Context(), wh); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wh.ID.String())
}

// UpdateWarehouse handles PUT /warehouses/:id
func (h *CatalogHandler) UpdateWarehouse(c *gin.Context) {
	warehouseID, ok := h.parsePathID(c, "warehouse")
	if !ok {
		return
	}

	var req dto.WarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	wh, err := h.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	wh.Code = req.Code
	wh.Name = req.Name
	if req.Type != "" {
		wh.Type = warehouse.WarehouseType(req.Type)
	}
	wh.Address = req.Address
	wh.AllowNegativeStock = req.AllowNegativeStock

	if err := h.warehouses.Update(ctx, wh); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWarehouse(wh))
}

// GetWarehouse handles GET /warehouses/:id
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	warehouseID, ok := h.parsePathID(c, "warehouse")
	if !ok {
		return
	}

	wh, err := h.warehouses.GetByID(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWarehouse(wh))
}

// ListWarehouses handles GET /warehouses
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.warehouses.List(c.Request.Context(), c.Query("activeOnly") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"warehouses": dto.FromWarehouses(warehouses),
		"meta":       dto.ListMeta{Count: len(warehouses)},
	})
}

// CreateLocation handles POST /warehouses/:id/locations
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	warehouseID, ok := h.parsePathID(c, "warehouse")
	if !ok {
		return
	}

	var req dto.LocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc := warehouse.NewLocation(warehouseID, req.Code, req.Name)
	if err := h.warehouses.CreateLocation(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, loc.ID.String())
}

// ListLocations handles GET /warehouses/:id/locations
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	warehouseID, ok := h.parsePathID(c, "warehouse")
	if !ok {
		return
	}

	locations, err := h.warehouses.ListLocations(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.LocationResponse, len(locations))
	for i, loc := range locations {
		out[i] = dto.FromLocation(loc)
	}
	h.OK(c, gin.H{"locations": out, "meta": dto.ListMeta{Count: len(out)}})
}
