package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/ledger"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/http/v1/dto"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
)

// AuditReader retrieves the recorded posting history of a document.
type AuditReader interface {
	GetHistory(ctx context.Context, number string, limit int) ([]postgres.AuditEntry, error)
}

// StockHandler handles read access to the stock ledger.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
	audit   AuditReader
}

// NewStockHandler creates a new stock ledger handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service, audit AuditReader) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// parseOptionalID parses an optional id query parameter. A missing
// parameter yields (nil, true); a malformed one registers a validation
// error and yields (nil, false).
func (h *StockHandler) parseOptionalID(c *gin.Context, key string) (*id.ID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key+" format"))
		return nil, false
	}
	return &parsed, true
}

// GetLevels handles GET /stock/levels
func (h *StockHandler) GetLevels(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, ok := h.parseOptionalID(c, "itemId")
	if !ok {
		return
	}
	warehouseID, ok := h.parseOptionalID(c, "warehouseId")
	if !ok {
		return
	}

	filter := ledger.LevelFilter{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Category:    c.Query("category"),
		ExcludeZero: c.Query("excludeZero") != "false",
		Limit:       h.ParseIntQuery(c, "limit", 100),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	levels, err := h.service.GetStockLevels(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.StockLevelResponse, len(levels))
	for i, l := range levels {
		out[i] = dto.FromStockLevel(l)
	}
	h.OK(c, gin.H{
		"levels": out,
		"meta":   dto.ListMeta{Count: len(out), Limit: filter.Limit, Offset: filter.Offset},
	})
}

// GetTransactions handles GET /stock/transactions
func (h *StockHandler) GetTransactions(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, ok := h.parseOptionalID(c, "itemId")
	if !ok {
		return
	}
	warehouseID, ok := h.parseOptionalID(c, "warehouseId")
	if !ok {
		return
	}

	filter := ledger.TransactionFilter{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Limit:       h.ParseIntQuery(c, "limit", 100),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("type"); raw != "" {
		t := ledger.TxnType(raw)
		filter.Type = &t
	}
	if raw := c.Query("reason"); raw != "" {
		r := ledger.Reason(raw)
		if !r.Valid() {
			h.Error(c, apperror.NewValidation("unknown reason code").WithDetail("reason", raw))
			return
		}
		filter.Reason = &r
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from date, expected RFC3339"))
			return
		}
		filter.FromDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to date, expected RFC3339"))
			return
		}
		filter.ToDate = &to
	}

	txns, err := h.service.GetStockTransactions(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"transactions": dto.FromStockTransactions(txns),
		"meta":         dto.ListMeta{Count: len(txns), Limit: filter.Limit, Offset: filter.Offset},
	})
}

// GetItemSummary handles GET /stock/items/:id/summary
func (h *StockHandler) GetItemSummary(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid item id format"))
		return
	}

	summary, err := h.service.GetItemSummary(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItemSummary(summary))
}

// Reconcile handles GET /stock/reconcile
func (h *StockHandler) Reconcile(c *gin.Context) {
	itemID, err := id.Parse(c.Query("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}
	warehouseID, err := id.Parse(c.Query("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	key := ledger.LevelKey{
		ItemID:       itemID,
		WarehouseID:  warehouseID,
		BatchNumber:  c.Query("batchNumber"),
		SerialNumber: c.Query("serialNumber"),
	}
	if raw := c.Query("locationId"); raw != "" {
		locationID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid locationId format"))
			return
		}
		key.LocationID = locationID
	}

	rec, err := h.service.Reconcile(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReconciliation(rec))
}

// GetDocumentHistory handles GET /stock/documents/:number/history
func (h *StockHandler) GetDocumentHistory(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.Error(c, apperror.NewValidation("document number is required"))
		return
	}
	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.audit.GetHistory(c.Request.Context(), number, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"entries": dto.FromAuditEntries(entries)})
}
