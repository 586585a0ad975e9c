package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	appctx "github.com/L-Y-21/twist-erp-sub001/internal/core/context"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/procurement"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/http/v1/dto"
)

// ProcurementHandler handles goods receiving against purchase orders.
type ProcurementHandler struct {
	*BaseHandler
	service *procurement.Service
	grns    procurement.GRNRepository
}

// NewProcurementHandler creates a new procurement handler.
func NewProcurementHandler(base *BaseHandler, service *procurement.Service, grns procurement.GRNRepository) *ProcurementHandler {
	return &ProcurementHandler{
		BaseHandler: base,
		service:     service,
		grns:        grns,
	}
}

// CreateGRN handles POST /grns
func (h *ProcurementHandler) CreateGRN(c *gin.Context) {
	var req dto.CreateGRNRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToCreateGRNInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	grn, err := h.service.CreateGRN(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, grn.ID.String())
}

// GetGRN handles GET /grns/:id
func (h *ProcurementHandler) GetGRN(c *gin.Context) {
	grnID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid grn id format"))
		return
	}

	grn, err := h.service.GetGRN(c.Request.Context(), grnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGRN(grn))
}

// UpdateInspection handles POST /grns/:id/inspect
func (h *ProcurementHandler) UpdateInspection(c *gin.Context) {
	grnID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid grn id format"))
		return
	}

	var req dto.InspectionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itemID, err := id.Parse(req.GRNItemID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid grnItemId format"))
		return
	}

	in := procurement.InspectionInput{
		GRNID:          grnID,
		GRNItemID:      itemID,
		AcceptQuantity: req.AcceptQuantity,
		RejectQuantity: req.RejectQuantity,
		Hold:           req.Hold,
		Notes:          req.Notes,
		Actor:          appctx.ActorID(c.Request.Context()),
	}

	grn, err := h.service.UpdateInspection(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGRN(grn))
}

// GetPurchaseOrder handles GET /purchase-orders/:id
func (h *ProcurementHandler) GetPurchaseOrder(c *gin.Context) {
	poID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid purchase order id format"))
		return
	}

	po, err := h.service.GetPurchaseOrder(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrder(po))
}

// ListPurchaseOrderGRNs handles GET /purchase-orders/:id/grns
func (h *ProcurementHandler) ListPurchaseOrderGRNs(c *gin.Context) {
	poID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid purchase order id format"))
		return
	}

	grns, err := h.grns.ListByPurchaseOrder(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.GRNResponse, len(grns))
	for i, grn := range grns {
		out[i] = dto.FromGRN(grn)
	}
	h.OK(c, gin.H{"grns": out, "meta": dto.ListMeta{Count: len(out)}})
}
