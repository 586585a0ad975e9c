package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/L-Y-21/twist-erp-sub001/internal/domain/posting"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/http/v1/dto"
)

// PostingHandler handles stock adjustment and transfer postings.
type PostingHandler struct {
	*BaseHandler
	service *posting.Service
}

// NewPostingHandler creates a new posting handler.
func NewPostingHandler(base *BaseHandler, service *posting.Service) *PostingHandler {
	return &PostingHandler{
		BaseHandler: base,
		service:     service,
	}
}

// CreateAdjustment handles POST /stock/adjustments
func (h *PostingHandler) CreateAdjustment(c *gin.Context) {
	var req dto.AdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToAdjustmentInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	txns, err := h.service.CreateAdjustment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"documentNumber": txns[0].Number,
		"transactions":   dto.FromStockTransactions(txns),
	})
}

// CreateTransfer handles POST /stock/transfers
func (h *PostingHandler) CreateTransfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToTransferInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	txns, err := h.service.CreateTransfer(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"documentNumber": txns[0].Number,
		"transactions":   dto.FromStockTransactions(txns),
	})
}
