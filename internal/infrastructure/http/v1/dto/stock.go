package dto

import (
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/ledger"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/posting"
)

// StockLevelResponse is one balance row.
type StockLevelResponse struct {
	ItemID            string  `json:"itemId"`
	WarehouseID       string  `json:"warehouseId"`
	LocationID        string  `json:"locationId,omitempty"`
	BatchNumber       string  `json:"batchNumber,omitempty"`
	SerialNumber      string  `json:"serialNumber,omitempty"`
	Quantity          string  `json:"quantity"`
	ReservedQuantity  string  `json:"reservedQuantity"`
	AvailableQuantity string  `json:"availableQuantity"`
	UnitCost          string  `json:"unitCost"`
	TotalValue        string  `json:"totalValue"`
	LastMovementAt    *string `json:"lastMovementAt,omitempty"`
}

// FromStockLevel converts a balance row.
func FromStockLevel(l ledger.StockLevel) StockLevelResponse {
	resp := StockLevelResponse{
		ItemID:            l.ItemID.String(),
		WarehouseID:       l.WarehouseID.String(),
		BatchNumber:       l.BatchNumber,
		SerialNumber:      l.SerialNumber,
		Quantity:          l.Quantity.String(),
		ReservedQuantity:  l.ReservedQuantity.String(),
		AvailableQuantity: l.AvailableQuantity.String(),
		UnitCost:          l.UnitCost.String(),
		TotalValue:        l.TotalValue.String(),
	}
	if !id.IsNil(l.LocationID) {
		resp.LocationID = l.LocationID.String()
	}
	if !l.LastMovementAt.IsZero() {
		s := l.LastMovementAt.Format(time.RFC3339)
		resp.LastMovementAt = &s
	}
	return resp
}

// StockTransactionResponse is one ledger event.
type StockTransactionResponse struct {
	ID                     string `json:"id"`
	Number                 string `json:"number"`
	Type                   string `json:"type"`
	Reason                 string `json:"reason"`
	ItemID                 string `json:"itemId"`
	WarehouseID            string `json:"warehouseId"`
	LocationID             string `json:"locationId,omitempty"`
	BatchNumber            string `json:"batchNumber,omitempty"`
	SerialNumber           string `json:"serialNumber,omitempty"`
	CounterpartWarehouseID string `json:"counterpartWarehouseId,omitempty"`
	Quantity               string `json:"quantity"`
	UnitCost               string `json:"unitCost"`
	TotalValue             string `json:"totalValue"`
	Reference              string `json:"reference,omitempty"`
	Remarks                string `json:"remarks,omitempty"`
	PostedAt               string `json:"postedAt"`
	CreatedBy              string `json:"createdBy"`
}

// FromStockTransaction converts a ledger event.
func FromStockTransaction(t ledger.StockTransaction) StockTransactionResponse {
	resp := StockTransactionResponse{
		ID:           t.ID.String(),
		Number:       t.Number,
		Type:         string(t.Type),
		Reason:       string(t.Reason),
		ItemID:       t.ItemID.String(),
		WarehouseID:  t.WarehouseID.String(),
		BatchNumber:  t.BatchNumber,
		SerialNumber: t.SerialNumber,
		Quantity:     t.Quantity.String(),
		UnitCost:     t.UnitCost.String(),
		TotalValue:   t.TotalValue.String(),
		Reference:    t.Reference,
		Remarks:      t.Remarks,
		PostedAt:     t.PostedAt.Format(time.RFC3339),
		CreatedBy:    t.CreatedBy,
	}
	if !id.IsNil(t.LocationID) {
		resp.LocationID = t.LocationID.String()
	}
	if t.CounterpartWarehouseID != nil {
		resp.CounterpartWarehouseID = t.CounterpartWarehouseID.String()
	}
	return resp
}

// FromStockTransactions converts a slice of ledger events.
func FromStockTransactions(txs []ledger.StockTransaction) []StockTransactionResponse {
	out := make([]StockTransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = FromStockTransaction(t)
	}
	return out
}

// ItemSummaryResponse aggregates an item across warehouses.
type ItemSummaryResponse struct {
	ItemID        string                       `json:"itemId"`
	TotalQuantity string                       `json:"totalQuantity"`
	TotalValue    string                       `json:"totalValue"`
	AverageCost   string                       `json:"averageCost"`
	Warehouses    []WarehouseBreakdownResponse `json:"warehouses"`
}

// WarehouseBreakdownResponse is one warehouse slice of an item summary.
type WarehouseBreakdownResponse struct {
	WarehouseID string `json:"warehouseId"`
	Quantity    string `json:"quantity"`
	UnitCost    string `json:"unitCost"`
	TotalValue  string `json:"totalValue"`
}

// FromItemSummary converts an item summary.
func FromItemSummary(s ledger.ItemSummary) ItemSummaryResponse {
	resp := ItemSummaryResponse{
		ItemID:        s.ItemID.String(),
		TotalQuantity: s.TotalQuantity.String(),
		TotalValue:    s.TotalValue.String(),
		AverageCost:   s.AverageCost.String(),
		Warehouses:    make([]WarehouseBreakdownResponse, len(s.Warehouses)),
	}
	for i, w := range s.Warehouses {
		resp.Warehouses[i] = WarehouseBreakdownResponse{
			WarehouseID: w.WarehouseID.String(),
			Quantity:    w.Quantity.String(),
			UnitCost:    w.UnitCost.String(),
			TotalValue:  w.TotalValue.String(),
		}
	}
	return resp
}

// ReconciliationResponse compares the ledger sum against the balance row.
type ReconciliationResponse struct {
	ItemID          string `json:"itemId"`
	WarehouseID     string `json:"warehouseId"`
	LedgerQuantity  string `json:"ledgerQuantity"`
	BalanceQuantity string `json:"balanceQuantity"`
	Consistent      bool   `json:"consistent"`
}

// FromReconciliation converts a reconciliation result.
func FromReconciliation(r ledger.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ItemID:          r.Key.ItemID.String(),
		WarehouseID:     r.Key.WarehouseID.String(),
		LedgerQuantity:  r.LedgerQuantity.String(),
		BalanceQuantity: r.BalanceQuantity.String(),
		Consistent:      r.Consistent,
	}
}

// AdjustmentLineRequest is one line of a manual adjustment. Quantity is
// signed: positive receives, negative issues.
type AdjustmentLineRequest struct {
	ItemID       string         `json:"itemId" binding:"required"`
	WarehouseID  string         `json:"warehouseId" binding:"required"`
	LocationID   string         `json:"locationId"`
	BatchNumber  string         `json:"batchNumber"`
	SerialNumber string         `json:"serialNumber"`
	Quantity     types.Quantity `json:"quantity"`
	UnitCost     *types.Money   `json:"unitCost"`
	Remarks      string         `json:"remarks"`
}

// AdjustmentRequest creates a manual stock adjustment.
type AdjustmentRequest struct {
	Date      *time.Time              `json:"date"`
	Reason    string                  `json:"reason"`
	Reference string                  `json:"reference"`
	Lines     []AdjustmentLineRequest `json:"lines" binding:"required"`
}

// ToAdjustmentInput converts the request to the posting input.
func (r *AdjustmentRequest) ToAdjustmentInput() (posting.AdjustmentInput, error) {
	in := posting.AdjustmentInput{
		Reason:    ledger.Reason(r.Reason),
		Reference: r.Reference,
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	for _, lr := range r.Lines {
		line, err := lr.toLine()
		if err != nil {
			return posting.AdjustmentInput{}, err
		}
		in.Lines = append(in.Lines, line)
	}
	return in, nil
}

func (r *AdjustmentLineRequest) toLine() (posting.AdjustmentLine, error) {
	itemID, err := id.Parse(r.ItemID)
	if err != nil {
		return posting.AdjustmentLine{}, err
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return posting.AdjustmentLine{}, err
	}
	line := posting.AdjustmentLine{
		ItemID:       itemID,
		WarehouseID:  warehouseID,
		BatchNumber:  r.BatchNumber,
		SerialNumber: r.SerialNumber,
		Quantity:     r.Quantity,
		UnitCost:     types.ZeroMoney(),
		Remarks:      r.Remarks,
	}
	if r.LocationID != "" {
		line.LocationID, err = id.Parse(r.LocationID)
		if err != nil {
			return posting.AdjustmentLine{}, err
		}
	}
	if r.UnitCost != nil {
		line.UnitCost = *r.UnitCost
	}
	return line, nil
}

// TransferLineRequest is one line of a transfer.
type TransferLineRequest struct {
	ItemID       string         `json:"itemId" binding:"required"`
	BatchNumber  string         `json:"batchNumber"`
	SerialNumber string         `json:"serialNumber"`
	Quantity     types.Quantity `json:"quantity"`
	Remarks      string         `json:"remarks"`
}

// TransferRequest moves stock between warehouses.
type TransferRequest struct {
	FromWarehouseID string                `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   string                `json:"toWarehouseId" binding:"required"`
	FromLocationID  string                `json:"fromLocationId"`
	ToLocationID    string                `json:"toLocationId"`
	Date            *time.Time            `json:"date"`
	Reference       string                `json:"reference"`
	Lines           []TransferLineRequest `json:"lines" binding:"required"`
}

// ToTransferInput converts the request to the posting input.
func (r *TransferRequest) ToTransferInput() (posting.TransferInput, error) {
	from, err := id.Parse(r.FromWarehouseID)
	if err != nil {
		return posting.TransferInput{}, err
	}
	to, err := id.Parse(r.ToWarehouseID)
	if err != nil {
		return posting.TransferInput{}, err
	}
	in := posting.TransferInput{
		FromWarehouseID: from,
		ToWarehouseID:   to,
		Reference:       r.Reference,
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	if r.FromLocationID != "" {
		in.FromLocationID, err = id.Parse(r.FromLocationID)
		if err != nil {
			return posting.TransferInput{}, err
		}
	}
	if r.ToLocationID != "" {
		in.ToLocationID, err = id.Parse(r.ToLocationID)
		if err != nil {
			return posting.TransferInput{}, err
		}
	}
	for _, lr := range r.Lines {
		itemID, err := id.Parse(lr.ItemID)
		if err != nil {
			return posting.TransferInput{}, err
		}
		in.Lines = append(in.Lines, posting.TransferLine{
			ItemID:       itemID,
			BatchNumber:  lr.BatchNumber,
			SerialNumber: lr.SerialNumber,
			Quantity:     lr.Quantity,
			Remarks:      lr.Remarks,
		})
	}
	return in, nil
}
