package ledger

import (
	"context"
	"fmt"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/pkg/logger"
)

// Service provides the read side of the stock ledger. Mutations go through
// the posting service, which drives the repository inside one unit of work.
type Service struct {
	repo Repository
}

// NewService creates a new ledger query service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetStockLevels returns balance rows matching the filter.
func (s *Service) GetStockLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, error) {
	return s.repo.ListLevels(ctx, filter)
}

// GetStockTransactions returns ledger events matching the filter.
func (s *Service) GetStockTransactions(ctx context.Context, filter TransactionFilter) ([]StockTransaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// GetItemSummary aggregates an item's stock across warehouses: total
// quantity, total value, value-weighted average cost and a per-warehouse
// breakdown.
func (s *Service) GetItemSummary(ctx context.Context, itemID id.ID) (ItemSummary, error) {
	levels, err := s.repo.ListLevels(ctx, LevelFilter{ItemID: &itemID})
	if err != nil {
		return ItemSummary{}, fmt.Errorf("list levels: %w", err)
	}

	summary := ItemSummary{
		ItemID:      itemID,
		TotalValue:  types.ZeroMoney(),
		AverageCost: types.ZeroMoney(),
	}

	// Keys sharing a warehouse (different locations/batches) collapse into
	// one breakdown entry.
	byWarehouse := make(map[id.ID]*WarehouseBreakdown)
	order := make([]id.ID, 0, len(levels))

	for _, lvl := range levels {
		summary.TotalQuantity += lvl.Quantity
		summary.TotalValue = summary.TotalValue.Add(lvl.TotalValue)

		wb, ok := byWarehouse[lvl.WarehouseID]
		if !ok {
			wb = &WarehouseBreakdown{WarehouseID: lvl.WarehouseID, UnitCost: types.ZeroMoney(), TotalValue: types.ZeroMoney()}
			byWarehouse[lvl.WarehouseID] = wb
			order = append(order, lvl.WarehouseID)
		}
		wb.Quantity += lvl.Quantity
		wb.TotalValue = wb.TotalValue.Add(lvl.TotalValue)
	}

	for _, warehouseID := range order {
		wb := byWarehouse[warehouseID]
		if wb.Quantity.IsPositive() {
			wb.UnitCost = wb.TotalValue.Div(wb.Quantity.Decimal()).Round(6)
		}
		summary.Warehouses = append(summary.Warehouses, *wb)
	}

	if summary.TotalQuantity.IsPositive() {
		summary.AverageCost = summary.TotalValue.Div(summary.TotalQuantity.Decimal()).Round(6)
	}

	return summary, nil
}

// Reconcile verifies that the sum of signed ledger quantities for a key
// equals the key's materialized balance.
func (s *Service) Reconcile(ctx context.Context, key LevelKey) (Reconciliation, error) {
	ledgerQty, err := s.repo.SumTransactions(ctx, key)
	if err != nil {
		return Reconciliation{}, fmt.Errorf("sum transactions: %w", err)
	}

	balance, err := s.repo.GetBalance(ctx, key)
	if err != nil {
		return Reconciliation{}, fmt.Errorf("get balance: %w", err)
	}

	result := Reconciliation{
		Key:             key,
		LedgerQuantity:  ledgerQty,
		BalanceQuantity: balance.Quantity,
		Consistent:      ledgerQty == balance.Quantity,
	}

	if !result.Consistent {
		logger.Warn(ctx, "stock balance out of sync with ledger",
			"item_id", key.ItemID,
			"warehouse_id", key.WarehouseID,
			"ledger_quantity", ledgerQty,
			"balance_quantity", balance.Quantity,
		)
	}

	return result, nil
}
