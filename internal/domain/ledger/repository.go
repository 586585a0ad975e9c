package ledger

import (
	"context"
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
)

// Repository defines the durable operations of the stock ledger store.
//
// AppendTransactions and UpsertBalance must run on the same ambient
// transaction: a ledger row and its balance update are never persisted
// independently.
type Repository interface {
	// AppendTransactions batch inserts ledger events (pure insert; fails
	// only on constraint violation).
	AppendTransactions(ctx context.Context, txs []StockTransaction) error

	// GetBalance returns the current balance for a key. An absent key
	// yields a zero-quantity StockLevel for that key, not an error.
	GetBalance(ctx context.Context, key LevelKey) (StockLevel, error)

	// GetBalanceForUpdate is GetBalance with a row lock; concurrent
	// postings on the same key serialize here, including the first
	// movements on a key not seen before. Must be called inside a
	// transaction.
	GetBalanceForUpdate(ctx context.Context, key LevelKey) (StockLevel, error)

	// UpsertBalance reads-or-creates the row for key, applies the signed
	// delta at the new running cost, recomputes availableQuantity and
	// totalValue and writes back. Returns the updated row.
	UpsertBalance(ctx context.Context, key LevelKey, delta types.Quantity, newUnitCost types.Money) (StockLevel, error)

	// ListLevels returns balance rows matching the filter.
	ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, error)

	// ListTransactions returns ledger events matching the filter, newest first.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]StockTransaction, error)

	// SumTransactions returns the sum of signed quantities of all events
	// for a key (reconciliation source of truth).
	SumTransactions(ctx context.Context, key LevelKey) (types.Quantity, error)
}

// LevelFilter narrows balance queries.
type LevelFilter struct {
	ItemID      *id.ID
	WarehouseID *id.ID
	Category    string
	ExcludeZero bool
	Limit       int
	Offset      int
}

// TransactionFilter narrows ledger queries.
type TransactionFilter struct {
	ItemID      *id.ID
	WarehouseID *id.ID
	Type        *TxnType
	Reason      *Reason
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// ItemSummary aggregates an item's stock across warehouses.
type ItemSummary struct {
	ItemID        id.ID                `json:"itemId"`
	TotalQuantity types.Quantity       `json:"totalQuantity"`
	TotalValue    types.Money          `json:"totalValue"`
	AverageCost   types.Money          `json:"averageCost"`
	Warehouses    []WarehouseBreakdown `json:"warehouses"`
}

// WarehouseBreakdown is the per-warehouse slice of an item summary.
type WarehouseBreakdown struct {
	WarehouseID id.ID          `json:"warehouseId"`
	Quantity    types.Quantity `json:"quantity"`
	UnitCost    types.Money    `json:"unitCost"`
	TotalValue  types.Money    `json:"totalValue"`
}

// Reconciliation compares a key's materialized balance against the sum of
// its ledger events.
type Reconciliation struct {
	Key             LevelKey       `json:"key"`
	LedgerQuantity  types.Quantity `json:"ledgerQuantity"`
	BalanceQuantity types.Quantity `json:"balanceQuantity"`
	Consistent      bool           `json:"consistent"`
}
