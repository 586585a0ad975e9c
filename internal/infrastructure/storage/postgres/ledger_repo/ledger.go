// Package ledger_repo provides the PostgreSQL implementation of the stock
// ledger store.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/ledger"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
)

const (
	transactionsTable = "stock_transactions"
	levelsTable       = "stock_levels"
)

var transactionColumns = []string{
	"id", "number", "type", "reason",
	"item_id", "warehouse_id", "location_id", "batch_number", "serial_number",
	"counterpart_warehouse_id", "counterpart_location_id",
	"quantity", "unit_cost", "total_value",
	"reference", "remarks", "posted_at", "created_by", "created_at",
}

var levelColumns = []string{
	"item_id", "warehouse_id", "location_id", "batch_number", "serial_number",
	"quantity", "reserved_quantity", "available_quantity",
	"unit_cost", "total_value", "last_movement_at", "updated_at",
}

// Compile-time check.
var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository on PostgreSQL.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// AppendTransactions batch inserts ledger events. Inside a transaction the
// COPY protocol is used; outside, a plain multi-row insert.
func (r *LedgerRepo) AppendTransactions(ctx context.Context, txs []ledger.StockTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	if t := r.txManager.GetTx(ctx); t != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(txs))
		for i := range txs {
			rows = append(rows, transactionRow(&txs[i]))
		}
		if _, err := inserter.CopyFromSlice(ctx, transactionsTable, transactionColumns, rows); err != nil {
			return postgres.MapError(fmt.Errorf("copy transactions: %w", err), "stock transaction", txs[0].Number)
		}
		return nil
	}

	q := r.builder.Insert(transactionsTable).Columns(transactionColumns...)
	for i := range txs {
		q = q.Values(transactionRow(&txs[i])...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert transactions: %w", err), "stock transaction", txs[0].Number)
	}

	return nil
}

func transactionRow(t *ledger.StockTransaction) []any {
	return []any{
		t.ID, t.Number, t.Type, t.Reason,
		t.ItemID, t.WarehouseID, t.LocationID, t.BatchNumber, t.SerialNumber,
		t.CounterpartWarehouseID, t.CounterpartLocationID,
		t.Quantity, t.UnitCost, t.TotalValue,
		t.Reference, t.Remarks, t.PostedAt, t.CreatedBy, t.CreatedAt,
	}
}

// GetBalance returns the current balance for a key. An absent key yields a
// zero-quantity level, not an error.
func (r *LedgerRepo) GetBalance(ctx context.Context, key ledger.LevelKey) (ledger.StockLevel, error) {
	return r.getBalance(ctx, key, false)
}

// GetBalanceForUpdate returns the balance with a row lock; concurrent
// postings on the same key serialize here. An absent key is materialized
// as a zero-quantity row first, so the very first movements on a key lock
// against each other too instead of both reading empty state.
func (r *LedgerRepo) GetBalanceForUpdate(ctx context.Context, key ledger.LevelKey) (ledger.StockLevel, error) {
	if err := r.ensureLevelRow(ctx, key); err != nil {
		return ledger.StockLevel{}, err
	}
	return r.getBalance(ctx, key, true)
}

func (r *LedgerRepo) ensureLevelRow(ctx context.Context, key ledger.LevelKey) error {
	sql := `
		INSERT INTO stock_levels (item_id, warehouse_id, location_id, batch_number, serial_number)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id, warehouse_id, location_id, batch_number, serial_number) DO NOTHING
	`
	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql, key.ItemID, key.WarehouseID, key.LocationID, key.BatchNumber, key.SerialNumber)
	if err != nil {
		return postgres.MapError(fmt.Errorf("ensure level row: %w", err), "stock level", key.ItemID.String())
	}
	return nil
}

func (r *LedgerRepo) getBalance(ctx context.Context, key ledger.LevelKey, forUpdate bool) (ledger.StockLevel, error) {
	q := r.builder.Select(levelColumns...).
		From(levelsTable).
		Where(keyEq(key)).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return ledger.StockLevel{}, fmt.Errorf("build query: %w", err)
	}

	var level ledger.StockLevel
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &level, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.NewStockLevel(key), nil
		}
		return ledger.StockLevel{}, postgres.MapError(fmt.Errorf("get balance: %w", err), "stock level", key.ItemID.String())
	}

	return level, nil
}

// UpsertBalance applies a signed delta at the new running cost atomically.
// The derived columns are recomputed in the same statement so the row
// invariants hold even outside the Go process.
func (r *LedgerRepo) UpsertBalance(ctx context.Context, key ledger.LevelKey, delta types.Quantity, newUnitCost types.Money) (ledger.StockLevel, error) {
	level := ledger.NewStockLevel(key)
	level.Apply(delta, newUnitCost)

	sql := `
		INSERT INTO stock_levels (
			item_id, warehouse_id, location_id, batch_number, serial_number,
			quantity, reserved_quantity, available_quantity,
			unit_cost, total_value, last_movement_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $6, $7, $8, $9, $9)
		ON CONFLICT (item_id, warehouse_id, location_id, batch_number, serial_number)
		DO UPDATE SET
			quantity           = stock_levels.quantity + EXCLUDED.quantity,
			unit_cost          = EXCLUDED.unit_cost,
			available_quantity = stock_levels.quantity + EXCLUDED.quantity - stock_levels.reserved_quantity,
			total_value        = ((stock_levels.quantity + EXCLUDED.quantity)::numeric / 10000) * EXCLUDED.unit_cost,
			last_movement_at   = EXCLUDED.last_movement_at,
			updated_at         = EXCLUDED.updated_at
		RETURNING item_id, warehouse_id, location_id, batch_number, serial_number,
			quantity, reserved_quantity, available_quantity,
			unit_cost, total_value, last_movement_at, updated_at
	`

	var updated ledger.StockLevel
	querier := r.txManager.GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &updated, sql,
		key.ItemID, key.WarehouseID, key.LocationID, key.BatchNumber, key.SerialNumber,
		delta, newUnitCost, level.TotalValue, level.UpdatedAt,
	)
	if err != nil {
		return ledger.StockLevel{}, postgres.MapError(fmt.Errorf("upsert balance: %w", err), "stock level", key.ItemID.String())
	}

	return updated, nil
}

// ListLevels returns balance rows matching the filter. A category filter
// joins through the items catalog.
func (r *LedgerRepo) ListLevels(ctx context.Context, filter ledger.LevelFilter) ([]ledger.StockLevel, error) {
	cols := make([]string, len(levelColumns))
	for i, c := range levelColumns {
		cols[i] = "l." + c
	}

	q := r.builder.Select(cols...).From(levelsTable + " l")

	if filter.Category != "" {
		q = q.Join("cat_items i ON i.id = l.item_id").
			Where(squirrel.Eq{"i.category": filter.Category})
	}
	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"l.item_id": *filter.ItemID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"l.warehouse_id": *filter.WarehouseID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"l.quantity": int64(0)})
	}

	q = q.OrderBy("l.item_id", "l.warehouse_id")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []ledger.StockLevel
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select levels: %w", err)
	}

	return levels, nil
}

// ListTransactions returns ledger events matching the filter, newest first.
func (r *LedgerRepo) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.StockTransaction, error) {
	q := r.builder.Select(transactionColumns...).From(transactionsTable)

	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *filter.Reason})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"posted_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"posted_at": *filter.ToDate})
	}

	q = q.OrderBy("posted_at DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var txs []ledger.StockTransaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &txs, sql, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	return txs, nil
}

// SumTransactions sums the signed quantities of all events for a key.
func (r *LedgerRepo) SumTransactions(ctx context.Context, key ledger.LevelKey) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN type IN ('issue', 'transfer_out') THEN -quantity ELSE quantity END),
			0
		)
		FROM stock_transactions
		WHERE item_id = $1 AND warehouse_id = $2 AND location_id = $3
		  AND batch_number = $4 AND serial_number = $5
	`

	var sumScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql,
		key.ItemID, key.WarehouseID, key.LocationID, key.BatchNumber, key.SerialNumber,
	).Scan(&sumScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}

func keyEq(key ledger.LevelKey) squirrel.Eq {
	return squirrel.Eq{
		"item_id":       key.ItemID,
		"warehouse_id":  key.WarehouseID,
		"location_id":   key.LocationID,
		"batch_number":  key.BatchNumber,
		"serial_number": key.SerialNumber,
	}
}
