package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
)

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

// fakeRepo serves canned levels and transactions for the read service.
type fakeRepo struct {
	levels []StockLevel
	txns   []StockTransaction
}

func (r *fakeRepo) AppendTransactions(_ context.Context, txs []StockTransaction) error {
	r.txns = append(r.txns, txs...)
	return nil
}

func (r *fakeRepo) GetBalance(_ context.Context, key LevelKey) (StockLevel, error) {
	for _, l := range r.levels {
		if l.LevelKey == key {
			return l, nil
		}
	}
	return NewStockLevel(key), nil
}

func (r *fakeRepo) GetBalanceForUpdate(ctx context.Context, key LevelKey) (StockLevel, error) {
	return r.GetBalance(ctx, key)
}

func (r *fakeRepo) UpsertBalance(_ context.Context, key LevelKey, delta types.Quantity, newUnitCost types.Money) (StockLevel, error) {
	for i := range r.levels {
		if r.levels[i].LevelKey == key {
			r.levels[i].Apply(delta, newUnitCost)
			return r.levels[i], nil
		}
	}
	level := NewStockLevel(key)
	level.Apply(delta, newUnitCost)
	r.levels = append(r.levels, level)
	return level, nil
}

func (r *fakeRepo) ListLevels(_ context.Context, filter LevelFilter) ([]StockLevel, error) {
	var out []StockLevel
	for _, l := range r.levels {
		if filter.ItemID != nil && l.ItemID != *filter.ItemID {
			continue
		}
		if filter.WarehouseID != nil && l.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.ExcludeZero && l.Quantity.IsZero() {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeRepo) ListTransactions(_ context.Context, filter TransactionFilter) ([]StockTransaction, error) {
	var out []StockTransaction
	for _, t := range r.txns {
		if filter.ItemID != nil && t.ItemID != *filter.ItemID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeRepo) SumTransactions(_ context.Context, key LevelKey) (types.Quantity, error) {
	var sum types.Quantity
	for _, t := range r.txns {
		if t.LevelKey == key {
			sum += t.SignedQuantity()
		}
	}
	return sum, nil
}

func level(itemID, warehouseID id.ID, batch string, quantity types.Quantity, unitCost string) StockLevel {
	l := NewStockLevel(LevelKey{ItemID: itemID, WarehouseID: warehouseID, BatchNumber: batch})
	l.Apply(quantity, types.MustMoney(unitCost))
	return l
}

func TestGetItemSummary(t *testing.T) {
	itemID := id.New()
	mainWh := id.New()
	siteWh := id.New()

	repo := &fakeRepo{levels: []StockLevel{
		level(itemID, mainWh, "B1", qty(60), "10"),
		level(itemID, mainWh, "B2", qty(40), "10"),
		level(itemID, siteWh, "", qty(50), "16"),
		level(id.New(), mainWh, "", qty(999), "1"), // other item, must not leak in
	}}
	svc := NewService(repo)

	summary, err := svc.GetItemSummary(context.Background(), itemID)
	require.NoError(t, err)

	assert.Equal(t, qty(150), summary.TotalQuantity)
	assert.True(t, summary.TotalValue.Equal(types.MustMoney("1800")), "total value %s", summary.TotalValue)
	assert.True(t, summary.AverageCost.Equal(types.MustMoney("12")), "average cost %s", summary.AverageCost)

	// Two batches at the main warehouse collapse into one breakdown entry.
	require.Len(t, summary.Warehouses, 2)
	main := summary.Warehouses[0]
	assert.Equal(t, mainWh, main.WarehouseID)
	assert.Equal(t, qty(100), main.Quantity)
	assert.True(t, main.UnitCost.Equal(types.MustMoney("10")))
	assert.Equal(t, siteWh, summary.Warehouses[1].WarehouseID)
}

func TestGetItemSummaryEmpty(t *testing.T) {
	svc := NewService(&fakeRepo{})

	summary, err := svc.GetItemSummary(context.Background(), id.New())
	require.NoError(t, err)

	assert.True(t, summary.TotalQuantity.IsZero())
	assert.True(t, summary.AverageCost.IsZero())
	assert.Empty(t, summary.Warehouses)
}

func TestReconcile(t *testing.T) {
	key := LevelKey{ItemID: id.New(), WarehouseID: id.New()}
	postedAt := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	repo := &fakeRepo{}
	repo.txns = []StockTransaction{
		NewStockTransaction("ADJ2603000001", TxnReceipt, ReasonOpening, key, qty(100), types.MustMoney("10"), postedAt, "tester"),
		NewStockTransaction("ADJ2603000002", TxnIssue, ReasonConsumption, key, qty(30), types.MustMoney("10"), postedAt, "tester"),
	}
	repo.levels = []StockLevel{level(key.ItemID, key.WarehouseID, "", qty(70), "10")}

	svc := NewService(repo)

	rec, err := svc.Reconcile(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, qty(70), rec.LedgerQuantity)
	assert.Equal(t, qty(70), rec.BalanceQuantity)

	// Corrupt the balance; the mismatch must be reported, not hidden.
	repo.levels[0].Quantity = qty(65)
	rec, err = svc.Reconcile(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, rec.Consistent)
	assert.Equal(t, qty(70), rec.LedgerQuantity)
	assert.Equal(t, qty(65), rec.BalanceQuantity)
}

func TestReconcileAbsentKey(t *testing.T) {
	svc := NewService(&fakeRepo{})

	rec, err := svc.Reconcile(context.Background(), LevelKey{ItemID: id.New(), WarehouseID: id.New()})
	require.NoError(t, err)
	assert.True(t, rec.Consistent, "an untouched key reconciles trivially")
	assert.True(t, rec.LedgerQuantity.IsZero())
}

func TestStockLevelApply(t *testing.T) {
	l := NewStockLevel(LevelKey{ItemID: id.New(), WarehouseID: id.New()})
	l.ReservedQuantity = qty(10)

	l.Apply(qty(100), types.MustMoney("12.5"))

	assert.Equal(t, qty(100), l.Quantity)
	assert.Equal(t, qty(90), l.AvailableQuantity)
	assert.True(t, l.TotalValue.Equal(types.MustMoney("1250")), "total value %s", l.TotalValue)
	assert.False(t, l.LastMovementAt.IsZero())

	l.Apply(qty(100).Neg(), types.MustMoney("12.5"))
	assert.True(t, l.Quantity.IsZero())
	assert.Equal(t, qty(10).Neg(), l.AvailableQuantity)
	assert.True(t, l.TotalValue.IsZero())
}

func TestSignedQuantity(t *testing.T) {
	key := LevelKey{ItemID: id.New(), WarehouseID: id.New()}
	postedAt := time.Now().UTC()

	for _, tt := range []struct {
		txnType TxnType
		want    types.Quantity
	}{
		{TxnReceipt, qty(5)},
		{TxnTransferIn, qty(5)},
		{TxnIssue, qty(5).Neg()},
		{TxnTransferOut, qty(5).Neg()},
	} {
		txn := NewStockTransaction("N", tt.txnType, ReasonAdjustment, key, qty(5), types.MustMoney("1"), postedAt, "")
		assert.Equal(t, tt.want, txn.SignedQuantity(), string(tt.txnType))
	}
}
