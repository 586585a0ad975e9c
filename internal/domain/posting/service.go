// Package posting orchestrates stock postings: it validates availability,
// computes valuation, appends ledger transactions and updates balances,
// all inside one atomic unit of work.
package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	appctx "github.com/L-Y-21/twist-erp-sub001/internal/core/context"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/numerator"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/tx"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/item"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/warehouse"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/ledger"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/valuation"
	"github.com/L-Y-21/twist-erp-sub001/pkg/logger"
)

// Number prefixes for stock documents.
const (
	PrefixAdjustment = "ADJ"
	PrefixTransfer   = "TRF"
)

// Auditor records posting audit entries. Implementations must join the
// ambient transaction so a rolled-back posting leaves no audit row.
type Auditor interface {
	RecordPosting(ctx context.Context, docType, number, actor string, payload any) error
}

// Service posts stock documents against the ledger.
type Service struct {
	items      item.Repository
	warehouses warehouse.Repository
	ledger     ledger.Repository
	numerator  numerator.Generator
	txManager  tx.Manager
	auditor    Auditor // optional
}

// NewService creates a posting service.
func NewService(
	items item.Repository,
	warehouses warehouse.Repository,
	ledgerRepo ledger.Repository,
	gen numerator.Generator,
	txManager tx.Manager,
	auditor Auditor,
) *Service {
	return &Service{
		items:      items,
		warehouses: warehouses,
		ledger:     ledgerRepo,
		numerator:  gen,
		txManager:  txManager,
		auditor:    auditor,
	}
}

// AdjustmentLine is one item movement of a manual adjustment. Quantity is
// signed: positive posts a receipt, negative posts an issue.
type AdjustmentLine struct {
	ItemID       id.ID
	WarehouseID  id.ID
	LocationID   id.ID
	BatchNumber  string
	SerialNumber string
	Quantity     types.Quantity
	UnitCost     types.Money
	Remarks      string
}

// AdjustmentInput describes a manual stock adjustment.
type AdjustmentInput struct {
	Date      time.Time
	Reason    ledger.Reason
	Reference string
	Actor     string
	Lines     []AdjustmentLine
}

// CreateAdjustment posts a manual adjustment. All lines share one generated
// document number and either post completely or not at all.
func (s *Service) CreateAdjustment(ctx context.Context, in AdjustmentInput) ([]ledger.StockTransaction, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	if in.Reason == "" {
		in.Reason = ledger.ReasonAdjustment
	}
	if !in.Reason.Valid() {
		return nil, apperror.NewValidation("invalid reason").
			WithDetail("field", "reason").
			WithDetail("value", string(in.Reason))
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	actor := s.resolveActor(ctx, in.Actor)

	var posted []ledger.StockTransaction

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(PrefixAdjustment), nil, in.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		warehousePolicy := make(map[id.ID]bool)

		txs := make([]ledger.StockTransaction, 0, len(in.Lines))
		for i, line := range in.Lines {
			txn, err := s.postAdjustmentLine(ctx, number, in, line, actor, warehousePolicy)
			if err != nil {
				return lineError(err, i)
			}
			txs = append(txs, txn)
		}

		if err := s.ledger.AppendTransactions(ctx, txs); err != nil {
			return fmt.Errorf("append transactions: %w", err)
		}

		if err := s.recordAudit(ctx, "StockAdjustment", number, actor, txs); err != nil {
			return err
		}

		posted = txs
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "adjustment posted",
		"number", posted[0].Number,
		"lines", len(posted),
		"reason", in.Reason,
		"actor", actor,
	)

	return posted, nil
}

// postAdjustmentLine validates one line, locks its balance row, runs the
// valuation engine and writes the balance back. The ledger event is
// returned to the caller for the shared batch insert.
func (s *Service) postAdjustmentLine(ctx context.Context, number string, in AdjustmentInput, line AdjustmentLine, actor string, warehousePolicy map[id.ID]bool) (ledger.StockTransaction, error) {
	var zero ledger.StockTransaction

	if line.Quantity.IsZero() {
		return zero, apperror.NewValidation("quantity must not be zero")
	}
	if line.UnitCost.IsNegative() {
		return zero, apperror.NewValidation("unit cost must not be negative")
	}

	it, err := s.items.GetByID(ctx, line.ItemID)
	if err != nil {
		return zero, err
	}
	if err := s.checkTracking(it, line.BatchNumber, line.SerialNumber); err != nil {
		return zero, err
	}

	key := ledger.LevelKey{
		ItemID:       line.ItemID,
		WarehouseID:  line.WarehouseID,
		LocationID:   line.LocationID,
		BatchNumber:  line.BatchNumber,
		SerialNumber: line.SerialNumber,
	}

	// Row lock: concurrent postings on the same key serialize here.
	level, err := s.ledger.GetBalanceForUpdate(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("get balance: %w", err)
	}

	if line.Quantity.IsNegative() {
		allowNegative, err := s.allowNegativeStock(ctx, line.WarehouseID, warehousePolicy)
		if err != nil {
			return zero, err
		}
		if !allowNegative && level.AvailableQuantity < line.Quantity.Abs() {
			return zero, apperror.NewInsufficientStock(
				line.ItemID.String(),
				line.Quantity.Abs().Float64(),
				level.AvailableQuantity.Float64(),
			)
		}
	}

	newCost := valuation.NextUnitCost(it.ValuationMethod, level.Quantity, level.UnitCost, line.Quantity, line.UnitCost)

	txnType := ledger.TxnReceipt
	postingCost := line.UnitCost
	if line.Quantity.IsNegative() {
		txnType = ledger.TxnIssue
		// Issues consume at the running cost, never the caller's cost.
		postingCost = level.UnitCost
	}

	txn := ledger.NewStockTransaction(number, txnType, in.Reason, key, line.Quantity.Abs(), postingCost, in.Date, actor)
	txn.Reference = in.Reference
	txn.Remarks = line.Remarks

	if _, err := s.ledger.UpsertBalance(ctx, key, line.Quantity, newCost); err != nil {
		return zero, fmt.Errorf("upsert balance: %w", err)
	}

	return txn, nil
}

// TransferLine is one item movement of an inter-warehouse transfer.
// Quantity must be positive.
type TransferLine struct {
	ItemID       id.ID
	BatchNumber  string
	SerialNumber string
	Quantity     types.Quantity
	Remarks      string
}

// TransferInput describes an inter-warehouse transfer.
type TransferInput struct {
	FromWarehouseID id.ID
	ToWarehouseID   id.ID
	FromLocationID  id.ID
	ToLocationID    id.ID
	Date            time.Time
	Reference       string
	Actor           string
	Lines           []TransferLine
}

// CreateTransfer moves stock between warehouses. Each line posts a
// transfer_out at the source's running cost and a transfer_in at that same
// cost: transfers never change valuation, only location. Any line failing
// the availability check aborts the whole transfer.
func (s *Service) CreateTransfer(ctx context.Context, in TransferInput) ([]ledger.StockTransaction, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	if in.FromWarehouseID == in.ToWarehouseID && in.FromLocationID == in.ToLocationID {
		return nil, apperror.NewValidation("source and destination must differ")
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	actor := s.resolveActor(ctx, in.Actor)

	// Both endpoints must exist; the destination must be able to receive.
	if _, err := s.warehouses.GetByID(ctx, in.FromWarehouseID); err != nil {
		return nil, err
	}
	dst, err := s.warehouses.GetByID(ctx, in.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	if !dst.CanAcceptStock() {
		return nil, apperror.NewInvalidState("destination warehouse cannot accept stock").
			WithDetail("warehouse_id", dst.ID.String())
	}

	var posted []ledger.StockTransaction

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(PrefixTransfer), nil, in.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		txs := make([]ledger.StockTransaction, 0, 2*len(in.Lines))
		for i, line := range in.Lines {
			pair, err := s.postTransferLine(ctx, number, in, line, actor)
			if err != nil {
				return lineError(err, i)
			}
			txs = append(txs, pair...)
		}

		if err := s.ledger.AppendTransactions(ctx, txs); err != nil {
			return fmt.Errorf("append transactions: %w", err)
		}

		if err := s.recordAudit(ctx, "StockTransfer", number, actor, txs); err != nil {
			return err
		}

		posted = txs
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer posted",
		"number", posted[0].Number,
		"lines", len(in.Lines),
		"from", in.FromWarehouseID,
		"to", in.ToWarehouseID,
		"actor", actor,
	)

	return posted, nil
}

func (s *Service) postTransferLine(ctx context.Context, number string, in TransferInput, line TransferLine, actor string) ([]ledger.StockTransaction, error) {
	if !line.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive")
	}

	it, err := s.items.GetByID(ctx, line.ItemID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTracking(it, line.BatchNumber, line.SerialNumber); err != nil {
		return nil, err
	}

	srcKey := ledger.LevelKey{
		ItemID:       line.ItemID,
		WarehouseID:  in.FromWarehouseID,
		LocationID:   in.FromLocationID,
		BatchNumber:  line.BatchNumber,
		SerialNumber: line.SerialNumber,
	}
	dstKey := srcKey.WithWarehouse(in.ToWarehouseID, in.ToLocationID)

	src, err := s.ledger.GetBalanceForUpdate(ctx, srcKey)
	if err != nil {
		return nil, fmt.Errorf("get source balance: %w", err)
	}
	if src.AvailableQuantity < line.Quantity {
		return nil, apperror.NewInsufficientStock(
			line.ItemID.String(),
			line.Quantity.Float64(),
			src.AvailableQuantity.Float64(),
		)
	}

	// Goods travel at the source's running cost.
	cost := src.UnitCost

	dst, err := s.ledger.GetBalanceForUpdate(ctx, dstKey)
	if err != nil {
		return nil, fmt.Errorf("get destination balance: %w", err)
	}
	newDstCost := valuation.NextUnitCost(it.ValuationMethod, dst.Quantity, dst.UnitCost, line.Quantity, cost)

	out := ledger.NewStockTransaction(number, ledger.TxnTransferOut, ledger.ReasonTransfer, srcKey, line.Quantity, cost, in.Date, actor)
	out.Reference = in.Reference
	out.Remarks = line.Remarks
	out.CounterpartWarehouseID = ptr(in.ToWarehouseID)
	out.CounterpartLocationID = ptr(in.ToLocationID)

	inTxn := ledger.NewStockTransaction(number, ledger.TxnTransferIn, ledger.ReasonTransfer, dstKey, line.Quantity, cost, in.Date, actor)
	inTxn.Reference = in.Reference
	inTxn.Remarks = line.Remarks
	inTxn.CounterpartWarehouseID = ptr(in.FromWarehouseID)
	inTxn.CounterpartLocationID = ptr(in.FromLocationID)

	if _, err := s.ledger.UpsertBalance(ctx, srcKey, line.Quantity.Neg(), src.UnitCost); err != nil {
		return nil, fmt.Errorf("decrement source: %w", err)
	}
	if _, err := s.ledger.UpsertBalance(ctx, dstKey, line.Quantity, newDstCost); err != nil {
		return nil, fmt.Errorf("increment destination: %w", err)
	}

	return []ledger.StockTransaction{out, inTxn}, nil
}

// checkTracking enforces the item's batch/serial granularity on a posting line.
func (s *Service) checkTracking(it *item.Item, batch, serial string) error {
	if it.TrackBatch && batch == "" {
		return apperror.NewValidation("batch number is required for batch-tracked item").
			WithDetail("item_id", it.ID.String())
	}
	if it.TrackSerial && serial == "" {
		return apperror.NewValidation("serial number is required for serial-tracked item").
			WithDetail("item_id", it.ID.String())
	}
	if !it.TrackBatch && batch != "" {
		return apperror.NewValidation("item is not batch-tracked").
			WithDetail("item_id", it.ID.String())
	}
	if !it.TrackSerial && serial != "" {
		return apperror.NewValidation("item is not serial-tracked").
			WithDetail("item_id", it.ID.String())
	}
	return nil
}

// allowNegativeStock resolves the warehouse negative-stock policy, cached
// per posting call.
func (s *Service) allowNegativeStock(ctx context.Context, warehouseID id.ID, cache map[id.ID]bool) (bool, error) {
	if allow, ok := cache[warehouseID]; ok {
		return allow, nil
	}
	wh, err := s.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return false, err
	}
	cache[warehouseID] = wh.AllowNegativeStock
	return wh.AllowNegativeStock, nil
}

func (s *Service) resolveActor(ctx context.Context, actor string) string {
	if actor != "" {
		return actor
	}
	return appctx.ActorID(ctx)
}

func (s *Service) recordAudit(ctx context.Context, docType, number, actor string, txs []ledger.StockTransaction) error {
	if s.auditor == nil {
		return nil
	}
	if err := s.auditor.RecordPosting(ctx, docType, number, actor, txs); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// lineError attaches the offending line index to a business error.
func lineError(err error, index int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("line", index+1)
	}
	return err
}

func ptr(v id.ID) *id.ID { return &v }
