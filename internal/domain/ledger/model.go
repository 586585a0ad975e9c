// Package ledger provides the durable stock ledger: the append-only
// transaction log and the materialized balance per stock-keeping key.
package ledger

import (
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/valuation"
)

// LevelKey identifies one stock balance row: the tuple
// (item, warehouse, location, batch, serial). Location id.Nil and empty
// batch/serial mean "not tracked at that granularity".
//
// The key is an owned value struct; relations to item/warehouse are plain
// foreign ids, never object pointers.
type LevelKey struct {
	ItemID       id.ID  `db:"item_id" json:"itemId"`
	WarehouseID  id.ID  `db:"warehouse_id" json:"warehouseId"`
	LocationID   id.ID  `db:"location_id" json:"locationId,omitempty"`
	BatchNumber  string `db:"batch_number" json:"batchNumber,omitempty"`
	SerialNumber string `db:"serial_number" json:"serialNumber,omitempty"`
}

// WithWarehouse returns a copy of the key relocated to another
// warehouse/location. Used for the destination side of transfers.
func (k LevelKey) WithWarehouse(warehouseID, locationID id.ID) LevelKey {
	k.WarehouseID = warehouseID
	k.LocationID = locationID
	return k
}

// TxnType defines the kind of ledger event.
type TxnType string

const (
	TxnReceipt     TxnType = "receipt"
	TxnIssue       TxnType = "issue"
	TxnTransferIn  TxnType = "transfer_in"
	TxnTransferOut TxnType = "transfer_out"
)

// Direction returns +1 for inbound types and -1 for outbound types.
func (t TxnType) Direction() int {
	switch t {
	case TxnIssue, TxnTransferOut:
		return -1
	default:
		return 1
	}
}

// Reason is the business cause recorded on a transaction.
type Reason string

const (
	ReasonPurchase    Reason = "purchase"
	ReasonAdjustment  Reason = "adjustment"
	ReasonTransfer    Reason = "transfer"
	ReasonReturn      Reason = "return"
	ReasonOpening     Reason = "opening"
	ReasonSale        Reason = "sale"
	ReasonConsumption Reason = "consumption"
	ReasonDamage      Reason = "damage"
	ReasonTheft       Reason = "theft"
)

// Valid reports whether r is a known reason code.
func (r Reason) Valid() bool {
	switch r {
	case ReasonPurchase, ReasonAdjustment, ReasonTransfer, ReasonReturn,
		ReasonOpening, ReasonSale, ReasonConsumption, ReasonDamage, ReasonTheft:
		return true
	}
	return false
}

// StockTransaction is an immutable ledger event. Rows are append-only:
// never mutated, never deleted. The sum of signed quantities for a key must
// reconcile to the current StockLevel for that key.
type StockTransaction struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Number is the generated document number; all lines of one posting
	// share it.
	Number string `db:"number" json:"number"`

	Type   TxnType `db:"type" json:"type"`
	Reason Reason  `db:"reason" json:"reason"`

	LevelKey

	// Counterpart warehouse/location for transfer pairs: the transfer_out
	// row points at the destination, the transfer_in row at the source.
	CounterpartWarehouseID *id.ID `db:"counterpart_warehouse_id" json:"counterpartWarehouseId,omitempty"`
	CounterpartLocationID  *id.ID `db:"counterpart_location_id" json:"counterpartLocationId,omitempty"`

	// Quantity is the positive magnitude; direction comes from Type.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost is the cost the movement was posted at; TotalValue is
	// quantity × unit cost.
	UnitCost   types.Money `db:"unit_cost" json:"unitCost"`
	TotalValue types.Money `db:"total_value" json:"totalValue"`

	// Reference points at the originating document (PO, GRN, sales order).
	Reference string `db:"reference" json:"reference,omitempty"`
	Remarks   string `db:"remarks" json:"remarks,omitempty"`

	// PostedAt is the business date; CreatedAt is the wall-clock insert time.
	PostedAt  time.Time `db:"posted_at" json:"postedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockTransaction creates a ledger event with generated ID.
func NewStockTransaction(number string, txnType TxnType, reason Reason, key LevelKey, qty types.Quantity, unitCost types.Money, postedAt time.Time, createdBy string) StockTransaction {
	return StockTransaction{
		ID:         id.New(),
		Number:     number,
		Type:       txnType,
		Reason:     reason,
		LevelKey:   key,
		Quantity:   qty.Abs(),
		UnitCost:   unitCost,
		TotalValue: valuation.TotalValue(qty.Abs(), unitCost),
		PostedAt:   postedAt,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now().UTC(),
	}
}

// SignedQuantity returns the quantity with direction applied.
func (t *StockTransaction) SignedQuantity() types.Quantity {
	if t.Type.Direction() < 0 {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// StockLevel is the current balance for one LevelKey. Created lazily on the
// first movement into the key, updated by every posting touching it, never
// deleted (zero-quantity rows persist for audit).
//
// Invariants: AvailableQuantity = Quantity − ReservedQuantity and
// TotalValue = Quantity × UnitCost, maintained by Recompute on every write.
type StockLevel struct {
	LevelKey

	Quantity          types.Quantity `db:"quantity" json:"quantity"`
	ReservedQuantity  types.Quantity `db:"reserved_quantity" json:"reservedQuantity"`
	AvailableQuantity types.Quantity `db:"available_quantity" json:"availableQuantity"`

	UnitCost   types.Money `db:"unit_cost" json:"unitCost"`
	TotalValue types.Money `db:"total_value" json:"totalValue"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStockLevel creates an empty balance row for a key.
func NewStockLevel(key LevelKey) StockLevel {
	return StockLevel{
		LevelKey: key,
		UnitCost: types.ZeroMoney(),
	}
}

// Apply adds a signed quantity delta at the given running cost and
// recomputes the derived fields.
func (l *StockLevel) Apply(delta types.Quantity, newUnitCost types.Money) {
	l.Quantity += delta
	l.UnitCost = newUnitCost
	l.Recompute()
	now := time.Now().UTC()
	l.LastMovementAt = now
	l.UpdatedAt = now
}

// Recompute restores the derived-field invariants.
func (l *StockLevel) Recompute() {
	l.AvailableQuantity = l.Quantity - l.ReservedQuantity
	l.TotalValue = valuation.TotalValue(l.Quantity, l.UnitCost)
}
