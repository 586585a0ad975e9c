package procurement

import (
	"context"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
)

// PurchaseOrderRepository persists purchase orders with their lines.
type PurchaseOrderRepository interface {
	// Create inserts an order with its items.
	Create(ctx context.Context, po *PurchaseOrder) error

	// GetByID retrieves an order with its items, failing NotFound when absent.
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// GetByIDForUpdate retrieves an order with its items under a row lock;
	// concurrent receipts against the same order serialize here. Must run
	// inside a transaction.
	GetByIDForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// Save writes back the order status and the line counters with an
	// optimistic version check.
	Save(ctx context.Context, po *PurchaseOrder) error

	// List retrieves orders, newest first.
	List(ctx context.Context, filter POFilter) ([]*PurchaseOrder, error)
}

// POFilter narrows purchase order queries.
type POFilter struct {
	Status *POStatus
	Limit  int
	Offset int
}

// GRNRepository persists goods received notes with their lines.
type GRNRepository interface {
	// Create inserts a note with its items.
	Create(ctx context.Context, grn *GoodsReceivedNote) error

	// GetByID retrieves a note with its items, failing NotFound when absent.
	GetByID(ctx context.Context, grnID id.ID) (*GoodsReceivedNote, error)

	// Save writes back the note status and the line inspection fields.
	Save(ctx context.Context, grn *GoodsReceivedNote) error

	// ListByPurchaseOrder retrieves all notes posted against an order.
	ListByPurchaseOrder(ctx context.Context, poID id.ID) ([]*GoodsReceivedNote, error)
}
