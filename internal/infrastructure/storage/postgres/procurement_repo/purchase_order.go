// Package procurement_repo provides PostgreSQL implementations for
// purchase order and GRN repositories.
package procurement_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/procurement"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "purchase_orders"
	purchaseOrderItemsTable = "purchase_order_items"
)

var poColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "remarks",
	"supplier_name", "status", "currency",
}

var poItemColumns = []string{
	"id", "purchase_order_id", "item_id",
	"ordered_quantity", "unit_price",
	"received_quantity", "accepted_quantity", "rejected_quantity",
}

// Compile-time check.
var _ procurement.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implements procurement.PurchaseOrderRepository.
type PurchaseOrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts an order with its items.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *procurement.PurchaseOrder) error {
	q := r.builder.Insert(purchaseOrdersTable).
		Columns(poColumns...).
		Values(
			po.ID, po.Version, po.CreatedAt, po.UpdatedAt, po.CreatedBy, po.UpdatedBy,
			po.Number, po.Date, po.Remarks,
			po.SupplierName, po.Status, po.Currency,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert purchase order: %w", err), "purchase order", po.Number)
	}

	if len(po.Items) == 0 {
		return nil
	}

	iq := r.builder.Insert(purchaseOrderItemsTable).Columns(poItemColumns...)
	for i := range po.Items {
		line := &po.Items[i]
		iq = iq.Values(
			line.ID, line.PurchaseOrderID, line.ItemID,
			line.OrderedQuantity, line.UnitPrice,
			line.ReceivedQuantity, line.AcceptedQuantity, line.RejectedQuantity,
		)
	}

	sql, args, err = iq.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert purchase order items: %w", err), "purchase order", po.Number)
	}

	return nil
}

// GetByID retrieves an order with its items, failing NotFound when absent.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, poID id.ID) (*procurement.PurchaseOrder, error) {
	return r.getByID(ctx, poID, false)
}

// GetByIDForUpdate retrieves the order with row locks on the order and its
// lines; concurrent receipts against the same order serialize here. Must
// run inside a transaction.
func (r *PurchaseOrderRepo) GetByIDForUpdate(ctx context.Context, poID id.ID) (*procurement.PurchaseOrder, error) {
	return r.getByID(ctx, poID, true)
}

func (r *PurchaseOrderRepo) getByID(ctx context.Context, poID id.ID, forUpdate bool) (*procurement.PurchaseOrder, error) {
	q := r.builder.Select(poColumns...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"id": poID}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var po procurement.PurchaseOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &po, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", poID.String())
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	items, err := r.loadItems(ctx, poID, forUpdate)
	if err != nil {
		return nil, err
	}
	po.Items = items

	return &po, nil
}

func (r *PurchaseOrderRepo) loadItems(ctx context.Context, poID id.ID, forUpdate bool) ([]procurement.PurchaseOrderItem, error) {
	q := r.builder.Select(poItemColumns...).
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"purchase_order_id": poID}).
		OrderBy("id")
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []procurement.PurchaseOrderItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchase order items: %w", err)
	}

	return items, nil
}

// Save writes back the order status and the line counters.
func (r *PurchaseOrderRepo) Save(ctx context.Context, po *procurement.PurchaseOrder) error {
	q := r.builder.Update(purchaseOrdersTable).
		Set("status", po.Status).
		Set("remarks", po.Remarks).
		Set("updated_at", po.UpdatedAt).
		Set("updated_by", po.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": po.ID, "version": po.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update purchase order: %w", err), "purchase order", po.ID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrencyConflict("purchase order", po.ID.String())
	}

	for i := range po.Items {
		line := &po.Items[i]
		lq := r.builder.Update(purchaseOrderItemsTable).
			Set("received_quantity", line.ReceivedQuantity).
			Set("accepted_quantity", line.AcceptedQuantity).
			Set("rejected_quantity", line.RejectedQuantity).
			Where(squirrel.Eq{"id": line.ID})

		sql, args, err := lq.ToSql()
		if err != nil {
			return fmt.Errorf("build line update: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("update purchase order line: %w", err)
		}
	}

	return nil
}

// List retrieves orders, newest first. Items are not loaded.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter procurement.POFilter) ([]*procurement.PurchaseOrder, error) {
	q := r.builder.Select(poColumns...).
		From(purchaseOrdersTable).
		OrderBy("date DESC", "number DESC")

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
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

	var orders []*procurement.PurchaseOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchase orders: %w", err)
	}

	return orders, nil
}
