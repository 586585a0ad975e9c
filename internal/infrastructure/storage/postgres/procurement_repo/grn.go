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
	grnsTable     = "goods_received_notes"
	grnItemsTable = "grn_items"
)

var grnColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "remarks",
	"purchase_order_id", "warehouse_id", "location_id", "status",
	"received_date", "received_by", "inspected_by",
}

var grnItemColumns = []string{
	"id", "grn_id", "purchase_order_item_id", "item_id",
	"ordered_quantity", "received_quantity", "accepted_quantity", "rejected_quantity",
	"unit_price", "batch_number", "serial_number",
	"status", "inspection_notes",
}

// Compile-time check.
var _ procurement.GRNRepository = (*GRNRepo)(nil)

// GRNRepo implements procurement.GRNRepository.
type GRNRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewGRNRepo creates a new GRN repository.
func NewGRNRepo(txManager *postgres.TxManager) *GRNRepo {
	return &GRNRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a note with its items.
func (r *GRNRepo) Create(ctx context.Context, grn *procurement.GoodsReceivedNote) error {
	q := r.builder.Insert(grnsTable).
		Columns(grnColumns...).
		Values(
			grn.ID, grn.Version, grn.CreatedAt, grn.UpdatedAt, grn.CreatedBy, grn.UpdatedBy,
			grn.Number, grn.Date, grn.Remarks,
			grn.PurchaseOrderID, grn.WarehouseID, grn.LocationID, grn.Status,
			grn.ReceivedDate, grn.ReceivedBy, grn.InspectedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert grn: %w", err), "grn", grn.Number)
	}

	if len(grn.Items) == 0 {
		return nil
	}

	iq := r.builder.Insert(grnItemsTable).Columns(grnItemColumns...)
	for i := range grn.Items {
		line := &grn.Items[i]
		iq = iq.Values(
			line.ID, grn.ID, line.PurchaseOrderItemID, line.ItemID,
			line.OrderedQuantity, line.ReceivedQuantity, line.AcceptedQuantity, line.RejectedQuantity,
			line.UnitPrice, line.BatchNumber, line.SerialNumber,
			line.Status, line.InspectionNotes,
		)
	}

	sql, args, err = iq.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert grn items: %w", err), "grn", grn.Number)
	}

	return nil
}

// GetByID retrieves a note with its items, failing NotFound when absent.
func (r *GRNRepo) GetByID(ctx context.Context, grnID id.ID) (*procurement.GoodsReceivedNote, error) {
	q := r.builder.Select(grnColumns...).
		From(grnsTable).
		Where(squirrel.Eq{"id": grnID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var grn procurement.GoodsReceivedNote
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &grn, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("grn", grnID.String())
		}
		return nil, fmt.Errorf("get grn: %w", err)
	}

	items, err := r.loadItems(ctx, grnID)
	if err != nil {
		return nil, err
	}
	grn.Items = items

	return &grn, nil
}

func (r *GRNRepo) loadItems(ctx context.Context, grnID id.ID) ([]procurement.GRNItem, error) {
	q := r.builder.Select(grnItemColumns...).
		From(grnItemsTable).
		Where(squirrel.Eq{"grn_id": grnID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []procurement.GRNItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select grn items: %w", err)
	}

	return items, nil
}

// Save writes back the note status and the line inspection fields.
func (r *GRNRepo) Save(ctx context.Context, grn *procurement.GoodsReceivedNote) error {
	q := r.builder.Update(grnsTable).
		Set("status", grn.Status).
		Set("inspected_by", grn.InspectedBy).
		Set("remarks", grn.Remarks).
		Set("updated_at", grn.UpdatedAt).
		Set("updated_by", grn.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": grn.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update grn: %w", err), "grn", grn.ID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("grn", grn.ID.String())
	}

	for i := range grn.Items {
		line := &grn.Items[i]
		lq := r.builder.Update(grnItemsTable).
			Set("accepted_quantity", line.AcceptedQuantity).
			Set("rejected_quantity", line.RejectedQuantity).
			Set("status", line.Status).
			Set("inspection_notes", line.InspectionNotes).
			Where(squirrel.Eq{"id": line.ID})

		sql, args, err := lq.ToSql()
		if err != nil {
			return fmt.Errorf("build line update: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("update grn line: %w", err)
		}
	}

	return nil
}

// ListByPurchaseOrder retrieves all notes posted against an order, with items.
func (r *GRNRepo) ListByPurchaseOrder(ctx context.Context, poID id.ID) ([]*procurement.GoodsReceivedNote, error) {
	q := r.builder.Select(grnColumns...).
		From(grnsTable).
		Where(squirrel.Eq{"purchase_order_id": poID}).
		OrderBy("received_date")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var grns []*procurement.GoodsReceivedNote
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &grns, sql, args...); err != nil {
		return nil, fmt.Errorf("select grns: %w", err)
	}

	for _, grn := range grns {
		items, err := r.loadItems(ctx, grn.ID)
		if err != nil {
			return nil, err
		}
		grn.Items = items
	}

	return grns, nil
}
