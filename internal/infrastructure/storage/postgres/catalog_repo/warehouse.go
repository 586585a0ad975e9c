package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/warehouse"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
)

const (
	warehousesTable = "cat_warehouses"
	locationsTable  = "cat_locations"
)

var warehouseColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"code", "name", "is_active",
	"type", "address", "allow_negative_stock",
}

var locationColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"code", "name", "is_active",
	"warehouse_id",
}

// Compile-time check.
var _ warehouse.Repository = (*WarehouseRepo)(nil)

// WarehouseRepo implements warehouse.Repository on PostgreSQL.
type WarehouseRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new warehouse.
func (r *WarehouseRepo) Create(ctx context.Context, wh *warehouse.Warehouse) error {
	q := r.builder.Insert(warehousesTable).
		Columns(warehouseColumns...).
		Values(
			wh.ID, wh.Version, wh.CreatedAt, wh.UpdatedAt, wh.CreatedBy, wh.UpdatedBy,
			wh.Code, wh.Name, wh.IsActive,
			wh.Type, wh.Address, wh.AllowNegativeStock,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert warehouse: %w", err), "warehouse", wh.Code)
	}

	return nil
}

// Update saves warehouse changes with optimistic version check.
func (r *WarehouseRepo) Update(ctx context.Context, wh *warehouse.Warehouse) error {
	q := r.builder.Update(warehousesTable).
		Set("code", wh.Code).
		Set("name", wh.Name).
		Set("is_active", wh.IsActive).
		Set("type", wh.Type).
		Set("address", wh.Address).
		Set("allow_negative_stock", wh.AllowNegativeStock).
		Set("updated_at", wh.UpdatedAt).
		Set("updated_by", wh.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": wh.ID, "version": wh.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update warehouse: %w", err), "warehouse", wh.ID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrencyConflict("warehouse", wh.ID.String())
	}

	return nil
}

// GetByID retrieves a warehouse, failing NotFound when absent.
func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var wh warehouse.Warehouse
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &wh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", warehouseID.String())
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}

	return &wh, nil
}

// List retrieves all warehouses, optionally active only.
func (r *WarehouseRepo) List(ctx context.Context, activeOnly bool) ([]*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).
		From(warehousesTable).
		OrderBy("code")

	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var warehouses []*warehouse.Warehouse
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &warehouses, sql, args...); err != nil {
		return nil, fmt.Errorf("select warehouses: %w", err)
	}

	return warehouses, nil
}

// CreateLocation inserts a new location.
func (r *WarehouseRepo) CreateLocation(ctx context.Context, loc *warehouse.Location) error {
	q := r.builder.Insert(locationsTable).
		Columns(locationColumns...).
		Values(
			loc.ID, loc.Version, loc.CreatedAt, loc.UpdatedAt, loc.CreatedBy, loc.UpdatedBy,
			loc.Code, loc.Name, loc.IsActive,
			loc.WarehouseID,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert location: %w", err), "location", loc.Code)
	}

	return nil
}

// GetLocation retrieves a location, failing NotFound when absent.
func (r *WarehouseRepo) GetLocation(ctx context.Context, locationID id.ID) (*warehouse.Location, error) {
	q := r.builder.Select(locationColumns...).
		From(locationsTable).
		Where(squirrel.Eq{"id": locationID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var loc warehouse.Location
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &loc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("location", locationID.String())
		}
		return nil, fmt.Errorf("get location: %w", err)
	}

	return &loc, nil
}

// ListLocations retrieves locations of a warehouse.
func (r *WarehouseRepo) ListLocations(ctx context.Context, warehouseID id.ID) ([]*warehouse.Location, error) {
	q := r.builder.Select(locationColumns...).
		From(locationsTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var locations []*warehouse.Location
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &locations, sql, args...); err != nil {
		return nil, fmt.Errorf("select locations: %w", err)
	}

	return locations, nil
}
