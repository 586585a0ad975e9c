// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/item"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
)

const itemsTable = "cat_items"

var itemColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"code", "name", "is_active",
	"valuation_method", "unit",
	"track_batch", "track_serial", "track_expiry",
	"reorder_level", "reorder_quantity", "standard_cost",
	"category", "description",
}

// Compile-time check.
var _ item.Repository = (*ItemRepo)(nil)

// ItemRepo implements item.Repository on PostgreSQL.
type ItemRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func itemRow(it *item.Item) []any {
	return []any{
		it.ID, it.Version, it.CreatedAt, it.UpdatedAt, it.CreatedBy, it.UpdatedBy,
		it.Code, it.Name, it.IsActive,
		it.ValuationMethod, it.Unit,
		it.TrackBatch, it.TrackSerial, it.TrackExpiry,
		it.ReorderLevel, it.ReorderQuantity, it.StandardCost,
		it.Category, it.Description,
	}
}

// Create inserts a new item.
func (r *ItemRepo) Create(ctx context.Context, it *item.Item) error {
	q := r.builder.Insert(itemsTable).
		Columns(itemColumns...).
		Values(itemRow(it)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert item: %w", err), "item", it.Code)
	}

	return nil
}

// Update saves item changes with optimistic version check.
func (r *ItemRepo) Update(ctx context.Context, it *item.Item) error {
	q := r.builder.Update(itemsTable).
		Set("code", it.Code).
		Set("name", it.Name).
		Set("is_active", it.IsActive).
		Set("valuation_method", it.ValuationMethod).
		Set("unit", it.Unit).
		Set("track_batch", it.TrackBatch).
		Set("track_serial", it.TrackSerial).
		Set("track_expiry", it.TrackExpiry).
		Set("reorder_level", it.ReorderLevel).
		Set("reorder_quantity", it.ReorderQuantity).
		Set("standard_cost", it.StandardCost).
		Set("category", it.Category).
		Set("description", it.Description).
		Set("updated_at", it.UpdatedAt).
		Set("updated_by", it.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": it.ID, "version": it.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update item: %w", err), "item", it.ID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrencyConflict("item", it.ID.String())
	}

	return nil
}

// GetByID retrieves an item, failing NotFound when absent.
func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"id": itemID}).
		Limit(1)

	return r.getOne(ctx, q, itemID.String())
}

// FindByCode retrieves an item by its unique code.
func (r *ItemRepo) FindByCode(ctx context.Context, code string) (*item.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"code": code}).
		Limit(1)

	return r.getOne(ctx, q, code)
}

func (r *ItemRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (*item.Item, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var it item.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &it, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("item", ref)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return &it, nil
}

// List retrieves items matching the filter, ordered by code.
func (r *ItemRepo) List(ctx context.Context, filter item.ListFilter) ([]*item.Item, error) {
	q := r.builder.Select(itemColumns...).From(itemsTable)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	q = q.OrderBy("code")

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

	var items []*item.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}

	return items, nil
}
