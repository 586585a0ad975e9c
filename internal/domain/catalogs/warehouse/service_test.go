package warehouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
)

type memRepo struct {
	warehouses map[id.ID]*Warehouse
	locations  map[id.ID]*Location
}

func newMemRepo() *memRepo {
	return &memRepo{
		warehouses: make(map[id.ID]*Warehouse),
		locations:  make(map[id.ID]*Location),
	}
}

func (r *memRepo) Create(_ context.Context, wh *Warehouse) error {
	cp := *wh
	r.warehouses[wh.ID] = &cp
	return nil
}

func (r *memRepo) Update(_ context.Context, wh *Warehouse) error {
	if _, ok := r.warehouses[wh.ID]; !ok {
		return apperror.NewNotFound("warehouse", wh.ID.String())
	}
	cp := *wh
	r.warehouses[wh.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, warehouseID id.ID) (*Warehouse, error) {
	wh, ok := r.warehouses[warehouseID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	cp := *wh
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, activeOnly bool) ([]*Warehouse, error) {
	var out []*Warehouse
	for _, wh := range r.warehouses {
		if activeOnly && !wh.IsActive {
			continue
		}
		cp := *wh
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) CreateLocation(_ context.Context, loc *Location) error {
	cp := *loc
	r.locations[loc.ID] = &cp
	return nil
}

func (r *memRepo) GetLocation(_ context.Context, locationID id.ID) (*Location, error) {
	loc, ok := r.locations[locationID]
	if !ok {
		return nil, apperror.NewNotFound("location", locationID.String())
	}
	cp := *loc
	return &cp, nil
}

func (r *memRepo) ListLocations(_ context.Context, warehouseID id.ID) ([]*Location, error) {
	var out []*Location
	for _, loc := range r.locations {
		if loc.WarehouseID == warehouseID {
			cp := *loc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := NewService(newMemRepo())

	wh := NewWarehouse("WH-X", "X", WarehouseType("floating"))
	err := svc.Create(context.Background(), wh)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateLocation(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	wh := NewWarehouse("WH-MAIN", "Main warehouse", TypeMain)
	require.NoError(t, svc.Create(ctx, wh))

	loc := NewLocation(wh.ID, "A-01", "Rack A row 1")
	require.NoError(t, svc.CreateLocation(ctx, loc))

	got, err := svc.ListLocations(ctx, wh.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A-01", got[0].Code)
}

func TestCreateLocationGuards(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	// Unknown parent warehouse.
	err := svc.CreateLocation(ctx, NewLocation(id.New(), "A-01", "Rack A"))
	assert.True(t, apperror.IsNotFound(err))

	// Inactive parent.
	wh := NewWarehouse("WH-OLD", "Decommissioned yard", TypeSite)
	wh.IsActive = false
	require.NoError(t, repo.Create(ctx, wh))

	err = svc.CreateLocation(ctx, NewLocation(wh.ID, "B-01", "Rack B"))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)
}
