package item

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/valuation"
)

type memRepo struct {
	items map[id.ID]*Item
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[id.ID]*Item)}
}

func (r *memRepo) Create(_ context.Context, it *Item) error {
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *memRepo) Update(_ context.Context, it *Item) error {
	if _, ok := r.items[it.ID]; !ok {
		return apperror.NewNotFound("item", it.ID.String())
	}
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, itemID id.ID) (*Item, error) {
	it, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID.String())
	}
	cp := *it
	return &cp, nil
}

func (r *memRepo) FindByCode(_ context.Context, code string) (*Item, error) {
	for _, it := range r.items {
		if it.Code == code {
			cp := *it
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("item", code)
}

func (r *memRepo) List(_ context.Context, filter ListFilter) ([]*Item, error) {
	var out []*Item
	for _, it := range r.items {
		if filter.ActiveOnly && !it.IsActive {
			continue
		}
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first := NewItem("ITM-CEM", "Cement 42.5R", valuation.MethodWeightedAverage)
	require.NoError(t, svc.Create(ctx, first))

	dup := NewItem("ITM-CEM", "Another cement", valuation.MethodWeightedAverage)
	err := svc.Create(ctx, dup)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreateRejectsInvalidMethod(t *testing.T) {
	svc := NewService(newMemRepo())

	it := NewItem("ITM-X", "X", valuation.Method("guesswork"))
	err := svc.Create(context.Background(), it)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestUpdateRejectsValuationMethodChange(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	it := NewItem("ITM-REB", "Rebar 12mm", valuation.MethodWeightedAverage)
	require.NoError(t, svc.Create(ctx, it))

	it.ValuationMethod = valuation.MethodFIFO
	err := svc.Update(ctx, it)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)

	// Other fields update normally.
	it.ValuationMethod = valuation.MethodWeightedAverage
	it.Name = "Rebar 12mm B500B"
	require.NoError(t, svc.Update(ctx, it))

	got, err := svc.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rebar 12mm B500B", got.Name)
}
