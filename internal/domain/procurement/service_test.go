package procurement

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/entity"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/numerator"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/item"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/warehouse"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/ledger"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/posting"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/valuation"
)

// --- in-memory fakes ---

type memStore struct {
	mu     sync.Mutex
	levels map[ledger.LevelKey]ledger.StockLevel
	txns   []ledger.StockTransaction
	pos    map[id.ID]*PurchaseOrder
	grns   map[id.ID]*GoodsReceivedNote
}

func newMemStore() *memStore {
	return &memStore{
		levels: make(map[ledger.LevelKey]ledger.StockLevel),
		pos:    make(map[id.ID]*PurchaseOrder),
		grns:   make(map[id.ID]*GoodsReceivedNote),
	}
}

func (m *memStore) snapshot() *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := newMemStore()
	for k, v := range m.levels {
		snap.levels[k] = v
	}
	snap.txns = append([]ledger.StockTransaction(nil), m.txns...)
	for k, v := range m.pos {
		snap.pos[k] = clonePO(v)
	}
	for k, v := range m.grns {
		snap.grns[k] = cloneGRN(v)
	}
	return snap
}

func (m *memStore) restore(snap *memStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels = snap.levels
	m.txns = snap.txns
	m.pos = snap.pos
	m.grns = snap.grns
}

func clonePO(po *PurchaseOrder) *PurchaseOrder {
	cp := *po
	cp.Items = append([]PurchaseOrderItem(nil), po.Items...)
	return &cp
}

func cloneGRN(grn *GoodsReceivedNote) *GoodsReceivedNote {
	cp := *grn
	cp.Items = append([]GRNItem(nil), grn.Items...)
	return &cp
}

type memTxManager struct{ store *memStore }

func (m *memTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type memLedgerRepo struct{ store *memStore }

func (r *memLedgerRepo) AppendTransactions(_ context.Context, txs []ledger.StockTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.txns = append(r.store.txns, txs...)
	return nil
}

func (r *memLedgerRepo) GetBalance(_ context.Context, key ledger.LevelKey) (ledger.StockLevel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if lvl, ok := r.store.levels[key]; ok {
		return lvl, nil
	}
	return ledger.NewStockLevel(key), nil
}

func (r *memLedgerRepo) GetBalanceForUpdate(ctx context.Context, key ledger.LevelKey) (ledger.StockLevel, error) {
	return r.GetBalance(ctx, key)
}

func (r *memLedgerRepo) UpsertBalance(_ context.Context, key ledger.LevelKey, delta types.Quantity, newUnitCost types.Money) (ledger.StockLevel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	lvl, ok := r.store.levels[key]
	if !ok {
		lvl = ledger.NewStockLevel(key)
	}
	lvl.Apply(delta, newUnitCost)
	r.store.levels[key] = lvl
	return lvl, nil
}

func (r *memLedgerRepo) ListLevels(_ context.Context, _ ledger.LevelFilter) ([]ledger.StockLevel, error) {
	return nil, nil
}

func (r *memLedgerRepo) ListTransactions(_ context.Context, _ ledger.TransactionFilter) ([]ledger.StockTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]ledger.StockTransaction(nil), r.store.txns...), nil
}

func (r *memLedgerRepo) SumTransactions(_ context.Context, key ledger.LevelKey) (types.Quantity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var sum types.Quantity
	for i := range r.store.txns {
		if r.store.txns[i].LevelKey == key {
			sum += r.store.txns[i].SignedQuantity()
		}
	}
	return sum, nil
}

type memPORepo struct {
	store *memStore

	// afterLockedRead runs after GetByIDForUpdate returns its clone,
	// letting tests interleave a competing write.
	afterLockedRead func()
}

func (r *memPORepo) Create(_ context.Context, po *PurchaseOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.pos[po.ID] = clonePO(po)
	return nil
}

func (r *memPORepo) GetByID(_ context.Context, poID id.ID) (*PurchaseOrder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if po, ok := r.store.pos[poID]; ok {
		return clonePO(po), nil
	}
	return nil, apperror.NewNotFound("purchase order", poID.String())
}

func (r *memPORepo) GetByIDForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	po, err := r.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if r.afterLockedRead != nil {
		r.afterLockedRead()
	}
	return po, nil
}

// Save mirrors the optimistic version check of the SQL repository.
func (r *memPORepo) Save(_ context.Context, po *PurchaseOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.pos[po.ID]
	if !ok {
		return apperror.NewNotFound("purchase order", po.ID.String())
	}
	if current.Version != po.Version {
		return apperror.NewConcurrencyConflict("purchase order", po.ID.String())
	}
	cp := clonePO(po)
	cp.Version = po.Version + 1
	r.store.pos[po.ID] = cp
	return nil
}

func (r *memPORepo) List(_ context.Context, _ POFilter) ([]*PurchaseOrder, error) { return nil, nil }

type memGRNRepo struct{ store *memStore }

func (r *memGRNRepo) Create(_ context.Context, grn *GoodsReceivedNote) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.grns[grn.ID] = cloneGRN(grn)
	return nil
}

func (r *memGRNRepo) GetByID(_ context.Context, grnID id.ID) (*GoodsReceivedNote, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if grn, ok := r.store.grns[grnID]; ok {
		return cloneGRN(grn), nil
	}
	return nil, apperror.NewNotFound("grn", grnID.String())
}

func (r *memGRNRepo) Save(_ context.Context, grn *GoodsReceivedNote) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.grns[grn.ID] = cloneGRN(grn)
	return nil
}

func (r *memGRNRepo) ListByPurchaseOrder(_ context.Context, poID id.ID) ([]*GoodsReceivedNote, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*GoodsReceivedNote
	for _, grn := range r.store.grns {
		if grn.PurchaseOrderID == poID {
			out = append(out, cloneGRN(grn))
		}
	}
	return out, nil
}

type memItemRepo struct{ items map[id.ID]*item.Item }

func (r *memItemRepo) Create(_ context.Context, it *item.Item) error { r.items[it.ID] = it; return nil }
func (r *memItemRepo) Update(_ context.Context, it *item.Item) error { r.items[it.ID] = it; return nil }

func (r *memItemRepo) GetByID(_ context.Context, itemID id.ID) (*item.Item, error) {
	if it, ok := r.items[itemID]; ok {
		return it, nil
	}
	return nil, apperror.NewNotFound("item", itemID.String())
}

func (r *memItemRepo) FindByCode(_ context.Context, code string) (*item.Item, error) {
	return nil, apperror.NewNotFound("item", code)
}

func (r *memItemRepo) List(_ context.Context, _ item.ListFilter) ([]*item.Item, error) {
	return nil, nil
}

type memWarehouseRepo struct {
	warehouses map[id.ID]*warehouse.Warehouse
	locations  map[id.ID]*warehouse.Location
}

func (r *memWarehouseRepo) Create(_ context.Context, wh *warehouse.Warehouse) error {
	r.warehouses[wh.ID] = wh
	return nil
}

func (r *memWarehouseRepo) Update(_ context.Context, wh *warehouse.Warehouse) error {
	r.warehouses[wh.ID] = wh
	return nil
}

func (r *memWarehouseRepo) GetByID(_ context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	if wh, ok := r.warehouses[warehouseID]; ok {
		return wh, nil
	}
	return nil, apperror.NewNotFound("warehouse", warehouseID.String())
}

func (r *memWarehouseRepo) List(_ context.Context, _ bool) ([]*warehouse.Warehouse, error) {
	return nil, nil
}

func (r *memWarehouseRepo) CreateLocation(_ context.Context, loc *warehouse.Location) error {
	r.locations[loc.ID] = loc
	return nil
}

func (r *memWarehouseRepo) GetLocation(_ context.Context, locationID id.ID) (*warehouse.Location, error) {
	if loc, ok := r.locations[locationID]; ok {
		return loc, nil
	}
	return nil, apperror.NewNotFound("location", locationID.String())
}

func (r *memWarehouseRepo) ListLocations(_ context.Context, _ id.ID) ([]*warehouse.Location, error) {
	return nil, nil
}

// --- fixture ---

type fixture struct {
	svc    *Service
	store  *memStore
	ledger *memLedgerRepo
	pos    *memPORepo
	whs    *memWarehouseRepo

	cement *item.Item
	rebar  *item.Item
	wh     *warehouse.Warehouse
	po     *PurchaseOrder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cement := &item.Item{
		Catalog:         entity.NewCatalog("ITM-CEM", "Portland Cement 50kg"),
		ValuationMethod: valuation.MethodWeightedAverage,
		Unit:            "bag",
	}
	rebar := &item.Item{
		Catalog:         entity.NewCatalog("ITM-RBR", "Rebar 12mm"),
		ValuationMethod: valuation.MethodWeightedAverage,
		Unit:            "pc",
	}
	wh := &warehouse.Warehouse{Catalog: entity.NewCatalog("WH-MAIN", "Main Warehouse"), Type: warehouse.TypeMain}

	store := newMemStore()
	ledgerRepo := &memLedgerRepo{store: store}
	txm := &memTxManager{store: store}
	items := &memItemRepo{items: map[id.ID]*item.Item{cement.ID: cement, rebar.ID: rebar}}
	whs := &memWarehouseRepo{
		warehouses: map[id.ID]*warehouse.Warehouse{wh.ID: wh},
		locations:  make(map[id.ID]*warehouse.Location),
	}
	gen := &numerator.MockGenerator{}

	poRepo := &memPORepo{store: store}
	poster := posting.NewService(items, whs, ledgerRepo, gen, txm, nil)
	svc := NewService(poRepo, &memGRNRepo{store: store}, whs, poster, gen, txm)

	po := &PurchaseOrder{
		Document:     entity.NewDocument(),
		SupplierName: "BuildMart Ltd",
		Status:       POStatusApproved,
		Currency:     "USD",
	}
	po.Number = "PO2602000001"
	po.Items = []PurchaseOrderItem{
		{
			ID:              id.New(),
			PurchaseOrderID: po.ID,
			ItemID:          cement.ID,
			OrderedQuantity: types.NewQuantityFromInt(100),
			UnitPrice:       types.MustMoney("25"),
		},
		{
			ID:              id.New(),
			PurchaseOrderID: po.ID,
			ItemID:          rebar.ID,
			OrderedQuantity: types.NewQuantityFromInt(40),
			UnitPrice:       types.MustMoney("10"),
		},
	}
	store.pos[po.ID] = po

	return &fixture{svc: svc, store: store, ledger: ledgerRepo, pos: poRepo, whs: whs, cement: cement, rebar: rebar, wh: wh, po: po}
}

func (f *fixture) receivedDate() time.Time {
	return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
}

// --- tests ---

func TestCreateGRN(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grn, err := f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		ReceivedDate:    f.receivedDate(),
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{
			{
				POItemID:         f.po.Items[0].ID,
				ReceivedQuantity: types.NewQuantityFromInt(60),
				AcceptedQuantity: types.NewQuantityFromInt(50),
				RejectedQuantity: types.NewQuantityFromInt(10),
			},
			{
				POItemID:         f.po.Items[1].ID,
				ReceivedQuantity: types.NewQuantityFromInt(40),
				AcceptedQuantity: types.NewQuantityFromInt(40),
			},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(grn.Number, "GRN2603"), "number = %s", grn.Number)
	assert.Equal(t, GRNStatusPartiallyAccepted, grn.Status)
	require.Len(t, grn.Items, 2)
	assert.Equal(t, GRNItemAccepted, grn.Items[0].Status)
	assert.Equal(t, types.NewQuantityFromInt(100), grn.Items[0].OrderedQuantity)

	// PO counters and roll-up: line one partial, line two complete.
	po, err := f.svc.GetPurchaseOrder(ctx, f.po.ID)
	require.NoError(t, err)
	assert.Equal(t, POStatusPartiallyReceived, po.Status)
	assert.Equal(t, types.NewQuantityFromInt(60), po.Items[0].ReceivedQuantity)
	assert.Equal(t, types.NewQuantityFromInt(50), po.Items[0].AcceptedQuantity)
	assert.Equal(t, types.NewQuantityFromInt(10), po.Items[0].RejectedQuantity)
	assert.Equal(t, types.NewQuantityFromInt(40), po.Items[1].ReceivedQuantity)

	// Accepted goods entered stock at the PO unit price.
	cementLvl, err := f.ledger.GetBalance(ctx, ledger.LevelKey{ItemID: f.cement.ID, WarehouseID: f.wh.ID})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(50), cementLvl.Quantity)
	assert.True(t, cementLvl.UnitCost.Equal(types.MustMoney("25")))

	rebarLvl, err := f.ledger.GetBalance(ctx, ledger.LevelKey{ItemID: f.rebar.ID, WarehouseID: f.wh.ID})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(40), rebarLvl.Quantity)

	// The receipt transactions reference the GRN.
	txs, err := f.ledger.ListTransactions(ctx, ledger.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, txn := range txs {
		assert.Equal(t, ledger.ReasonPurchase, txn.Reason)
		assert.Equal(t, grn.Number, txn.Reference)
	}
}

func TestCreateGRNRollupToReceived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		ReceivedDate:    f.receivedDate(),
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{
			{
				POItemID:         f.po.Items[0].ID,
				ReceivedQuantity: types.NewQuantityFromInt(60),
				AcceptedQuantity: types.NewQuantityFromInt(60),
			},
			{
				POItemID:         f.po.Items[1].ID,
				ReceivedQuantity: types.NewQuantityFromInt(40),
				AcceptedQuantity: types.NewQuantityFromInt(40),
			},
		},
	}
	_, err := f.svc.CreateGRN(ctx, first)
	require.NoError(t, err)

	po, err := f.svc.GetPurchaseOrder(ctx, f.po.ID)
	require.NoError(t, err)
	require.Equal(t, POStatusPartiallyReceived, po.Status)

	// Second delivery completes line one.
	_, err = f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		ReceivedDate:    f.receivedDate().Add(48 * time.Hour),
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{{
			POItemID:         f.po.Items[0].ID,
			ReceivedQuantity: types.NewQuantityFromInt(40),
			AcceptedQuantity: types.NewQuantityFromInt(40),
		}},
	})
	require.NoError(t, err)

	po, err = f.svc.GetPurchaseOrder(ctx, f.po.ID)
	require.NoError(t, err)
	assert.Equal(t, POStatusReceived, po.Status)
	assert.Equal(t, types.NewQuantityFromInt(100), po.Items[0].ReceivedQuantity)
}

func TestCreateGRNInvalidPOState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.po.Status = POStatusDraft

	_, err := f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{{
			POItemID:         f.po.Items[0].ID,
			ReceivedQuantity: types.NewQuantityFromInt(10),
		}},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)
}

func TestCreateGRNValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		line CreateGRNItemInput
	}{
		{
			name: "unknown po line",
			line: CreateGRNItemInput{
				POItemID:         id.New(),
				ReceivedQuantity: types.NewQuantityFromInt(10),
			},
		},
		{
			name: "nonpositive received",
			line: CreateGRNItemInput{POItemID: f.po.Items[0].ID},
		},
		{
			name: "accepted plus rejected exceeds received",
			line: CreateGRNItemInput{
				POItemID:         f.po.Items[0].ID,
				ReceivedQuantity: types.NewQuantityFromInt(10),
				AcceptedQuantity: types.NewQuantityFromInt(8),
				RejectedQuantity: types.NewQuantityFromInt(5),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateGRN(ctx, CreateGRNInput{
				PurchaseOrderID: f.po.ID,
				WarehouseID:     f.wh.ID,
				Actor:           "storekeeper",
				Items:           []CreateGRNItemInput{tt.line},
			})
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}

	_, err := f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: id.New(),
		WarehouseID:     f.wh.ID,
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{{
			POItemID:         f.po.Items[0].ID,
			ReceivedQuantity: types.NewQuantityFromInt(1),
		}},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateGRNAtomicRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Line one would post 50 bags into stock; line two is invalid.
	_, err := f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{
			{
				POItemID:         f.po.Items[0].ID,
				ReceivedQuantity: types.NewQuantityFromInt(50),
				AcceptedQuantity: types.NewQuantityFromInt(50),
			},
			{
				POItemID:         id.New(),
				ReceivedQuantity: types.NewQuantityFromInt(1),
			},
		},
	})
	require.Error(t, err)

	po, err := f.svc.GetPurchaseOrder(ctx, f.po.ID)
	require.NoError(t, err)
	assert.Equal(t, POStatusApproved, po.Status)
	assert.True(t, po.Items[0].ReceivedQuantity.IsZero(), "counters reverted")

	lvl, err := f.ledger.GetBalance(ctx, ledger.LevelKey{ItemID: f.cement.ID, WarehouseID: f.wh.ID})
	require.NoError(t, err)
	assert.True(t, lvl.Quantity.IsZero(), "stock posting reverted")

	assert.Empty(t, f.store.grns)
}

func TestUpdateInspection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grn, err := f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		ReceivedDate:    f.receivedDate(),
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{{
			POItemID:         f.po.Items[0].ID,
			ReceivedQuantity: types.NewQuantityFromInt(30),
		}},
	})
	require.NoError(t, err)
	require.Equal(t, GRNStatusQualityCheck, grn.Status)
	require.Equal(t, GRNItemPending, grn.Items[0].Status)

	// Nothing in stock until inspection accepts.
	key := ledger.LevelKey{ItemID: f.cement.ID, WarehouseID: f.wh.ID}
	lvl, err := f.ledger.GetBalance(ctx, key)
	require.NoError(t, err)
	require.True(t, lvl.Quantity.IsZero())

	updated, err := f.svc.UpdateInspection(ctx, InspectionInput{
		GRNID:          grn.ID,
		GRNItemID:      grn.Items[0].ID,
		AcceptQuantity: types.NewQuantityFromInt(25),
		RejectQuantity: types.NewQuantityFromInt(5),
		Notes:          "5 bags torn",
		Actor:          "inspector",
	})
	require.NoError(t, err)

	assert.Equal(t, GRNStatusPartiallyAccepted, updated.Status)
	assert.Equal(t, "inspector", updated.InspectedBy)
	assert.Equal(t, GRNItemAccepted, updated.Items[0].Status)
	assert.Equal(t, "5 bags torn", updated.Items[0].InspectionNotes)

	lvl, err = f.ledger.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(25), lvl.Quantity)
	assert.True(t, lvl.UnitCost.Equal(types.MustMoney("25")))

	po, err := f.svc.GetPurchaseOrder(ctx, f.po.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(25), po.Items[0].AcceptedQuantity)
	assert.Equal(t, types.NewQuantityFromInt(5), po.Items[0].RejectedQuantity)

	// The line is resolved; further inspection is rejected.
	_, err = f.svc.UpdateInspection(ctx, InspectionInput{
		GRNID:          grn.ID,
		GRNItemID:      grn.Items[0].ID,
		AcceptQuantity: types.NewQuantityFromInt(1),
		Actor:          "inspector",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)
}

func TestUpdateInspectionHoldAndOverrun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grn, err := f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{{
			POItemID:         f.po.Items[0].ID,
			ReceivedQuantity: types.NewQuantityFromInt(10),
		}},
	})
	require.NoError(t, err)

	held, err := f.svc.UpdateInspection(ctx, InspectionInput{
		GRNID:     grn.ID,
		GRNItemID: grn.Items[0].ID,
		Hold:      true,
		Notes:     "awaiting lab results",
		Actor:     "inspector",
	})
	require.NoError(t, err)
	assert.Equal(t, GRNItemHold, held.Items[0].Status)
	assert.Equal(t, GRNStatusQualityCheck, held.Status)

	// A held line can still be resolved, but never beyond what is pending.
	_, err = f.svc.UpdateInspection(ctx, InspectionInput{
		GRNID:          grn.ID,
		GRNItemID:      grn.Items[0].ID,
		AcceptQuantity: types.NewQuantityFromInt(11),
		Actor:          "inspector",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	resolved, err := f.svc.UpdateInspection(ctx, InspectionInput{
		GRNID:          grn.ID,
		GRNItemID:      grn.Items[0].ID,
		AcceptQuantity: types.NewQuantityFromInt(10),
		Actor:          "inspector",
	})
	require.NoError(t, err)
	assert.Equal(t, GRNItemAccepted, resolved.Items[0].Status)
	assert.Equal(t, GRNStatusAccepted, resolved.Status)
}

func TestCreateGRNPostsToReceivingLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bin := warehouse.NewLocation(f.wh.ID, "BIN-A1", "Receiving Bay A1")
	require.NoError(t, f.whs.CreateLocation(ctx, bin))

	grn, err := f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		LocationID:      bin.ID,
		ReceivedDate:    f.receivedDate(),
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{{
			POItemID:         f.po.Items[0].ID,
			ReceivedQuantity: types.NewQuantityFromInt(60),
			AcceptedQuantity: types.NewQuantityFromInt(50),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, bin.ID, grn.LocationID)

	// Stock lands on the named bin, not on the warehouse root.
	binKey := ledger.LevelKey{ItemID: f.cement.ID, WarehouseID: f.wh.ID, LocationID: bin.ID}
	lvl, err := f.ledger.GetBalance(ctx, binKey)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(50), lvl.Quantity)

	rootLvl, err := f.ledger.GetBalance(ctx, ledger.LevelKey{ItemID: f.cement.ID, WarehouseID: f.wh.ID})
	require.NoError(t, err)
	assert.True(t, rootLvl.Quantity.IsZero())

	// Late acceptance follows the note's bin too.
	_, err = f.svc.UpdateInspection(ctx, InspectionInput{
		GRNID:          grn.ID,
		GRNItemID:      grn.Items[0].ID,
		AcceptQuantity: types.NewQuantityFromInt(10),
		Actor:          "inspector",
	})
	require.NoError(t, err)

	lvl, err = f.ledger.GetBalance(ctx, binKey)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(60), lvl.Quantity)
}

func TestCreateGRNLocationGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{{
			POItemID:         f.po.Items[0].ID,
			ReceivedQuantity: types.NewQuantityFromInt(10),
			AcceptedQuantity: types.NewQuantityFromInt(10),
		}},
	}

	unknown := base
	unknown.LocationID = id.New()
	_, err := f.svc.CreateGRN(ctx, unknown)
	assert.True(t, apperror.IsNotFound(err))

	foreign := warehouse.NewLocation(id.New(), "BIN-X", "Elsewhere")
	require.NoError(t, f.whs.CreateLocation(ctx, foreign))

	misplaced := base
	misplaced.LocationID = foreign.ID
	_, err = f.svc.CreateGRN(ctx, misplaced)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateGRNCompetingDeliveryConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A competing delivery commits between our locked read and our save.
	// The version predicate turns the would-be lost update into a conflict
	// and the whole receipt rolls back.
	f.pos.afterLockedRead = func() {
		f.store.pos[f.po.ID].Version++
	}

	_, err := f.svc.CreateGRN(ctx, CreateGRNInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.wh.ID,
		Actor:           "storekeeper",
		Items: []CreateGRNItemInput{{
			POItemID:         f.po.Items[0].ID,
			ReceivedQuantity: types.NewQuantityFromInt(40),
			AcceptedQuantity: types.NewQuantityFromInt(40),
		}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrencyConflict(err))

	lvl, err := f.ledger.GetBalance(ctx, ledger.LevelKey{ItemID: f.cement.ID, WarehouseID: f.wh.ID})
	require.NoError(t, err)
	assert.True(t, lvl.Quantity.IsZero(), "stock posting reverted")
	assert.Empty(t, f.store.grns)
}
