package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	catalogapp "github.com/logistics/backend/internal/application/catalog"
	stockapp "github.com/logistics/backend/internal/application/stock"
	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
	"github.com/logistics/backend/internal/infrastructure/event"
	"github.com/logistics/backend/internal/infrastructure/persistence"
)

// ledgerEnv wires the full mutation pipeline against a real database:
// repositories, transaction scope, event bus, alert evaluation.
type ledgerEnv struct {
	db        *TestDB
	mutations *stockapp.MutationService
	alerts    *stockapp.AlertService
	reads     *stockapp.ReadModelService
	itemRepo  catalog.ItemRepository
	whRepo    catalog.WarehouseRepository
	stockRepo stock.WarehouseStockRepository
	moveRepo  stock.StockMovementRepository
	alertRepo stock.StockAlertRepository
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()

	tdb := NewTestDB(t)
	log := zaptest.NewLogger(t)

	stockRepo := persistence.NewGormWarehouseStockRepository(tdb.DB)
	moveRepo := persistence.NewGormStockMovementRepository(tdb.DB)
	alertRepo := persistence.NewGormStockAlertRepository(tdb.DB)
	batchRepo := persistence.NewGormStockBatchRepository(tdb.DB)
	itemRepo := persistence.NewGormItemRepository(tdb.DB)
	whRepo := persistence.NewGormWarehouseRepository(tdb.DB)
	scope := persistence.NewGormTransactionScope(tdb.DB)

	reference := catalogapp.NewCachedReference(itemRepo, whRepo)
	bus := event.NewInMemoryEventBus(log)

	mutations := stockapp.NewMutationService(scope, reference, stockapp.NewKeyedLock(time.Second), log)
	mutations.SetEventPublisher(bus)

	alerts := stockapp.NewAlertService(reference, stockRepo, alertRepo, batchRepo, log)
	alerts.SetEventPublisher(bus)

	bus.Subscribe(stockapp.NewAlertEvaluationHandler(alerts, log))

	reads := stockapp.NewReadModelService(stockRepo, moveRepo, alertRepo, nil)

	return &ledgerEnv{
		db:        tdb,
		mutations: mutations,
		alerts:    alerts,
		reads:     reads,
		itemRepo:  itemRepo,
		whRepo:    whRepo,
		stockRepo: stockRepo,
		moveRepo:  moveRepo,
		alertRepo: alertRepo,
	}
}

func (e *ledgerEnv) seedItem(t *testing.T, code string, minLevel, reorderPoint int64) *catalog.InventoryItem {
	t.Helper()
	item, err := catalog.NewInventoryItem(code, "Item "+code, "pcs")
	require.NoError(t, err)
	require.NoError(t, item.SetThresholds(minLevel, 0, reorderPoint, 0))
	require.NoError(t, e.itemRepo.Save(context.Background(), item))
	return item
}

func (e *ledgerEnv) seedWarehouse(t *testing.T, code string) *catalog.Warehouse {
	t.Helper()
	wh, err := catalog.NewWarehouse(code, "Warehouse "+code)
	require.NoError(t, err)
	require.NoError(t, e.whRepo.Save(context.Background(), wh))
	return wh
}

func cost(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestLedgerFlow_InboundBuildsBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "SKU-A", 0, 0)
	wh := env.seedWarehouse(t, "WH-A")

	resp, err := env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID:      item.ID,
		WarehouseID: wh.ID,
		Type:        stock.MovementTypeIn,
		Quantity:    50,
		UnitCost:    cost(10),
		Actor:       "tester",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), resp.QuantityBefore)
	assert.Equal(t, int64(50), resp.QuantityAfter)
	assert.Equal(t, int64(50), resp.QuantityAvailable)
	assert.True(t, decimal.NewFromInt(10).Equal(resp.AverageCost))

	alerts, err := env.alertRepo.FindOpenByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestLedgerFlow_LowStockAlertLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "SKU-B", 10, 10)
	wh := env.seedWarehouse(t, "WH-B")

	_, err := env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID: item.ID, WarehouseID: wh.ID,
		Type: stock.MovementTypeIn, Quantity: 12, Actor: "tester",
	})
	require.NoError(t, err)

	// Drop to 7, below the reorder point of 10: low_stock raised for this
	// warehouse
	_, err = env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID: item.ID, WarehouseID: wh.ID,
		Type: stock.MovementTypeOut, Quantity: 5, Actor: "tester",
	})
	require.NoError(t, err)

	alert, err := env.alertRepo.FindOpen(ctx, item.ID, &wh.ID, stock.AlertTypeLowStock)
	require.NoError(t, err)
	assert.Equal(t, stock.AlertStateActive, alert.State)
	assert.Equal(t, int64(7), alert.Quantity)
	assert.Equal(t, stock.AlertPriorityMedium, alert.Priority)

	// Replenish to 27: the alert resolves
	_, err = env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID: item.ID, WarehouseID: wh.ID,
		Type: stock.MovementTypeIn, Quantity: 20, Actor: "tester",
	})
	require.NoError(t, err)

	_, err = env.alertRepo.FindOpen(ctx, item.ID, &wh.ID, stock.AlertTypeLowStock)
	assert.True(t, shared.IsNotFound(err))

	resolved, err := env.alertRepo.FindByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, stock.AlertStateResolved, resolved.State)
}

func TestLedgerFlow_InsufficientStockRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "SKU-C", 0, 0)
	wh := env.seedWarehouse(t, "WH-C")

	_, err := env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID: item.ID, WarehouseID: wh.ID,
		Type: stock.MovementTypeIn, Quantity: 5, Actor: "tester",
	})
	require.NoError(t, err)

	_, err = env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID: item.ID, WarehouseID: wh.ID,
		Type: stock.MovementTypeOut, Quantity: 8, Actor: "tester",
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// Balance untouched, no out movement appended
	balance, err := env.stockRepo.FindByKey(ctx, item.ID, wh.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance.QuantityAvailable)

	count, err := env.moveRepo.CountByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLedgerFlow_TransferMovesStockAtomically(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "SKU-D", 0, 0)
	w1 := env.seedWarehouse(t, "WH-D1")
	w2 := env.seedWarehouse(t, "WH-D2")

	_, err := env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID: item.ID, WarehouseID: w1.ID,
		Type: stock.MovementTypeIn, Quantity: 20, UnitCost: cost(8), Actor: "tester",
	})
	require.NoError(t, err)

	resp, err := env.mutations.Transfer(ctx, stockapp.TransferRequest{
		ItemID:          item.ID,
		FromWarehouseID: w1.ID,
		ToWarehouseID:   w2.ID,
		Quantity:        10,
		Actor:           "tester",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), resp.OutLeg.QuantityAfter)
	assert.Equal(t, int64(10), resp.InLeg.QuantityAfter)

	// Both legs share the transfer reference and carry the source cost
	legs, err := env.moveRepo.FindByReference(ctx, stock.Reference{
		Kind: stock.ReferenceKindTransfer,
		ID:   resp.TransferID.String(),
	})
	require.NoError(t, err)
	require.Len(t, legs, 2)
	types := map[stock.MovementType]bool{legs[0].Type: true, legs[1].Type: true}
	assert.True(t, types[stock.MovementTypeOut] && types[stock.MovementTypeIn])
	assert.True(t, decimal.NewFromInt(8).Equal(legs[0].UnitCost))
	assert.True(t, decimal.NewFromInt(8).Equal(legs[1].UnitCost))

	dest, err := env.stockRepo.FindByKey(ctx, item.ID, w2.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8).Equal(dest.AverageCost))
}

func TestLedgerFlow_TransferInsufficientLeavesNoTrace(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "SKU-E", 0, 0)
	w1 := env.seedWarehouse(t, "WH-E1")
	w2 := env.seedWarehouse(t, "WH-E2")

	_, err := env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID: item.ID, WarehouseID: w1.ID,
		Type: stock.MovementTypeIn, Quantity: 3, Actor: "tester",
	})
	require.NoError(t, err)

	_, err = env.mutations.Transfer(ctx, stockapp.TransferRequest{
		ItemID:          item.ID,
		FromWarehouseID: w1.ID,
		ToWarehouseID:   w2.ID,
		Quantity:        10,
		Actor:           "tester",
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	source, err := env.stockRepo.FindByKey(ctx, item.ID, w1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), source.QuantityAvailable)

	count, err := env.moveRepo.CountByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "failed transfer must append no movements")
}

func TestLedgerFlow_ReservationAndShipment(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "SKU-F", 0, 0)
	wh := env.seedWarehouse(t, "WH-F")

	_, err := env.mutations.ApplyMovement(ctx, stockapp.MovementRequest{
		ItemID: item.ID, WarehouseID: wh.ID,
		Type: stock.MovementTypeIn, Quantity: 30, Actor: "tester",
	})
	require.NoError(t, err)

	balance, err := env.mutations.Reserve(ctx, stockapp.ReservationRequest{
		ItemID: item.ID, WarehouseID: wh.ID, Quantity: 10, Actor: "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance.QuantityAvailable)
	assert.Equal(t, int64(10), balance.QuantityReserved)

	// Reservations do not touch the ledger
	count, err := env.moveRepo.CountByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	shipped, err := env.mutations.ShipReserved(ctx, stockapp.ReservationRequest{
		ItemID: item.ID, WarehouseID: wh.ID, Quantity: 10, Actor: "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), shipped.QuantityAvailable)
	assert.Equal(t, int64(0), shipped.QuantityReserved)

	// Fulfilment is a single out movement
	count, err = env.moveRepo.CountByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLedgerFlow_LedgerReconstructsBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "SKU-G", 0, 0)
	wh := env.seedWarehouse(t, "WH-G")

	steps := []stockapp.MovementRequest{
		{ItemID: item.ID, WarehouseID: wh.ID, Type: stock.MovementTypeIn, Quantity: 40, Actor: "tester"},
		{ItemID: item.ID, WarehouseID: wh.ID, Type: stock.MovementTypeOut, Quantity: 15, Actor: "tester"},
		{ItemID: item.ID, WarehouseID: wh.ID, Type: stock.MovementTypeDamaged, Quantity: 3, Actor: "tester"},
		{ItemID: item.ID, WarehouseID: wh.ID, Type: stock.MovementTypeAdjustment, Delta: -2, Actor: "tester"},
		{ItemID: item.ID, WarehouseID: wh.ID, Type: stock.MovementTypeFound, Quantity: 5, Actor: "tester"},
	}
	for _, req := range steps {
		_, err := env.mutations.ApplyMovement(ctx, req)
		require.NoError(t, err)
	}

	movements, err := env.moveRepo.FindByKey(ctx, item.ID, wh.ID, shared.Filter{OrderBy: "created_at", OrderDir: "asc"})
	require.NoError(t, err)
	require.Len(t, movements, len(steps))

	var replayed int64
	for _, m := range movements {
		assert.Equal(t, replayed, m.QuantityBefore, "snapshots must chain")
		replayed += m.Delta
		assert.Equal(t, replayed, m.QuantityAfter)
	}

	balance, err := env.stockRepo.FindByKey(ctx, item.ID, wh.ID)
	require.NoError(t, err)
	assert.Equal(t, replayed, balance.QuantityAvailable)
}
