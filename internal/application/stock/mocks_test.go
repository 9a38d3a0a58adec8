package stock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
)

// MockEventPublisher records published events.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// fakeReference resolves items and warehouses from in-memory maps.
type fakeReference struct {
	items      map[uuid.UUID]*catalog.InventoryItem
	warehouses map[uuid.UUID]*catalog.Warehouse
}

func newFakeReference() *fakeReference {
	return &fakeReference{
		items:      make(map[uuid.UUID]*catalog.InventoryItem),
		warehouses: make(map[uuid.UUID]*catalog.Warehouse),
	}
}

func (r *fakeReference) Item(_ context.Context, id uuid.UUID) (*catalog.InventoryItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, shared.ErrUnknownItem
	}
	return item, nil
}

func (r *fakeReference) Warehouse(_ context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	wh, ok := r.warehouses[id]
	if !ok {
		return nil, shared.ErrUnknownWarehouse
	}
	return wh, nil
}

// memStockRepo is a map-backed WarehouseStockRepository.
type memStockRepo struct {
	mu    sync.Mutex
	byKey map[string]*stock.WarehouseStock
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{byKey: make(map[string]*stock.WarehouseStock)}
}

func stockKey(itemID, warehouseID uuid.UUID) string {
	return itemID.String() + "/" + warehouseID.String()
}

func (r *memStockRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byKey {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memStockRepo) FindByKey(_ context.Context, itemID, warehouseID uuid.UUID) (*stock.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byKey[stockKey(itemID, warehouseID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (r *memStockRepo) GetOrCreate(_ context.Context, itemID, warehouseID uuid.UUID) (*stock.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stockKey(itemID, warehouseID)
	if s, ok := r.byKey[key]; ok {
		return s, nil
	}
	s, err := stock.NewWarehouseStock(itemID, warehouseID)
	if err != nil {
		return nil, err
	}
	r.byKey[key] = s
	return s, nil
}

func (r *memStockRepo) FindByItem(_ context.Context, itemID uuid.UUID) ([]stock.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.WarehouseStock, 0)
	for _, s := range r.byKey {
		if s.ItemID == itemID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memStockRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID, _ shared.Filter) ([]stock.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.WarehouseStock, 0)
	for _, s := range r.byKey {
		if s.WarehouseID == warehouseID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memStockRepo) SumAvailableByItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, s := range r.byKey {
		if s.ItemID == itemID {
			total += s.QuantityAvailable
		}
	}
	return total, nil
}

func (r *memStockRepo) FindAllKeys(_ context.Context) ([]stock.StockKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockKey, 0, len(r.byKey))
	for _, s := range r.byKey {
		out = append(out, stock.StockKey{ItemID: s.ItemID, WarehouseID: s.WarehouseID})
	}
	return out, nil
}

func (r *memStockRepo) Save(_ context.Context, s *stock.WarehouseStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[stockKey(s.ItemID, s.WarehouseID)] = s
	return nil
}

func (r *memStockRepo) SaveWithLock(ctx context.Context, s *stock.WarehouseStock) error {
	return r.Save(ctx, s)
}

// memMovementRepo is an append-only slice-backed StockMovementRepository.
type memMovementRepo struct {
	mu        sync.Mutex
	movements []stock.StockMovement
}

func newMemMovementRepo() *memMovementRepo {
	return &memMovementRepo{}
}

func (r *memMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.movements {
		if r.movements[i].ID == id {
			return &r.movements[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMovementRepo) Create(_ context.Context, m *stock.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memMovementRepo) FindByItem(_ context.Context, itemID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockMovement, 0)
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ItemID == itemID {
			out = append(out, r.movements[i])
		}
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *memMovementRepo) FindByKey(_ context.Context, itemID, warehouseID uuid.UUID, _ shared.Filter) ([]stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockMovement, 0)
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ItemID == itemID && r.movements[i].WarehouseID == warehouseID {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *memMovementRepo) FindByReference(_ context.Context, ref stock.Reference) ([]stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockMovement, 0)
	for i := range r.movements {
		if r.movements[i].Reference == ref {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *memMovementRepo) FindByDateRange(_ context.Context, from, to time.Time, _ shared.Filter) ([]stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockMovement, 0)
	for i := len(r.movements) - 1; i >= 0; i-- {
		d := r.movements[i].MovementDate
		if !d.Before(from) && d.Before(to) {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *memMovementRepo) CountByItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.movements {
		if r.movements[i].ItemID == itemID {
			n++
		}
	}
	return n, nil
}

// all returns a copy of every recorded movement, oldest first.
func (r *memMovementRepo) all() []stock.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockMovement, len(r.movements))
	copy(out, r.movements)
	return out
}

// memAlertRepo is a map-backed StockAlertRepository.
type memAlertRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]*stock.StockAlert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[uuid.UUID]*stock.StockAlert)}
}

func (r *memAlertRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (r *memAlertRepo) FindOpen(_ context.Context, itemID uuid.UUID, warehouseID *uuid.UUID, alertType stock.AlertType) (*stock.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.ItemID == itemID && a.Type == alertType && a.IsOpen() && sameWarehouse(a.WarehouseID, warehouseID) {
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func sameWarehouse(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *memAlertRepo) FindOpenByItem(_ context.Context, itemID uuid.UUID) ([]stock.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockAlert, 0)
	for _, a := range r.alerts {
		if a.ItemID == itemID && a.IsOpen() {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAlertRepo) FindByState(_ context.Context, state stock.AlertState, filter shared.Filter) ([]stock.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockAlert, 0)
	for _, a := range r.alerts {
		if a.State != state {
			continue
		}
		if priority, ok := filter.Filters["priority"]; ok && a.Priority != priority {
			continue
		}
		if alertType, ok := filter.Filters["type"]; ok && a.Type != alertType {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *memAlertRepo) Save(_ context.Context, a *stock.StockAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[a.ID] = a
	return nil
}

func (r *memAlertRepo) SaveWithLock(ctx context.Context, a *stock.StockAlert) error {
	return r.Save(ctx, a)
}

// memBatchRepo projects batches out of a memStockRepo.
type memBatchRepo struct {
	stocks *memStockRepo
}

func newMemBatchRepo(stocks *memStockRepo) *memBatchRepo {
	return &memBatchRepo{stocks: stocks}
}

func (r *memBatchRepo) FindExpiringBefore(_ context.Context, cutoff time.Time) ([]stock.ExpiringBatch, error) {
	r.stocks.mu.Lock()
	defer r.stocks.mu.Unlock()
	out := make([]stock.ExpiringBatch, 0)
	for _, s := range r.stocks.byKey {
		for _, b := range s.Batches {
			if b.HasStock() && b.ExpiryDate != nil && b.ExpiryDate.Before(cutoff) {
				out = append(out, stock.ExpiringBatch{
					Batch:       b,
					ItemID:      s.ItemID,
					WarehouseID: s.WarehouseID,
				})
			}
		}
	}
	return out, nil
}

var (
	_ catalog.Reference              = (*fakeReference)(nil)
	_ stock.WarehouseStockRepository = (*memStockRepo)(nil)
	_ stock.StockMovementRepository  = (*memMovementRepo)(nil)
	_ stock.StockAlertRepository     = (*memAlertRepo)(nil)
	_ stock.StockBatchRepository     = (*memBatchRepo)(nil)
)
