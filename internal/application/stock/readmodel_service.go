package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
)

// QuantityCache caches derived quantity totals. Implementations must be safe
// for concurrent use; a miss is (0, false), never an error surfaced to reads.
type QuantityCache interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) (int64, bool)
	// Set stores the value for key with a TTL.
	Set(ctx context.Context, key string, value int64, ttl time.Duration)
	// Delete drops keys from the cache.
	Delete(ctx context.Context, keys ...string)
}

// DefaultCacheTTL bounds staleness if an invalidation is missed.
const DefaultCacheTTL = 5 * time.Minute

// ReadModelService serves the derived read views: quantity totals, warehouse
// breakdowns, movement history, and open alerts. Totals are cached; the
// cache is invalidated by balance and reservation events.
type ReadModelService struct {
	stockRepo    stock.WarehouseStockRepository
	movementRepo stock.StockMovementRepository
	alertRepo    stock.StockAlertRepository
	cache        QuantityCache
	cacheTTL     time.Duration
}

// NewReadModelService creates a ReadModelService. cache may be nil, in which
// case every read goes to the repository.
func NewReadModelService(
	stockRepo stock.WarehouseStockRepository,
	movementRepo stock.StockMovementRepository,
	alertRepo stock.StockAlertRepository,
	cache QuantityCache,
) *ReadModelService {
	return &ReadModelService{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		alertRepo:    alertRepo,
		cache:        cache,
		cacheTTL:     DefaultCacheTTL,
	}
}

// SetCacheTTL overrides how long cached totals are kept.
func (s *ReadModelService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// TotalQuantity returns the item's available quantity summed across all
// warehouses.
func (s *ReadModelService) TotalQuantity(ctx context.Context, itemID uuid.UUID) (int64, error) {
	key := totalKey(itemID)
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, key); ok {
			return v, nil
		}
	}

	total, err := s.stockRepo.SumAvailableByItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, total, s.cacheTTL)
	}
	return total, nil
}

// AvailableQuantity returns the available quantity for one (item, warehouse)
// pair. A pair with no balance row reads as zero.
func (s *ReadModelService) AvailableQuantity(ctx context.Context, itemID, warehouseID uuid.UUID) (int64, error) {
	key := availableKey(itemID, warehouseID)
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, key); ok {
			return v, nil
		}
	}

	balance, err := s.stockRepo.FindByKey(ctx, itemID, warehouseID)
	if err != nil {
		if shared.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, balance.QuantityAvailable, s.cacheTTL)
	}
	return balance.QuantityAvailable, nil
}

// Breakdown returns the item's per-warehouse balance rows.
func (s *ReadModelService) Breakdown(ctx context.Context, itemID uuid.UUID) ([]BalanceResponse, error) {
	balances, err := s.stockRepo.FindByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	out := make([]BalanceResponse, 0, len(balances))
	for i := range balances {
		out = append(out, ToBalanceResponse(&balances[i]))
	}
	return out, nil
}

// RecentMovements returns the item's ledger entries, newest first.
func (s *ReadModelService) RecentMovements(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]MovementListItem, error) {
	movements, err := s.movementRepo.FindByItem(ctx, itemID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]MovementListItem, 0, len(movements))
	for i := range movements {
		out = append(out, ToMovementListItem(&movements[i]))
	}
	return out, nil
}

// MovementsForReference returns all ledger entries sharing a reference, e.g.
// both legs of a transfer.
func (s *ReadModelService) MovementsForReference(ctx context.Context, ref stock.Reference) ([]MovementListItem, error) {
	movements, err := s.movementRepo.FindByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	out := make([]MovementListItem, 0, len(movements))
	for i := range movements {
		out = append(out, ToMovementListItem(&movements[i]))
	}
	return out, nil
}

// OpenAlerts returns the item's open alerts.
func (s *ReadModelService) OpenAlerts(ctx context.Context, itemID uuid.UUID) ([]AlertResponse, error) {
	alerts, err := s.alertRepo.FindOpenByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	out := make([]AlertResponse, 0, len(alerts))
	for i := range alerts {
		out = append(out, ToAlertResponse(&alerts[i]))
	}
	return out, nil
}

func totalKey(itemID uuid.UUID) string {
	return fmt.Sprintf("stock:total:%s", itemID)
}

func availableKey(itemID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("stock:available:%s:%s", itemID, warehouseID)
}

// CacheInvalidationHandler drops cached totals when balances move.
type CacheInvalidationHandler struct {
	cache  QuantityCache
	logger *zap.Logger
}

// NewCacheInvalidationHandler creates a CacheInvalidationHandler.
func NewCacheInvalidationHandler(cache QuantityCache, logger *zap.Logger) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{cache: cache, logger: logger}
}

// EventTypes returns the event types this handler is interested in.
func (h *CacheInvalidationHandler) EventTypes() []string {
	return []string{stock.EventTypeBalanceChanged, stock.EventTypeReservationChanged}
}

// Handle invalidates the affected item's cached totals.
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *stock.BalanceChangedEvent:
		h.cache.Delete(ctx, totalKey(e.ItemID), availableKey(e.ItemID, e.WarehouseID))
	case *stock.ReservationChangedEvent:
		h.cache.Delete(ctx, totalKey(e.ItemID), availableKey(e.ItemID, e.WarehouseID))
	}
	return nil
}

var _ shared.EventHandler = (*CacheInvalidationHandler)(nil)
