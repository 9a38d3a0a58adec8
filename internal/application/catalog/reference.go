package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
)

// DefaultReferenceTTL bounds how long a cached catalog record is served
// without a repository read.
const DefaultReferenceTTL = 10 * time.Minute

// CachedReference implements catalog.Reference with a process-local cache in
// front of the repositories. Stock mutations resolve the same handful of
// items and warehouses on every call, so cache hits dominate. Entries are
// dropped on CatalogChanged events and refreshed lazily.
type CachedReference struct {
	itemRepo      catalog.ItemRepository
	warehouseRepo catalog.WarehouseRepository
	ttl           time.Duration

	mu         sync.RWMutex
	items      map[uuid.UUID]referenceEntry[catalog.InventoryItem]
	warehouses map[uuid.UUID]referenceEntry[catalog.Warehouse]
}

type referenceEntry[T any] struct {
	value     *T
	expiresAt time.Time
}

func (e referenceEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewCachedReference creates a CachedReference over the catalog repositories.
func NewCachedReference(itemRepo catalog.ItemRepository, warehouseRepo catalog.WarehouseRepository) *CachedReference {
	return &CachedReference{
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		ttl:           DefaultReferenceTTL,
		items:         make(map[uuid.UUID]referenceEntry[catalog.InventoryItem]),
		warehouses:    make(map[uuid.UUID]referenceEntry[catalog.Warehouse]),
	}
}

// SetTTL overrides the cache entry lifetime.
func (r *CachedReference) SetTTL(ttl time.Duration) {
	r.ttl = ttl
}

// Item returns the catalog item, or shared.ErrUnknownItem if absent.
func (r *CachedReference) Item(ctx context.Context, id uuid.UUID) (*catalog.InventoryItem, error) {
	r.mu.RLock()
	entry, ok := r.items[id]
	r.mu.RUnlock()
	if ok && !entry.isExpired() {
		return entry.value, nil
	}

	item, err := r.itemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownItem
		}
		return nil, err
	}

	r.mu.Lock()
	r.items[id] = referenceEntry[catalog.InventoryItem]{value: item, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return item, nil
}

// Warehouse returns the warehouse, or shared.ErrUnknownWarehouse if absent.
func (r *CachedReference) Warehouse(ctx context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	r.mu.RLock()
	entry, ok := r.warehouses[id]
	r.mu.RUnlock()
	if ok && !entry.isExpired() {
		return entry.value, nil
	}

	wh, err := r.warehouseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownWarehouse
		}
		return nil, err
	}

	r.mu.Lock()
	r.warehouses[id] = referenceEntry[catalog.Warehouse]{value: wh, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return wh, nil
}

// Invalidate drops the cached record for an ID, item or warehouse.
func (r *CachedReference) Invalidate(id uuid.UUID) {
	r.mu.Lock()
	delete(r.items, id)
	delete(r.warehouses, id)
	r.mu.Unlock()
}

var _ catalog.Reference = (*CachedReference)(nil)

// ReferenceInvalidationHandler drops cached catalog records when the catalog
// changes, so threshold updates take effect on the next stock mutation.
type ReferenceInvalidationHandler struct {
	reference *CachedReference
}

// NewReferenceInvalidationHandler creates a ReferenceInvalidationHandler.
func NewReferenceInvalidationHandler(reference *CachedReference) *ReferenceInvalidationHandler {
	return &ReferenceInvalidationHandler{reference: reference}
}

// EventTypes returns the event types this handler subscribes to.
func (h *ReferenceInvalidationHandler) EventTypes() []string {
	return []string{catalog.EventTypeCatalogChanged}
}

// Handle drops the cache entry for the changed record.
func (h *ReferenceInvalidationHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if e, ok := event.(*catalog.CatalogChangedEvent); ok {
		h.reference.Invalidate(e.AggregateID())
	}
	return nil
}

var _ shared.EventHandler = (*ReferenceInvalidationHandler)(nil)
