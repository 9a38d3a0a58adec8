package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
)

// CatalogService manages the reference data the stock ledger validates
// against: items with their alert thresholds, and warehouses.
type CatalogService struct {
	itemRepo       catalog.ItemRepository
	warehouseRepo  catalog.WarehouseRepository
	eventPublisher shared.EventPublisher
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(itemRepo catalog.ItemRepository, warehouseRepo catalog.WarehouseRepository) *CatalogService {
	return &CatalogService{
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events.
func (s *CatalogService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateItem creates a catalog item with its initial thresholds.
func (s *CatalogService) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	if existing, err := s.itemRepo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Item with this code already exists")
	} else if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}

	item, err := catalog.NewInventoryItem(req.Code, req.Name, req.Unit)
	if err != nil {
		return nil, err
	}
	if err := item.SetThresholds(req.MinStockLevel, req.MaxStockLevel, req.ReorderPoint, req.ReorderQuantity); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, item.GetDomainEvents())
	item.ClearDomainEvents()

	resp := toItemResponse(item)
	return &resp, nil
}

// GetItem returns one catalog item.
func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toItemResponse(item)
	return &resp, nil
}

// ListItems returns all active catalog items.
func (s *CatalogService) ListItems(ctx context.Context) ([]ItemResponse, error) {
	items, err := s.itemRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	return out, nil
}

// UpdateThresholds changes an item's alert thresholds. The next balance
// mutation re-evaluates alerts against the new levels.
func (s *CatalogService) UpdateThresholds(ctx context.Context, id uuid.UUID, req UpdateThresholdsRequest) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := item.SetThresholds(req.MinStockLevel, req.MaxStockLevel, req.ReorderPoint, req.ReorderQuantity); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, item.GetDomainEvents())
	item.ClearDomainEvents()

	resp := toItemResponse(item)
	return &resp, nil
}

// SetTrackable toggles threshold tracking for an item.
func (s *CatalogService) SetTrackable(ctx context.Context, id uuid.UUID, trackable bool) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item.SetTrackable(trackable)
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, item.GetDomainEvents())
	item.ClearDomainEvents()

	resp := toItemResponse(item)
	return &resp, nil
}

// DeactivateItem marks an item inactive. Existing balances remain readable.
func (s *CatalogService) DeactivateItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	item.Deactivate()
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return err
	}
	s.publishEvents(ctx, item.GetDomainEvents())
	item.ClearDomainEvents()
	return nil
}

// CreateWarehouse creates a warehouse.
func (s *CatalogService) CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	if existing, err := s.warehouseRepo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Warehouse with this code already exists")
	} else if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}

	wh, err := catalog.NewWarehouse(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.warehouseRepo.Save(ctx, wh); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, wh.GetDomainEvents())
	wh.ClearDomainEvents()

	resp := toWarehouseResponse(wh)
	return &resp, nil
}

// ListWarehouses returns all active warehouses.
func (s *CatalogService) ListWarehouses(ctx context.Context) ([]WarehouseResponse, error) {
	warehouses, err := s.warehouseRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WarehouseResponse, 0, len(warehouses))
	for i := range warehouses {
		out = append(out, toWarehouseResponse(&warehouses[i]))
	}
	return out, nil
}

func (s *CatalogService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func toItemResponse(item *catalog.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		Code:            item.Code,
		Name:            item.Name,
		Unit:            item.Unit,
		MinStockLevel:   item.MinStockLevel,
		MaxStockLevel:   item.MaxStockLevel,
		ReorderPoint:    item.ReorderPoint,
		ReorderQuantity: item.ReorderQuantity,
		Trackable:       item.Trackable,
		Active:          item.Active,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

func toWarehouseResponse(wh *catalog.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        wh.ID,
		Code:      wh.Code,
		Name:      wh.Name,
		Active:    wh.Active,
		CreatedAt: wh.CreatedAt,
	}
}
