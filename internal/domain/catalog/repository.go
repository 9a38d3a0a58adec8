package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository defines persistence for catalog items.
type ItemRepository interface {
	// FindByID finds an item by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// FindByCode finds an item by its code.
	FindByCode(ctx context.Context, code string) (*InventoryItem, error)

	// FindAllActive returns all active items.
	FindAllActive(ctx context.Context) ([]InventoryItem, error)

	// Save creates or updates an item.
	Save(ctx context.Context, item *InventoryItem) error
}

// WarehouseRepository defines persistence for warehouses.
type WarehouseRepository interface {
	// FindByID finds a warehouse by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	// FindByCode finds a warehouse by its code.
	FindByCode(ctx context.Context, code string) (*Warehouse, error)

	// FindAllActive returns all active warehouses.
	FindAllActive(ctx context.Context) ([]Warehouse, error)

	// Save creates or updates a warehouse.
	Save(ctx context.Context, wh *Warehouse) error
}

// Reference resolves item and warehouse identities for the stock ledger.
// Implementations may cache; cached data refreshes on CatalogChanged events.
type Reference interface {
	// Item returns the catalog item, or shared.ErrUnknownItem if absent.
	Item(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// Warehouse returns the warehouse, or shared.ErrUnknownWarehouse if absent.
	Warehouse(ctx context.Context, id uuid.UUID) (*Warehouse, error)
}
