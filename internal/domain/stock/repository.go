package stock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/logistics/backend/internal/domain/shared"
)

// WarehouseStockRepository defines persistence for warehouse stock balances.
type WarehouseStockRepository interface {
	// FindByID finds a balance row by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*WarehouseStock, error)

	// FindByKey finds the balance row for an (item, warehouse) pair.
	FindByKey(ctx context.Context, itemID, warehouseID uuid.UUID) (*WarehouseStock, error)

	// GetOrCreate returns the balance row for an (item, warehouse) pair,
	// creating an empty one if none exists.
	GetOrCreate(ctx context.Context, itemID, warehouseID uuid.UUID) (*WarehouseStock, error)

	// FindByItem returns all balance rows for an item across warehouses.
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]WarehouseStock, error)

	// FindByWarehouse returns balance rows in a warehouse.
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]WarehouseStock, error)

	// SumAvailableByItem sums available quantity for an item across all warehouses.
	SumAvailableByItem(ctx context.Context, itemID uuid.UUID) (int64, error)

	// FindAllKeys returns every (item, warehouse) pair that has a balance
	// row. Used by the recovery sweep to re-evaluate threshold alerts.
	FindAllKeys(ctx context.Context) ([]StockKey, error)

	// Save creates or updates a balance row.
	Save(ctx context.Context, stock *WarehouseStock) error

	// SaveWithLock saves with optimistic locking (checks version).
	SaveWithLock(ctx context.Context, stock *WarehouseStock) error
}

// StockMovementRepository defines persistence for the append-only movement
// ledger. Movements are only ever inserted; there is no update or delete.
type StockMovementRepository interface {
	// FindByID finds a movement by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// Create appends a movement to the ledger.
	Create(ctx context.Context, movement *StockMovement) error

	// FindByItem returns movements for an item, newest first.
	FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByKey returns movements for an (item, warehouse) pair, newest first.
	FindByKey(ctx context.Context, itemID, warehouseID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByReference returns both legs of a transfer or any movements that
	// share a reference.
	FindByReference(ctx context.Context, ref Reference) ([]StockMovement, error)

	// FindByDateRange returns movements inside [from, to), newest first.
	FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]StockMovement, error)

	// CountByItem counts ledger entries for an item.
	CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

// StockKey identifies one (item, warehouse) balance.
type StockKey struct {
	ItemID      uuid.UUID
	WarehouseID uuid.UUID
}

// ExpiringBatch is a cross-aggregate projection joining a batch to its
// owning (item, warehouse) key. Used by the expiry sweep.
type ExpiringBatch struct {
	Batch       StockBatch
	ItemID      uuid.UUID
	WarehouseID uuid.UUID
}

// StockBatchRepository defines read access to outstanding batches. Batches
// are written through the WarehouseStock aggregate; this interface exists for
// the expiry sweep, which scans across aggregates.
type StockBatchRepository interface {
	// FindExpiringBefore returns unconsumed batches whose expiry falls
	// before the cutoff.
	FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]ExpiringBatch, error)
}

// StockAlertRepository defines persistence for stock alerts.
type StockAlertRepository interface {
	// FindByID finds an alert by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*StockAlert, error)

	// FindOpen finds the open (active or acknowledged) alert for a
	// deduplication key, or shared.ErrNotFound if none is open.
	FindOpen(ctx context.Context, itemID uuid.UUID, warehouseID *uuid.UUID, alertType AlertType) (*StockAlert, error)

	// FindOpenByItem returns all open alerts for an item.
	FindOpenByItem(ctx context.Context, itemID uuid.UUID) ([]StockAlert, error)

	// FindByState returns alerts in a given state, newest first.
	FindByState(ctx context.Context, state AlertState, filter shared.Filter) ([]StockAlert, error)

	// Save creates or updates an alert.
	Save(ctx context.Context, alert *StockAlert) error

	// SaveWithLock saves with optimistic locking (checks version).
	SaveWithLock(ctx context.Context, alert *StockAlert) error
}
