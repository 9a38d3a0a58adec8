package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
)

// GormWarehouseStockRepository implements WarehouseStockRepository using GORM
type GormWarehouseStockRepository struct {
	db *gorm.DB
}

// NewGormWarehouseStockRepository creates a new GormWarehouseStockRepository
func NewGormWarehouseStockRepository(db *gorm.DB) *GormWarehouseStockRepository {
	return &GormWarehouseStockRepository{db: db}
}

// FindByID finds a balance row by its ID
func (r *GormWarehouseStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.WarehouseStock, error) {
	var row stock.WarehouseStock
	if err := r.db.WithContext(ctx).
		Preload("Batches").
		First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// FindByKey finds the balance row for an (item, warehouse) pair
func (r *GormWarehouseStockRepository) FindByKey(ctx context.Context, itemID, warehouseID uuid.UUID) (*stock.WarehouseStock, error) {
	var row stock.WarehouseStock
	if err := r.db.WithContext(ctx).
		Preload("Batches").
		Where("item_id = ? AND warehouse_id = ?", itemID, warehouseID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// GetOrCreate returns the balance row for an (item, warehouse) pair, creating
// an empty one when none exists
func (r *GormWarehouseStockRepository) GetOrCreate(ctx context.Context, itemID, warehouseID uuid.UUID) (*stock.WarehouseStock, error) {
	row, err := r.FindByKey(ctx, itemID, warehouseID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	row, err = stock.NewWarehouseStock(itemID, warehouseID)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT handles a concurrent insert of the same key
	result := r.db.WithContext(ctx).
		Omit("Batches").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "warehouse_id"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return nil, result.Error
	}

	// If the row wasn't created (conflict), fetch the existing one
	if result.RowsAffected == 0 {
		return r.FindByKey(ctx, itemID, warehouseID)
	}
	return row, nil
}

// FindByItem returns all balance rows for an item across warehouses
func (r *GormWarehouseStockRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]stock.WarehouseStock, error) {
	var rows []stock.WarehouseStock
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("warehouse_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByWarehouse returns balance rows in a warehouse
func (r *GormWarehouseStockRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]stock.WarehouseStock, error) {
	var rows []stock.WarehouseStock
	query := r.db.WithContext(ctx).
		Model(&stock.WarehouseStock{}).
		Where("warehouse_id = ?", warehouseID)
	query = applyFilter(query, filter, WarehouseStockSortFields, "created_at")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumAvailableByItem sums available quantity for an item across all warehouses
func (r *GormWarehouseStockRepository) SumAvailableByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var result struct {
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&stock.WarehouseStock{}).
		Select("COALESCE(SUM(quantity_available), 0) as total").
		Where("item_id = ?", itemID).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

// FindAllKeys returns every (item, warehouse) pair that has a balance row
func (r *GormWarehouseStockRepository) FindAllKeys(ctx context.Context) ([]stock.StockKey, error) {
	var keys []stock.StockKey
	if err := r.db.WithContext(ctx).
		Model(&stock.WarehouseStock{}).
		Select("item_id", "warehouse_id").
		Order("item_id ASC, warehouse_id ASC").
		Scan(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Save creates or updates a balance row together with its batches
func (r *GormWarehouseStockRepository) Save(ctx context.Context, row *stock.WarehouseStock) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(row).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormWarehouseStockRepository) SaveWithLock(ctx context.Context, row *stock.WarehouseStock) error {
	result := r.db.WithContext(ctx).
		Model(row).
		Where("id = ? AND version = ?", row.ID, row.Version-1).
		Updates(map[string]interface{}{
			"quantity_available": row.QuantityAvailable,
			"quantity_reserved":  row.QuantityReserved,
			"quantity_damaged":   row.QuantityDamaged,
			"average_cost":       row.AverageCost,
			"location":           row.Location,
			"last_counted_at":    row.LastCountedAt,
			"version":            row.Version,
			"updated_at":         row.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	return r.saveBatches(ctx, row)
}

// saveBatches upserts the batch rows attached to the aggregate
func (r *GormWarehouseStockRepository) saveBatches(ctx context.Context, row *stock.WarehouseStock) error {
	if len(row.Batches) == 0 {
		return nil
	}
	batches := make([]stock.StockBatch, len(row.Batches))
	copy(batches, row.Batches)
	for i := range batches {
		batches[i].WarehouseStockID = row.ID
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&batches).Error
}

// applyFilter applies limit, offset, and validated ordering to the query
func applyFilter(query *gorm.DB, filter shared.Filter, allowedFields map[string]bool, defaultField string) *gorm.DB {
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	field := ValidateSortField(filter.OrderBy, allowedFields, defaultField)
	return query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
}

var _ stock.WarehouseStockRepository = (*GormWarehouseStockRepository)(nil)
