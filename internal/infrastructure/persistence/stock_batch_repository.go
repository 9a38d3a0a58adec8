package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logistics/backend/internal/domain/stock"
)

// GormStockBatchRepository implements StockBatchRepository using GORM. It
// only reads: batches are written through the WarehouseStock aggregate.
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

// FindExpiringBefore returns unconsumed batches expiring before the cutoff,
// joined to their owning (item, warehouse) key
func (r *GormStockBatchRepository) FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]stock.ExpiringBatch, error) {
	type joined struct {
		stock.StockBatch
		ItemID      uuid.UUID
		WarehouseID uuid.UUID
	}

	var rows []joined
	if err := r.db.WithContext(ctx).
		Table("stock_batches").
		Select("stock_batches.*, warehouse_stock.item_id AS item_id, warehouse_stock.warehouse_id AS warehouse_id").
		Joins("JOIN warehouse_stock ON warehouse_stock.id = stock_batches.warehouse_stock_id").
		Where("stock_batches.consumed = ? AND stock_batches.expiry_date IS NOT NULL AND stock_batches.expiry_date < ?", false, cutoff).
		Order("stock_batches.expiry_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]stock.ExpiringBatch, 0, len(rows))
	for _, row := range rows {
		result = append(result, stock.ExpiringBatch{
			Batch:       row.StockBatch,
			ItemID:      row.ItemID,
			WarehouseID: row.WarehouseID,
		})
	}
	return result, nil
}

var _ stock.StockBatchRepository = (*GormStockBatchRepository)(nil)
