package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
// It queries the balance and alert tables directly for aggregated metrics.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// GetReservedQuantityByWarehouse returns total reserved quantity per warehouse.
func (p *GormStockMetricsProvider) GetReservedQuantityByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		WarehouseID      uuid.UUID `gorm:"column:warehouse_id"`
		ReservedQuantity int64     `gorm:"column:reserved_quantity"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("warehouse_stock").
		Select("warehouse_id, COALESCE(SUM(quantity_reserved), 0) as reserved_quantity").
		Group("warehouse_id").
		Having("SUM(quantity_reserved) > 0").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.WarehouseID] = r.ReservedQuantity
	}

	return m, nil
}

// GetOpenAlertCountByType returns the number of open alerts per alert type.
func (p *GormStockMetricsProvider) GetOpenAlertCountByType(ctx context.Context) (map[string]int64, error) {
	type result struct {
		Type  string `gorm:"column:type"`
		Count int64  `gorm:"column:count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("stock_alerts").
		Select("type, COUNT(*) as count").
		Where("state IN ?", []string{"active", "acknowledged"}).
		Group("type").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.Type] = r.Count
	}

	return m, nil
}
