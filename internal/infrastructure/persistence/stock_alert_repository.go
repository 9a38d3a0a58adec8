package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
)

// GormStockAlertRepository implements StockAlertRepository using GORM
type GormStockAlertRepository struct {
	db *gorm.DB
}

// NewGormStockAlertRepository creates a new GormStockAlertRepository
func NewGormStockAlertRepository(db *gorm.DB) *GormStockAlertRepository {
	return &GormStockAlertRepository{db: db}
}

// FindByID finds an alert by its ID
func (r *GormStockAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockAlert, error) {
	var alert stock.StockAlert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindOpen finds the open (active or acknowledged) alert for a deduplication
// key. At most one open alert exists per key.
func (r *GormStockAlertRepository) FindOpen(ctx context.Context, itemID uuid.UUID, warehouseID *uuid.UUID, alertType stock.AlertType) (*stock.StockAlert, error) {
	query := r.db.WithContext(ctx).
		Where("item_id = ? AND type = ? AND state IN ?",
			itemID, alertType, []stock.AlertState{stock.AlertStateActive, stock.AlertStateAcknowledged})

	if warehouseID == nil {
		query = query.Where("warehouse_id IS NULL")
	} else {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}

	var alert stock.StockAlert
	if err := query.First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindOpenByItem returns all open alerts for an item
func (r *GormStockAlertRepository) FindOpenByItem(ctx context.Context, itemID uuid.UUID) ([]stock.StockAlert, error) {
	var alerts []stock.StockAlert
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND state IN ?",
			itemID, []stock.AlertState{stock.AlertStateActive, stock.AlertStateAcknowledged}).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindByState returns alerts in a given state, newest first. The filter may
// narrow by "priority" and "type".
func (r *GormStockAlertRepository) FindByState(ctx context.Context, state stock.AlertState, filter shared.Filter) ([]stock.StockAlert, error) {
	var alerts []stock.StockAlert
	query := r.db.WithContext(ctx).
		Model(&stock.StockAlert{}).
		Where("state = ?", state)
	if priority, ok := filter.Filters["priority"]; ok {
		query = query.Where("priority = ?", priority)
	}
	if alertType, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", alertType)
	}
	query = applyFilter(query, filter, AlertSortFields, "created_at")

	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Save creates or updates an alert
func (r *GormStockAlertRepository) Save(ctx context.Context, alert *stock.StockAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockAlertRepository) SaveWithLock(ctx context.Context, alert *stock.StockAlert) error {
	result := r.db.WithContext(ctx).
		Model(alert).
		Where("id = ? AND version = ?", alert.ID, alert.Version-1).
		Updates(map[string]interface{}{
			"state":            alert.State,
			"priority":         alert.Priority,
			"message":          alert.Message,
			"quantity":         alert.Quantity,
			"threshold":        alert.Threshold,
			"last_observed_at": alert.LastObservedAt,
			"acknowledged_at":  alert.AcknowledgedAt,
			"acknowledged_by":  alert.AcknowledgedBy,
			"resolved_at":      alert.ResolvedAt,
			"resolved_by":      alert.ResolvedBy,
			"version":          alert.Version,
			"updated_at":       alert.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ stock.StockAlertRepository = (*GormStockAlertRepository)(nil)
