package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
)

// GormStockMovementRepository implements StockMovementRepository using GORM.
// The ledger is append-only: the repository exposes Create and reads, never
// update or delete.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// FindByID finds a movement by its ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockMovement, error) {
	var movement stock.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// Create appends a movement to the ledger
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *stock.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByItem returns movements for an item, newest first
func (r *GormStockMovementRepository) FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	var movements []stock.StockMovement
	query := r.db.WithContext(ctx).
		Model(&stock.StockMovement{}).
		Where("item_id = ?", itemID)
	query = applyFilter(query, filter, MovementSortFields, "movement_date")

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByKey returns movements for an (item, warehouse) pair, newest first
func (r *GormStockMovementRepository) FindByKey(ctx context.Context, itemID, warehouseID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	var movements []stock.StockMovement
	query := r.db.WithContext(ctx).
		Model(&stock.StockMovement{}).
		Where("item_id = ? AND warehouse_id = ?", itemID, warehouseID)
	query = applyFilter(query, filter, MovementSortFields, "movement_date")

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByReference returns all movements that share a reference, oldest first
// so that the legs of a transfer come back in posting order
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, ref stock.Reference) ([]stock.StockMovement, error) {
	var movements []stock.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Order("movement_date ASC, created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByDateRange returns movements inside [from, to), newest first
func (r *GormStockMovementRepository) FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]stock.StockMovement, error) {
	var movements []stock.StockMovement
	query := r.db.WithContext(ctx).
		Model(&stock.StockMovement{}).
		Where("movement_date >= ? AND movement_date < ?", from, to)
	query = applyFilter(query, filter, MovementSortFields, "movement_date")

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// CountByItem counts ledger entries for an item
func (r *GormStockMovementRepository) CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.StockMovement{}).
		Where("item_id = ?", itemID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ stock.StockMovementRepository = (*GormStockMovementRepository)(nil)
