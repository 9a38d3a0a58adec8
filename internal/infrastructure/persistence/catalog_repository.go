package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
)

// GormItemRepository implements catalog.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.InventoryItem, error) {
	var item catalog.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByCode finds an item by its code
func (r *GormItemRepository) FindByCode(ctx context.Context, code string) (*catalog.InventoryItem, error) {
	var item catalog.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindAllActive returns all active items
func (r *GormItemRepository) FindAllActive(ctx context.Context) ([]catalog.InventoryItem, error) {
	var items []catalog.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates an item
func (r *GormItemRepository) Save(ctx context.Context, item *catalog.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

var _ catalog.ItemRepository = (*GormItemRepository)(nil)

// GormWarehouseRepository implements catalog.WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	var wh catalog.Warehouse
	if err := r.db.WithContext(ctx).First(&wh, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &wh, nil
}

// FindByCode finds a warehouse by its code
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, code string) (*catalog.Warehouse, error) {
	var wh catalog.Warehouse
	if err := r.db.WithContext(ctx).First(&wh, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &wh, nil
}

// FindAllActive returns all active warehouses
func (r *GormWarehouseRepository) FindAllActive(ctx context.Context) ([]catalog.Warehouse, error) {
	var warehouses []catalog.Warehouse
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// Save creates or updates a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, wh *catalog.Warehouse) error {
	return r.db.WithContext(ctx).Save(wh).Error
}

var _ catalog.WarehouseRepository = (*GormWarehouseRepository)(nil)
