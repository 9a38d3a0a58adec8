package catalog

import (
	"strings"

	"github.com/logistics/backend/internal/domain/shared"
)

// InventoryItem is reference data describing a stock-keeping unit, owned by
// the catalog and read-only to the stock ledger. Thresholds drive the stock
// status derivation and alert rules.
type InventoryItem struct {
	shared.BaseAggregateRoot
	Code            string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string `gorm:"type:varchar(200);not null"`
	Unit            string `gorm:"type:varchar(20);not null"` // base unit, e.g. "pcs", "kg", "box"
	MinStockLevel   int64  `gorm:"not null;default:0"`
	MaxStockLevel   int64  `gorm:"not null;default:0"` // 0 means no upper bound
	ReorderPoint    int64  `gorm:"not null;default:0"`
	ReorderQuantity int64  `gorm:"not null;default:0"`
	Trackable       bool   `gorm:"not null;default:true"` // non-trackable items bypass ledger enforcement
	Active          bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM.
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new catalog item.
func NewInventoryItem(code, name, unit string) (*InventoryItem, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Item code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Item unit cannot be empty")
	}

	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Unit:              unit,
		Trackable:         true,
		Active:            true,
	}, nil
}

// SetThresholds updates the stock thresholds for the item.
func (i *InventoryItem) SetThresholds(minLevel, maxLevel, reorderPoint, reorderQty int64) error {
	if minLevel < 0 || maxLevel < 0 || reorderPoint < 0 || reorderQty < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Thresholds cannot be negative")
	}
	if maxLevel > 0 && minLevel > maxLevel {
		return shared.NewDomainError("INVALID_THRESHOLD", "Minimum level cannot exceed maximum level")
	}
	i.MinStockLevel = minLevel
	i.MaxStockLevel = maxLevel
	i.ReorderPoint = reorderPoint
	i.ReorderQuantity = reorderQty
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewCatalogChangedEvent(i.ID, ChangeKindItem))
	return nil
}

// SetTrackable toggles ledger enforcement for the item.
func (i *InventoryItem) SetTrackable(trackable bool) {
	i.Trackable = trackable
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewCatalogChangedEvent(i.ID, ChangeKindItem))
}

// Deactivate marks the item as no longer orderable. Existing balances remain.
func (i *InventoryItem) Deactivate() {
	if !i.Active {
		return
	}
	i.Active = false
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewCatalogChangedEvent(i.ID, ChangeKindItem))
}

// HasMaxLevel reports whether the item defines an overstock ceiling.
func (i *InventoryItem) HasMaxLevel() bool {
	return i.MaxStockLevel > 0
}
