package catalog

import (
	"strings"

	"github.com/logistics/backend/internal/domain/shared"
)

// Warehouse is reference data identifying a stock location.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code   string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name   string `gorm:"type:varchar(200);not null"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM.
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse.
func NewWarehouse(code, name string) (*Warehouse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}
	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Active:            true,
	}, nil
}

// Deactivate marks the warehouse as closed for new movements.
func (w *Warehouse) Deactivate() {
	if !w.Active {
		return
	}
	w.Active = false
	w.Touch()
	w.IncrementVersion()
	w.AddDomainEvent(NewCatalogChangedEvent(w.ID, ChangeKindWarehouse))
}
