package catalog

import (
	"github.com/google/uuid"

	"github.com/logistics/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeCatalogChanged = "CatalogChanged"
)

// ChangeKind identifies which kind of catalog record changed.
type ChangeKind string

const (
	ChangeKindItem      ChangeKind = "item"
	ChangeKindWarehouse ChangeKind = "warehouse"
)

// CatalogChangedEvent is raised when catalog reference data changes.
// Consumers holding cached catalog data refresh on receipt.
type CatalogChangedEvent struct {
	shared.BaseDomainEvent
	Kind ChangeKind `json:"kind"`
}

// NewCatalogChangedEvent creates a new CatalogChangedEvent.
func NewCatalogChangedEvent(id uuid.UUID, kind ChangeKind) *CatalogChangedEvent {
	aggType := "InventoryItem"
	if kind == ChangeKindWarehouse {
		aggType = "Warehouse"
	}
	return &CatalogChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCatalogChanged, aggType, id),
		Kind:            kind,
	}
}

// EventType returns the event type name.
func (e *CatalogChangedEvent) EventType() string {
	return EventTypeCatalogChanged
}
