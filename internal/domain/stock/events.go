package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeBalanceChanged     = "StockBalanceChanged"
	EventTypeStockCostChanged   = "StockCostChanged"
	EventTypeMovementRecorded   = "StockMovementRecorded"
	EventTypeStockAlertRaised   = "StockAlertRaised"
	EventTypeStockAlertResolved = "StockAlertResolved"
	EventTypeReservationChanged = "StockReservationChanged"
)

// BalanceChangedEvent is raised whenever a balance mutation commits. The
// alert engine and read-model caches react to it.
type BalanceChangedEvent struct {
	shared.BaseDomainEvent
	ItemID            uuid.UUID    `json:"item_id"`
	WarehouseID       uuid.UUID    `json:"warehouse_id"`
	MovementType      MovementType `json:"movement_type"`
	QuantityAvailable int64        `json:"quantity_available"`
	QuantityReserved  int64        `json:"quantity_reserved"`
}

// NewBalanceChangedEvent creates a new BalanceChangedEvent.
func NewBalanceChangedEvent(s *WarehouseStock, movementType MovementType) *BalanceChangedEvent {
	return &BalanceChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeBalanceChanged, "WarehouseStock", s.ID),
		ItemID:            s.ItemID,
		WarehouseID:       s.WarehouseID,
		MovementType:      movementType,
		QuantityAvailable: s.QuantityAvailable,
		QuantityReserved:  s.QuantityReserved,
	}
}

// EventType returns the event type name.
func (e *BalanceChangedEvent) EventType() string {
	return EventTypeBalanceChanged
}

// StockCostChangedEvent is raised when the weighted-average cost moves.
type StockCostChangedEvent struct {
	shared.BaseDomainEvent
	ItemID      uuid.UUID       `json:"item_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	OldCost     decimal.Decimal `json:"old_cost"`
	NewCost     decimal.Decimal `json:"new_cost"`
}

// NewStockCostChangedEvent creates a new StockCostChangedEvent.
func NewStockCostChangedEvent(s *WarehouseStock, oldCost, newCost decimal.Decimal) *StockCostChangedEvent {
	return &StockCostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockCostChanged, "WarehouseStock", s.ID),
		ItemID:          s.ItemID,
		WarehouseID:     s.WarehouseID,
		OldCost:         oldCost,
		NewCost:         newCost,
	}
}

// EventType returns the event type name.
func (e *StockCostChangedEvent) EventType() string {
	return EventTypeStockCostChanged
}

// MovementRecordedEvent is raised after a ledger entry is written.
type MovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID  uuid.UUID    `json:"movement_id"`
	ItemID      uuid.UUID    `json:"item_id"`
	WarehouseID uuid.UUID    `json:"warehouse_id"`
	Type        MovementType `json:"type"`
	Delta       int64        `json:"delta"`
}

// NewMovementRecordedEvent creates a new MovementRecordedEvent.
func NewMovementRecordedEvent(m *StockMovement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementRecorded, "StockMovement", m.ID),
		MovementID:      m.ID,
		ItemID:          m.ItemID,
		WarehouseID:     m.WarehouseID,
		Type:            m.Type,
		Delta:           m.Delta,
	}
}

// EventType returns the event type name.
func (e *MovementRecordedEvent) EventType() string {
	return EventTypeMovementRecorded
}

// StockAlertRaisedEvent is raised when a new alert opens.
type StockAlertRaisedEvent struct {
	shared.BaseDomainEvent
	ItemID      uuid.UUID     `json:"item_id"`
	WarehouseID *uuid.UUID    `json:"warehouse_id,omitempty"`
	AlertType   AlertType     `json:"alert_type"`
	Priority    AlertPriority `json:"priority"`
	Quantity    int64         `json:"quantity"`
	Threshold   int64         `json:"threshold"`
}

// NewStockAlertRaisedEvent creates a new StockAlertRaisedEvent.
func NewStockAlertRaisedEvent(a *StockAlert) *StockAlertRaisedEvent {
	return &StockAlertRaisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAlertRaised, "StockAlert", a.ID),
		ItemID:          a.ItemID,
		WarehouseID:     a.WarehouseID,
		AlertType:       a.Type,
		Priority:        a.Priority,
		Quantity:        a.Quantity,
		Threshold:       a.Threshold,
	}
}

// EventType returns the event type name.
func (e *StockAlertRaisedEvent) EventType() string {
	return EventTypeStockAlertRaised
}

// StockAlertResolvedEvent is raised when an alert closes.
type StockAlertResolvedEvent struct {
	shared.BaseDomainEvent
	ItemID    uuid.UUID `json:"item_id"`
	AlertType AlertType `json:"alert_type"`
}

// NewStockAlertResolvedEvent creates a new StockAlertResolvedEvent.
func NewStockAlertResolvedEvent(a *StockAlert) *StockAlertResolvedEvent {
	return &StockAlertResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAlertResolved, "StockAlert", a.ID),
		ItemID:          a.ItemID,
		AlertType:       a.Type,
	}
}

// EventType returns the event type name.
func (e *StockAlertResolvedEvent) EventType() string {
	return EventTypeStockAlertResolved
}

// ReservationChangedEvent is raised when stock is reserved or released.
// Reservations move stock between the available and reserved buckets without
// a ledger entry, so caches and the alert engine listen for this separately.
type ReservationChangedEvent struct {
	shared.BaseDomainEvent
	ItemID            uuid.UUID `json:"item_id"`
	WarehouseID       uuid.UUID `json:"warehouse_id"`
	QuantityAvailable int64     `json:"quantity_available"`
	QuantityReserved  int64     `json:"quantity_reserved"`
}

// NewReservationChangedEvent creates a new ReservationChangedEvent.
func NewReservationChangedEvent(s *WarehouseStock) *ReservationChangedEvent {
	return &ReservationChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeReservationChanged, "WarehouseStock", s.ID),
		ItemID:            s.ItemID,
		WarehouseID:       s.WarehouseID,
		QuantityAvailable: s.QuantityAvailable,
		QuantityReserved:  s.QuantityReserved,
	}
}

// EventType returns the event type name.
func (e *ReservationChangedEvent) EventType() string {
	return EventTypeReservationChanged
}
