package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/logistics/backend/internal/domain/shared"
)

// AlertType classifies a stock alert.
type AlertType string

const (
	// AlertTypeLowStock fires when a warehouse's available stock drops to
	// or below the item's reorder point.
	AlertTypeLowStock AlertType = "low_stock"
	// AlertTypeOutOfStock fires when a warehouse's available stock reaches
	// zero.
	AlertTypeOutOfStock AlertType = "out_of_stock"
	// AlertTypeOverstock fires when a warehouse's available stock exceeds
	// the item's maximum level.
	AlertTypeOverstock AlertType = "overstock"
	// AlertTypeExpiring fires when a batch enters its expiry window.
	AlertTypeExpiring AlertType = "expiring"
	// AlertTypeExpired fires when a batch with remaining stock has expired.
	AlertTypeExpired AlertType = "expired"
)

// IsValid reports whether the alert type is known.
func (t AlertType) IsValid() bool {
	switch t {
	case AlertTypeLowStock, AlertTypeOutOfStock, AlertTypeOverstock,
		AlertTypeExpiring, AlertTypeExpired:
		return true
	}
	return false
}

// AlertPriority ranks how urgently an alert needs attention.
type AlertPriority string

const (
	// AlertPriorityLow marks informational breaches, e.g. overstock.
	AlertPriorityLow AlertPriority = "low"
	// AlertPriorityMedium marks breaches that need routine action.
	AlertPriorityMedium AlertPriority = "medium"
	// AlertPriorityHigh marks breaches approaching stockout.
	AlertPriorityHigh AlertPriority = "high"
	// AlertPriorityCritical marks breaches blocking fulfilment.
	AlertPriorityCritical AlertPriority = "critical"
)

// IsValid reports whether the priority is known.
func (p AlertPriority) IsValid() bool {
	switch p {
	case AlertPriorityLow, AlertPriorityMedium, AlertPriorityHigh, AlertPriorityCritical:
		return true
	}
	return false
}

// AlertState is the lifecycle state of a stock alert.
type AlertState string

const (
	// AlertStateActive marks a live, unhandled alert.
	AlertStateActive AlertState = "active"
	// AlertStateAcknowledged marks an alert a user has seen but not yet fixed.
	AlertStateAcknowledged AlertState = "acknowledged"
	// AlertStateResolved marks a closed alert. Resolved is terminal.
	AlertStateResolved AlertState = "resolved"
)

// StockAlert is a deduplicated threshold breach for an (item, warehouse,
// type) key. At most one open (active or acknowledged) alert exists per key;
// re-evaluation refreshes the open alert instead of stacking duplicates.
type StockAlert struct {
	shared.BaseAggregateRoot
	ItemID      uuid.UUID     `gorm:"type:uuid;not null;index:idx_alert_key,priority:1"`
	WarehouseID *uuid.UUID    `gorm:"type:uuid;index:idx_alert_key,priority:2"`
	Type        AlertType     `gorm:"type:varchar(20);not null;index:idx_alert_key,priority:3"`
	State       AlertState    `gorm:"type:varchar(20);not null;default:'active';index:idx_stock_alerts_state_priority,priority:1"`
	Priority    AlertPriority `gorm:"type:varchar(10);not null;default:'medium';index:idx_stock_alerts_state_priority,priority:2"`
	Message     string        `gorm:"type:text;not null"`
	// Quantity and Threshold snapshot the observation that raised or last
	// refreshed the alert.
	Quantity       int64 `gorm:"not null"`
	Threshold      int64 `gorm:"not null"`
	LastObservedAt time.Time
	AcknowledgedAt *time.Time
	AcknowledgedBy string `gorm:"type:varchar(100)"`
	ResolvedAt     *time.Time
	ResolvedBy     string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM.
func (StockAlert) TableName() string {
	return "stock_alerts"
}

// NewStockAlert raises a fresh active alert.
func NewStockAlert(itemID uuid.UUID, warehouseID *uuid.UUID, alertType AlertType, priority AlertPriority, message string, quantity, threshold int64) (*StockAlert, error) {
	if itemID == uuid.Nil {
		return nil, shared.ErrUnknownItem
	}
	if !alertType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ALERT_TYPE", "Unknown alert type")
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_ALERT_PRIORITY", "Unknown alert priority")
	}

	alert := &StockAlert{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemID:            itemID,
		WarehouseID:       warehouseID,
		Type:              alertType,
		State:             AlertStateActive,
		Priority:          priority,
		Message:           message,
		Quantity:          quantity,
		Threshold:         threshold,
		LastObservedAt:    time.Now(),
	}
	alert.AddDomainEvent(NewStockAlertRaisedEvent(alert))
	return alert, nil
}

// IsOpen reports whether the alert still demands attention.
func (a *StockAlert) IsOpen() bool {
	return a.State == AlertStateActive || a.State == AlertStateAcknowledged
}

// Observe refreshes an open alert with the latest breach observation. The
// priority moves with the observation, e.g. low_stock escalates as the
// balance keeps falling. Acknowledged alerts stay acknowledged; only the
// snapshot moves.
func (a *StockAlert) Observe(quantity, threshold int64, priority AlertPriority, message string) error {
	if !a.IsOpen() {
		return shared.ErrInvalidState
	}
	if !priority.IsValid() {
		return shared.NewDomainError("INVALID_ALERT_PRIORITY", "Unknown alert priority")
	}
	a.Quantity = quantity
	a.Threshold = threshold
	a.Priority = priority
	a.Message = message
	a.LastObservedAt = time.Now()
	a.Touch()
	a.IncrementVersion()
	return nil
}

// Acknowledge marks the alert as seen. Acknowledging an already acknowledged
// or resolved alert is a no-op: the state is left unchanged.
func (a *StockAlert) Acknowledge(actor string) error {
	if a.State == AlertStateAcknowledged || a.State == AlertStateResolved {
		return nil
	}

	now := time.Now()
	a.State = AlertStateAcknowledged
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = actor
	a.Touch()
	a.IncrementVersion()
	return nil
}

// Resolve closes the alert. Resolving an already resolved alert is a no-op.
// Resolution is terminal: a new breach raises a new alert.
func (a *StockAlert) Resolve(actor string) error {
	if a.State == AlertStateResolved {
		return nil
	}

	now := time.Now()
	a.State = AlertStateResolved
	a.ResolvedAt = &now
	a.ResolvedBy = actor
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewStockAlertResolvedEvent(a))
	return nil
}
