package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/shared"
)

// MovementType represents the kind of stock movement.
type MovementType string

const (
	// MovementTypeIn represents stock received into a warehouse.
	MovementTypeIn MovementType = "in"
	// MovementTypeOut represents stock shipped out of a warehouse.
	MovementTypeOut MovementType = "out"
	// MovementTypeAdjustment represents a signed correction from a count.
	MovementTypeAdjustment MovementType = "adjustment"
	// MovementTypeTransfer represents a cross-warehouse move. A transfer is
	// requested as one operation and recorded as a paired out leg at the
	// source and in leg at the destination sharing one reference.
	MovementTypeTransfer MovementType = "transfer"
	// MovementTypeDamaged represents units moved out of available into the
	// damaged bucket.
	MovementTypeDamaged MovementType = "damaged"
	// MovementTypeLost represents units written off as lost.
	MovementTypeLost MovementType = "lost"
	// MovementTypeFound represents units recovered during a count.
	MovementTypeFound MovementType = "found"
)

// String returns the string representation of MovementType.
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is one of the known kinds.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment,
		MovementTypeTransfer, MovementTypeDamaged, MovementTypeLost, MovementTypeFound:
		return true
	}
	return false
}

// IsInbound returns true if the type adds to available quantity.
func (t MovementType) IsInbound() bool {
	return t == MovementTypeIn || t == MovementTypeFound
}

// IsOutbound returns true if the type removes from available quantity.
func (t MovementType) IsOutbound() bool {
	return t == MovementTypeOut || t == MovementTypeLost || t == MovementTypeDamaged
}

// ReferenceKind identifies the business document a movement was caused by.
// The ledger never resolves the referenced entity; the pair (kind, id) is an
// opaque correlation token for downstream consumers.
type ReferenceKind string

const (
	ReferenceKindShipment      ReferenceKind = "shipment"
	ReferenceKindPurchaseOrder ReferenceKind = "purchase_order"
	ReferenceKindTransfer      ReferenceKind = "transfer"
	ReferenceKindStockCount    ReferenceKind = "stock_count"
	ReferenceKindReservation   ReferenceKind = "reservation"
	ReferenceKindManual        ReferenceKind = "manual"
)

// Reference is an opaque pointer to the causing business event.
type Reference struct {
	Kind ReferenceKind `gorm:"column:reference_kind;type:varchar(30)" json:"kind"`
	ID   string        `gorm:"column:reference_id;type:varchar(100)" json:"id"`
}

// IsZero reports whether no reference was supplied.
func (r Reference) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// StockMovement is one immutable ledger entry. It is created by the mutation
// engine in the same atomic step that updates the balance, and is never
// mutated or deleted afterwards; corrections are new, opposite movements.
type StockMovement struct {
	shared.BaseEntity
	ItemID      uuid.UUID    `gorm:"type:uuid;not null;index:idx_movement_key,priority:1"`
	WarehouseID uuid.UUID    `gorm:"type:uuid;not null;index:idx_movement_key,priority:2"`
	Type        MovementType `gorm:"type:varchar(20);not null;index"`
	// Quantity is always a positive magnitude; Type determines direction.
	Quantity int64 `gorm:"not null"`
	// Delta is the signed change applied to quantity_available. It is derived
	// by the engine for every type; for adjustments it carries the caller's
	// explicit sign.
	Delta int64 `gorm:"not null"`
	// QuantityBefore/QuantityAfter snapshot quantity_available immediately
	// around this entry in the per-key serialized order.
	QuantityBefore int64           `gorm:"not null"`
	QuantityAfter  int64           `gorm:"not null"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // zero when not supplied
	Reference      Reference       `gorm:"embedded"`
	BatchNumber    string          `gorm:"type:varchar(100)"`
	ExpiryDate     *time.Time
	MovementDate   time.Time `gorm:"type:timestamptz;not null;index:idx_movement_key,priority:3"`
	Actor          string    `gorm:"type:varchar(100);not null"`
	Notes          string    `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM.
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new ledger entry. Quantity must be positive and
// before/after must be consistent with the signed delta.
func NewStockMovement(
	itemID, warehouseID uuid.UUID,
	movementType MovementType,
	quantity int64,
	delta int64,
	before, after int64,
	actor string,
) (*StockMovement, error) {
	if itemID == uuid.Nil {
		return nil, shared.ErrUnknownItem
	}
	if warehouseID == uuid.Nil {
		return nil, shared.ErrUnknownWarehouse
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if before+delta != after {
		return nil, shared.NewDomainError("INCONSISTENT_SNAPSHOT", "Balance snapshots do not match the applied delta")
	}
	if actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Movement actor is required")
	}

	return &StockMovement{
		BaseEntity:     shared.NewBaseEntity(),
		ItemID:         itemID,
		WarehouseID:    warehouseID,
		Type:           movementType,
		Quantity:       quantity,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		MovementDate:   time.Now(),
		Actor:          actor,
	}, nil
}

// WithUnitCost sets the unit cost for the movement.
func (m *StockMovement) WithUnitCost(cost decimal.Decimal) *StockMovement {
	m.UnitCost = cost
	return m
}

// WithReference sets the causing-document reference.
func (m *StockMovement) WithReference(ref Reference) *StockMovement {
	m.Reference = ref
	return m
}

// WithBatch sets batch metadata for the movement.
func (m *StockMovement) WithBatch(batchNumber string, expiry *time.Time) *StockMovement {
	m.BatchNumber = batchNumber
	m.ExpiryDate = expiry
	return m
}

// WithNotes sets free-text notes.
func (m *StockMovement) WithNotes(notes string) *StockMovement {
	m.Notes = notes
	return m
}

// WithMovementDate overrides the movement timestamp.
func (m *StockMovement) WithMovementDate(t time.Time) *StockMovement {
	m.MovementDate = t
	return m
}

// TotalCost returns Quantity * UnitCost.
func (m *StockMovement) TotalCost() decimal.Decimal {
	return decimal.NewFromInt(m.Quantity).Mul(m.UnitCost)
}
