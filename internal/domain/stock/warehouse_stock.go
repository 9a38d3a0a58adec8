package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/shared"
)

// WarehouseStock is the mutable balance row for one (item, warehouse) pair
// and the aggregate root for all balance mutations. It is created lazily on
// the first movement for its key and never deleted, only zeroed.
//
// Invariants: QuantityAvailable, QuantityReserved and QuantityDamaged never
// go negative, and reservations are only ever carved out of available stock.
type WarehouseStock struct {
	shared.BaseAggregateRoot
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_stock_key,priority:1"`
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_stock_key,priority:2"`
	QuantityAvailable int64           `gorm:"not null;default:0"`
	QuantityReserved  int64           `gorm:"not null;default:0"`
	QuantityDamaged   int64           `gorm:"not null;default:0"`
	AverageCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Location          string          `gorm:"type:varchar(100)"`
	LastCountedAt     *time.Time

	// Outstanding batches, loaded with the aggregate when batch tracking is used.
	Batches []StockBatch `gorm:"foreignKey:WarehouseStockID;references:ID"`
}

// TableName returns the table name for GORM.
func (WarehouseStock) TableName() string {
	return "warehouse_stock"
}

// NewWarehouseStock creates an empty balance row for an (item, warehouse) pair.
func NewWarehouseStock(itemID, warehouseID uuid.UUID) (*WarehouseStock, error) {
	if itemID == uuid.Nil {
		return nil, shared.ErrUnknownItem
	}
	if warehouseID == uuid.Nil {
		return nil, shared.ErrUnknownWarehouse
	}
	return &WarehouseStock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemID:            itemID,
		WarehouseID:       warehouseID,
		AverageCost:       decimal.Zero,
	}, nil
}

// OnHand returns available plus reserved units.
func (s *WarehouseStock) OnHand() int64 {
	return s.QuantityAvailable + s.QuantityReserved
}

// CanFulfill reports whether quantity units can be removed from available stock.
func (s *WarehouseStock) CanFulfill(quantity int64) bool {
	return quantity <= s.QuantityAvailable
}

// Receive adds quantity units to available stock. When unitCost is non-nil
// the average cost is recomputed as a quantity-weighted moving average over
// the on-hand quantity. batch, when non-nil, records an outstanding batch.
func (s *WarehouseStock) Receive(quantity int64, unitCost *decimal.Decimal, batch *BatchInfo) error {
	return s.inbound(MovementTypeIn, quantity, unitCost, batch)
}

// Found adds quantity units recovered during a count. Cost and batch handling
// match Receive.
func (s *WarehouseStock) Found(quantity int64, unitCost *decimal.Decimal, batch *BatchInfo) error {
	return s.inbound(MovementTypeFound, quantity, unitCost, batch)
}

func (s *WarehouseStock) inbound(movementType MovementType, quantity int64, unitCost *decimal.Decimal, batch *BatchInfo) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if unitCost != nil && unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	if unitCost != nil {
		oldCost := s.AverageCost
		s.recomputeAverageCost(quantity, *unitCost)
		if !oldCost.Equal(s.AverageCost) {
			s.AddDomainEvent(NewStockCostChangedEvent(s, oldCost, s.AverageCost))
		}
	}

	s.QuantityAvailable += quantity
	s.Touch()
	s.IncrementVersion()

	if batch != nil {
		cost := s.AverageCost
		if unitCost != nil {
			cost = *unitCost
		}
		s.Batches = append(s.Batches, *NewStockBatch(s.ID, batch.BatchNumber, batch.ExpiryDate, quantity, cost))
	}

	s.AddDomainEvent(NewBalanceChangedEvent(s, movementType))
	return nil
}

// recomputeAverageCost applies the weighted moving average over on-hand stock:
// new_avg = (old_avg*old_qty + cost*qty) / (old_qty+qty).
func (s *WarehouseStock) recomputeAverageCost(quantity int64, unitCost decimal.Decimal) {
	oldQty := decimal.NewFromInt(s.OnHand())
	newQty := decimal.NewFromInt(quantity)
	if oldQty.IsZero() {
		s.AverageCost = unitCost
		return
	}
	totalValue := oldQty.Mul(s.AverageCost).Add(newQty.Mul(unitCost))
	s.AverageCost = totalValue.Div(oldQty.Add(newQty)).Round(4)
}

// Ship removes quantity units from available stock.
func (s *WarehouseStock) Ship(quantity int64) error {
	return s.outbound(MovementTypeOut, quantity)
}

// MarkLost writes quantity units off as lost.
func (s *WarehouseStock) MarkLost(quantity int64) error {
	return s.outbound(MovementTypeLost, quantity)
}

// MarkDamaged moves quantity units from available into the damaged bucket.
func (s *WarehouseStock) MarkDamaged(quantity int64) error {
	if err := s.outbound(MovementTypeDamaged, quantity); err != nil {
		return err
	}
	s.QuantityDamaged += quantity
	return nil
}

func (s *WarehouseStock) outbound(movementType MovementType, quantity int64) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if quantity > s.QuantityAvailable {
		return shared.ErrInsufficientStock
	}

	s.QuantityAvailable -= quantity
	s.consumeBatches(quantity)
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewBalanceChangedEvent(s, movementType))
	return nil
}

// AdjustBy applies an explicit signed correction to available stock.
// A zero delta is rejected; a negative delta may not drive the balance
// below zero.
func (s *WarehouseStock) AdjustBy(delta int64) error {
	if delta == 0 {
		return shared.ErrInvalidQuantity
	}
	if delta < 0 && -delta > s.QuantityAvailable {
		return shared.ErrInsufficientStock
	}

	s.QuantityAvailable += delta
	if delta < 0 {
		s.consumeBatches(-delta)
	}
	now := time.Now()
	s.LastCountedAt = &now
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewBalanceChangedEvent(s, MovementTypeAdjustment))
	return nil
}

// Reserve earmarks quantity units of available stock for a pending order.
// Reservations are never created against unavailable stock.
func (s *WarehouseStock) Reserve(quantity int64) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if quantity > s.QuantityAvailable {
		return shared.ErrInsufficientStock
	}

	s.QuantityAvailable -= quantity
	s.QuantityReserved += quantity
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewReservationChangedEvent(s))
	return nil
}

// ReleaseReservation returns quantity reserved units to available stock.
func (s *WarehouseStock) ReleaseReservation(quantity int64) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if quantity > s.QuantityReserved {
		return shared.ErrInvalidState
	}

	s.QuantityReserved -= quantity
	s.QuantityAvailable += quantity
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewReservationChangedEvent(s))
	return nil
}

// SetLocation updates the shelf/bin label.
func (s *WarehouseStock) SetLocation(location string) {
	s.Location = location
	s.Touch()
	s.IncrementVersion()
}

// consumeBatches deducts quantity from outstanding batches, oldest first.
// Batch bookkeeping is best-effort metadata for expiry alerting and does not
// gate the balance mutation.
func (s *WarehouseStock) consumeBatches(quantity int64) {
	remaining := quantity
	for i := range s.Batches {
		if remaining == 0 {
			break
		}
		if !s.Batches[i].HasStock() {
			continue
		}
		remaining -= s.Batches[i].Deduct(remaining)
	}
}

// OutstandingBatches returns batches that still hold stock.
func (s *WarehouseStock) OutstandingBatches() []StockBatch {
	out := make([]StockBatch, 0, len(s.Batches))
	for _, b := range s.Batches {
		if b.HasStock() {
			out = append(out, b)
		}
	}
	return out
}

// BatchInfo carries batch metadata supplied with an inbound movement.
type BatchInfo struct {
	BatchNumber string
	ExpiryDate  *time.Time
}
