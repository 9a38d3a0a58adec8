package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/shared"
)

// StockBatch tracks an outstanding lot received with batch metadata. Batches
// feed the expiring/expired alert rules; they are child entities of
// WarehouseStock and persisted through the aggregate.
type StockBatch struct {
	shared.BaseEntity
	WarehouseStockID uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber      string          `gorm:"type:varchar(100);not null"`
	ExpiryDate       *time.Time      `gorm:"index"`
	Remaining        int64           `gorm:"not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Consumed         bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM.
func (StockBatch) TableName() string {
	return "stock_batches"
}

// NewStockBatch creates a batch record for an inbound lot.
func NewStockBatch(warehouseStockID uuid.UUID, batchNumber string, expiryDate *time.Time, quantity int64, unitCost decimal.Decimal) *StockBatch {
	return &StockBatch{
		BaseEntity:       shared.NewBaseEntity(),
		WarehouseStockID: warehouseStockID,
		BatchNumber:      batchNumber,
		ExpiryDate:       expiryDate,
		Remaining:        quantity,
		UnitCost:         unitCost,
	}
}

// HasStock reports whether the batch still holds units.
func (b *StockBatch) HasStock() bool {
	return b.Remaining > 0 && !b.Consumed
}

// IsExpired reports whether the batch expiry has passed.
func (b *StockBatch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}

// ExpiresWithin reports whether the batch expires inside the lookahead window.
func (b *StockBatch) ExpiresWithin(now time.Time, window time.Duration) bool {
	return b.ExpiryDate != nil && !b.IsExpired(now) && b.ExpiryDate.Before(now.Add(window))
}

// Deduct removes up to quantity units from the batch and returns the amount
// actually deducted.
func (b *StockBatch) Deduct(quantity int64) int64 {
	deducted := quantity
	if deducted > b.Remaining {
		deducted = b.Remaining
	}
	b.Remaining -= deducted
	if b.Remaining == 0 {
		b.Consumed = true
	}
	b.Touch()
	return deducted
}
