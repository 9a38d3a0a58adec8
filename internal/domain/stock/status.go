package stock

// StockStatus is the derived health classification for an item's aggregate
// availability across all warehouses.
type StockStatus string

const (
	// StockStatusOutOfStock means no available stock anywhere.
	StockStatusOutOfStock StockStatus = "out_of_stock"
	// StockStatusLow means available stock at or below the reorder point.
	StockStatusLow StockStatus = "low"
	// StockStatusOverstocked means available stock above the maximum level.
	StockStatusOverstocked StockStatus = "overstocked"
	// StockStatusNormal means available stock inside the configured band.
	StockStatusNormal StockStatus = "normal"
	// StockStatusUntracked means the item opted out of threshold tracking.
	StockStatusUntracked StockStatus = "untracked"
)

// Thresholds holds the per-item levels the status and alert rules compare
// against. MaxStockLevel <= 0 means no upper bound is configured.
type Thresholds struct {
	MinStockLevel   int64
	MaxStockLevel   int64
	ReorderPoint    int64
	ReorderQuantity int64
	Trackable       bool
}

// HasMaxLevel reports whether an upper bound is configured.
func (t Thresholds) HasMaxLevel() bool {
	return t.MaxStockLevel > 0
}

// DeriveStatus classifies totalAvailable against the item thresholds.
// Precedence: untracked, out of stock, low, overstocked, normal.
func DeriveStatus(totalAvailable int64, t Thresholds) StockStatus {
	if !t.Trackable {
		return StockStatusUntracked
	}
	if totalAvailable <= 0 {
		return StockStatusOutOfStock
	}
	if totalAvailable <= t.ReorderPoint {
		return StockStatusLow
	}
	if t.HasMaxLevel() && totalAvailable > t.MaxStockLevel {
		return StockStatusOverstocked
	}
	return StockStatusNormal
}
