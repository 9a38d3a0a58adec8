package catalog

import (
	"time"

	"github.com/google/uuid"
)

// CreateItemRequest creates a catalog item.
type CreateItemRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Unit            string `json:"unit"`
	MinStockLevel   int64  `json:"min_stock_level"`
	MaxStockLevel   int64  `json:"max_stock_level"`
	ReorderPoint    int64  `json:"reorder_point"`
	ReorderQuantity int64  `json:"reorder_quantity"`
}

// UpdateThresholdsRequest changes the alerting thresholds for an item.
type UpdateThresholdsRequest struct {
	MinStockLevel   int64 `json:"min_stock_level"`
	MaxStockLevel   int64 `json:"max_stock_level"`
	ReorderPoint    int64 `json:"reorder_point"`
	ReorderQuantity int64 `json:"reorder_quantity"`
}

// CreateWarehouseRequest creates a warehouse.
type CreateWarehouseRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ItemResponse is the read view of a catalog item.
type ItemResponse struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Unit            string    `json:"unit"`
	MinStockLevel   int64     `json:"min_stock_level"`
	MaxStockLevel   int64     `json:"max_stock_level"`
	ReorderPoint    int64     `json:"reorder_point"`
	ReorderQuantity int64     `json:"reorder_quantity"`
	Trackable       bool      `json:"trackable"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WarehouseResponse is the read view of a warehouse.
type WarehouseResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
