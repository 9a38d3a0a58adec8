package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/stock"
)

// MovementRequest asks the mutation engine to apply one stock movement.
type MovementRequest struct {
	ItemID      uuid.UUID          `json:"item_id"`
	WarehouseID uuid.UUID          `json:"warehouse_id"`
	Type        stock.MovementType `json:"type"`
	// Quantity is the positive magnitude for all types except adjustment,
	// where Delta carries the signed correction instead.
	Quantity     int64            `json:"quantity"`
	Delta        int64            `json:"delta"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	Reference    stock.Reference  `json:"reference"`
	BatchNumber  string           `json:"batch_number,omitempty"`
	ExpiryDate   *time.Time       `json:"expiry_date,omitempty"`
	Actor        string           `json:"actor"`
	Notes        string           `json:"notes,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
}

// TransferRequest asks the mutation engine to move stock between warehouses.
type TransferRequest struct {
	ItemID          uuid.UUID `json:"item_id"`
	FromWarehouseID uuid.UUID `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID `json:"to_warehouse_id"`
	Quantity        int64     `json:"quantity"`
	Actor           string    `json:"actor"`
	Notes           string    `json:"notes,omitempty"`
}

// ReservationRequest earmarks or releases stock for a pending order.
type ReservationRequest struct {
	ItemID      uuid.UUID `json:"item_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int64     `json:"quantity"`
	// Reference identifies the order holding the reservation.
	Reference stock.Reference `json:"reference"`
	Actor     string          `json:"actor"`
}

// MovementResponse reports the applied movement and resulting balance.
type MovementResponse struct {
	MovementID        uuid.UUID          `json:"movement_id"`
	ItemID            uuid.UUID          `json:"item_id"`
	WarehouseID       uuid.UUID          `json:"warehouse_id"`
	Type              stock.MovementType `json:"type"`
	Delta             int64              `json:"delta"`
	QuantityBefore    int64              `json:"quantity_before"`
	QuantityAfter     int64              `json:"quantity_after"`
	QuantityAvailable int64              `json:"quantity_available"`
	QuantityReserved  int64              `json:"quantity_reserved"`
	AverageCost       decimal.Decimal    `json:"average_cost"`
	MovementDate      time.Time          `json:"movement_date"`
}

// TransferResponse reports both legs of a completed transfer.
type TransferResponse struct {
	TransferID uuid.UUID        `json:"transfer_id"`
	OutLeg     MovementResponse `json:"out_leg"`
	InLeg      MovementResponse `json:"in_leg"`
}

// BalanceResponse is a read-model view of one balance row.
type BalanceResponse struct {
	ItemID            uuid.UUID       `json:"item_id"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	QuantityAvailable int64           `json:"quantity_available"`
	QuantityReserved  int64           `json:"quantity_reserved"`
	QuantityDamaged   int64           `json:"quantity_damaged"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	Location          string          `json:"location,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ItemStatusResponse is the derived cross-warehouse health view for an item.
type ItemStatusResponse struct {
	ItemID         uuid.UUID         `json:"item_id"`
	Status         stock.StockStatus `json:"status"`
	TotalAvailable int64             `json:"total_available"`
	TotalReserved  int64             `json:"total_reserved"`
	MinStockLevel  int64             `json:"min_stock_level"`
	MaxStockLevel  int64             `json:"max_stock_level"`
	ReorderPoint   int64             `json:"reorder_point"`
	OpenAlerts     []AlertResponse   `json:"open_alerts"`
}

// AlertResponse is the read view of a stock alert.
type AlertResponse struct {
	ID             uuid.UUID           `json:"id"`
	ItemID         uuid.UUID           `json:"item_id"`
	WarehouseID    *uuid.UUID          `json:"warehouse_id,omitempty"`
	Type           stock.AlertType     `json:"type"`
	State          stock.AlertState    `json:"state"`
	Priority       stock.AlertPriority `json:"priority"`
	Message        string              `json:"message"`
	Quantity       int64               `json:"quantity"`
	Threshold      int64               `json:"threshold"`
	LastObservedAt time.Time           `json:"last_observed_at"`
	CreatedAt      time.Time           `json:"created_at"`
}

// MovementListItem is the read view of one ledger entry.
type MovementListItem struct {
	ID             uuid.UUID          `json:"id"`
	ItemID         uuid.UUID          `json:"item_id"`
	WarehouseID    uuid.UUID          `json:"warehouse_id"`
	Type           stock.MovementType `json:"type"`
	Quantity       int64              `json:"quantity"`
	Delta          int64              `json:"delta"`
	QuantityBefore int64              `json:"quantity_before"`
	QuantityAfter  int64              `json:"quantity_after"`
	Reference      stock.Reference    `json:"reference"`
	Actor          string             `json:"actor"`
	MovementDate   time.Time          `json:"movement_date"`
}

// ToMovementResponse maps a ledger entry plus its balance row to the response DTO.
func ToMovementResponse(m *stock.StockMovement, s *stock.WarehouseStock) MovementResponse {
	return MovementResponse{
		MovementID:        m.ID,
		ItemID:            m.ItemID,
		WarehouseID:       m.WarehouseID,
		Type:              m.Type,
		Delta:             m.Delta,
		QuantityBefore:    m.QuantityBefore,
		QuantityAfter:     m.QuantityAfter,
		QuantityAvailable: s.QuantityAvailable,
		QuantityReserved:  s.QuantityReserved,
		AverageCost:       s.AverageCost,
		MovementDate:      m.MovementDate,
	}
}

// ToBalanceResponse maps a balance row to its read view.
func ToBalanceResponse(s *stock.WarehouseStock) BalanceResponse {
	return BalanceResponse{
		ItemID:            s.ItemID,
		WarehouseID:       s.WarehouseID,
		QuantityAvailable: s.QuantityAvailable,
		QuantityReserved:  s.QuantityReserved,
		QuantityDamaged:   s.QuantityDamaged,
		AverageCost:       s.AverageCost,
		Location:          s.Location,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ToAlertResponse maps an alert to its read view.
func ToAlertResponse(a *stock.StockAlert) AlertResponse {
	return AlertResponse{
		ID:             a.ID,
		ItemID:         a.ItemID,
		WarehouseID:    a.WarehouseID,
		Type:           a.Type,
		State:          a.State,
		Priority:       a.Priority,
		Message:        a.Message,
		Quantity:       a.Quantity,
		Threshold:      a.Threshold,
		LastObservedAt: a.LastObservedAt,
		CreatedAt:      a.CreatedAt,
	}
}

// ToMovementListItem maps a ledger entry to its list view.
func ToMovementListItem(m *stock.StockMovement) MovementListItem {
	return MovementListItem{
		ID:             m.ID,
		ItemID:         m.ItemID,
		WarehouseID:    m.WarehouseID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		Delta:          m.Delta,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reference:      m.Reference,
		Actor:          m.Actor,
		MovementDate:   m.MovementDate,
	}
}
