package stock

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
)

// AlertEvaluationHandler re-evaluates an item's alerts after every balance
// or reservation change. The bus dispatches synchronously, so evaluation runs
// inside the mutation's key lock and observes the settled balance; failures
// are logged and never reach the mutation caller.
type AlertEvaluationHandler struct {
	alerts *AlertService
	logger *zap.Logger
}

// NewAlertEvaluationHandler creates an AlertEvaluationHandler.
func NewAlertEvaluationHandler(alerts *AlertService, logger *zap.Logger) *AlertEvaluationHandler {
	return &AlertEvaluationHandler{alerts: alerts, logger: logger}
}

// EventTypes returns the event types this handler is interested in.
func (h *AlertEvaluationHandler) EventTypes() []string {
	return []string{stock.EventTypeBalanceChanged, stock.EventTypeReservationChanged}
}

// Handle re-runs threshold evaluation for the affected (item, warehouse) key.
func (h *AlertEvaluationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var itemID, warehouseID uuid.UUID

	switch e := event.(type) {
	case *stock.BalanceChangedEvent:
		itemID, warehouseID = e.ItemID, e.WarehouseID
	case *stock.ReservationChangedEvent:
		itemID, warehouseID = e.ItemID, e.WarehouseID
	default:
		return nil
	}

	if err := h.alerts.Evaluate(ctx, itemID, warehouseID); err != nil {
		h.logger.Error("alert evaluation failed",
			zap.String("item_id", itemID.String()),
			zap.String("warehouse_id", warehouseID.String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*AlertEvaluationHandler)(nil)
