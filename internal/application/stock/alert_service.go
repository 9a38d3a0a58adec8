package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
	"github.com/logistics/backend/internal/infrastructure/telemetry"
)

// SystemActor marks state changes made by the engine rather than a user.
const SystemActor = "system"

// DefaultExpiryWindow is how far ahead the expiry rules look.
const DefaultExpiryWindow = 30 * 24 * time.Hour

// AlertService derives item status and maintains the deduplicated alert set.
// Evaluate runs after every committed mutation (via the event bus, still
// inside the mutation's key lock) so alerts always reflect a settled balance.
type AlertService struct {
	reference      catalog.Reference
	stockRepo      stock.WarehouseStockRepository
	alertRepo      stock.StockAlertRepository
	batchRepo      stock.StockBatchRepository
	eventPublisher shared.EventPublisher
	stockMetrics   *telemetry.StockMetrics
	logger         *zap.Logger
	expiryWindow   time.Duration
}

// NewAlertService creates an AlertService.
func NewAlertService(
	reference catalog.Reference,
	stockRepo stock.WarehouseStockRepository,
	alertRepo stock.StockAlertRepository,
	batchRepo stock.StockBatchRepository,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		reference:    reference,
		stockRepo:    stockRepo,
		alertRepo:    alertRepo,
		batchRepo:    batchRepo,
		logger:       logger,
		expiryWindow: DefaultExpiryWindow,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events.
func (s *AlertService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStockMetrics sets the stock metrics collector.
func (s *AlertService) SetStockMetrics(metrics *telemetry.StockMetrics) {
	s.stockMetrics = metrics
}

// SetExpiryWindow overrides the expiry lookahead window.
func (s *AlertService) SetExpiryWindow(window time.Duration) {
	s.expiryWindow = window
}

// Evaluate re-derives the threshold alerts for one (item, warehouse) key from
// its current warehouse-level availability. Breached rules upsert the open
// alert for their key; cleared rules resolve it.
func (s *AlertService) Evaluate(ctx context.Context, itemID, warehouseID uuid.UUID) error {
	item, err := s.reference.Item(ctx, itemID)
	if err != nil {
		return err
	}

	thresholds := itemThresholds(item)
	if !thresholds.Trackable {
		// Untracked items carry no threshold alerts; close any leftovers.
		return s.resolveAllThreshold(ctx, itemID, warehouseID)
	}

	var available int64
	balance, err := s.stockRepo.FindByKey(ctx, itemID, warehouseID)
	switch {
	case err == nil:
		available = balance.QuantityAvailable
	case shared.IsNotFound(err):
		available = 0
	default:
		return err
	}

	// low_stock escalates once the balance falls to half the reorder point.
	lowPriority := stock.AlertPriorityMedium
	if available <= thresholds.ReorderPoint/2 {
		lowPriority = stock.AlertPriorityHigh
	}

	rules := []struct {
		alertType stock.AlertType
		breached  bool
		priority  stock.AlertPriority
		threshold int64
		message   string
	}{
		{
			alertType: stock.AlertTypeOutOfStock,
			breached:  available == 0,
			priority:  stock.AlertPriorityCritical,
			threshold: 0,
			message:   fmt.Sprintf("%s is out of stock", item.Code),
		},
		{
			alertType: stock.AlertTypeLowStock,
			breached:  available > 0 && available <= thresholds.ReorderPoint,
			priority:  lowPriority,
			threshold: thresholds.ReorderPoint,
			message:   fmt.Sprintf("%s is low: %d available, reorder point %d", item.Code, available, thresholds.ReorderPoint),
		},
		{
			alertType: stock.AlertTypeOverstock,
			breached:  thresholds.HasMaxLevel() && available > thresholds.MaxStockLevel,
			priority:  stock.AlertPriorityLow,
			threshold: thresholds.MaxStockLevel,
			message:   fmt.Sprintf("%s is overstocked: %d available, maximum %d", item.Code, available, thresholds.MaxStockLevel),
		},
	}

	for _, rule := range rules {
		if rule.breached {
			err = s.upsert(ctx, itemID, &warehouseID, rule.alertType, rule.priority, available, rule.threshold, rule.message)
		} else {
			err = s.resolveOpen(ctx, itemID, &warehouseID, rule.alertType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EvaluateAll re-runs threshold evaluation for every key with a balance row.
// This is the recovery path for alerts missed when an inline evaluation
// failed; per-key failures are logged and the sweep moves on.
func (s *AlertService) EvaluateAll(ctx context.Context) error {
	keys, err := s.stockRepo.FindAllKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Evaluate(ctx, key.ItemID, key.WarehouseID); err != nil {
			s.logger.Error("threshold re-evaluation failed",
				zap.String("item_id", key.ItemID.String()),
				zap.String("warehouse_id", key.WarehouseID.String()),
				zap.Error(err))
		}
	}
	return nil
}

// EvaluateExpiry raises expiring/expired alerts for outstanding batches.
func (s *AlertService) EvaluateExpiry(ctx context.Context) error {
	now := time.Now()
	batches, err := s.batchRepo.FindExpiringBefore(ctx, now.Add(s.expiryWindow))
	if err != nil {
		return err
	}

	for _, eb := range batches {
		alertType := stock.AlertTypeExpiring
		priority := stock.AlertPriorityMedium
		message := fmt.Sprintf("batch %s expires %s, %d units remaining",
			eb.Batch.BatchNumber, eb.Batch.ExpiryDate.Format("2006-01-02"), eb.Batch.Remaining)
		if eb.Batch.IsExpired(now) {
			alertType = stock.AlertTypeExpired
			priority = stock.AlertPriorityHigh
			message = fmt.Sprintf("batch %s expired %s, %d units remaining",
				eb.Batch.BatchNumber, eb.Batch.ExpiryDate.Format("2006-01-02"), eb.Batch.Remaining)
		}

		warehouseID := eb.WarehouseID
		if err := s.upsert(ctx, eb.ItemID, &warehouseID, alertType, priority, eb.Batch.Remaining, 0, message); err != nil {
			return err
		}
	}
	return nil
}

// ItemStatus returns the derived health view for an item.
func (s *AlertService) ItemStatus(ctx context.Context, itemID uuid.UUID) (*ItemStatusResponse, error) {
	item, err := s.reference.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}

	balances, err := s.stockRepo.FindByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	var totalAvailable, totalReserved int64
	for _, b := range balances {
		totalAvailable += b.QuantityAvailable
		totalReserved += b.QuantityReserved
	}

	alerts, err := s.alertRepo.FindOpenByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	alertViews := make([]AlertResponse, 0, len(alerts))
	for i := range alerts {
		alertViews = append(alertViews, ToAlertResponse(&alerts[i]))
	}

	thresholds := itemThresholds(item)
	return &ItemStatusResponse{
		ItemID:         itemID,
		Status:         stock.DeriveStatus(totalAvailable, thresholds),
		TotalAvailable: totalAvailable,
		TotalReserved:  totalReserved,
		MinStockLevel:  thresholds.MinStockLevel,
		MaxStockLevel:  thresholds.MaxStockLevel,
		ReorderPoint:   thresholds.ReorderPoint,
		OpenAlerts:     alertViews,
	}, nil
}

// Acknowledge marks an alert as seen. Idempotent for already acknowledged or
// resolved alerts.
func (s *AlertService) Acknowledge(ctx context.Context, alertID uuid.UUID, actor string) (*AlertResponse, error) {
	alert, err := s.alertRepo.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	before := alert.Version
	if err := alert.Acknowledge(actor); err != nil {
		return nil, err
	}
	// A no-op acknowledge leaves the version alone; nothing to persist.
	if alert.Version != before {
		if err := s.alertRepo.SaveWithLock(ctx, alert); err != nil {
			return nil, err
		}
	}
	resp := ToAlertResponse(alert)
	return &resp, nil
}

// Resolve closes an alert. Idempotent for already resolved alerts.
func (s *AlertService) Resolve(ctx context.Context, alertID uuid.UUID, actor string) (*AlertResponse, error) {
	alert, err := s.alertRepo.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	before := alert.Version
	if err := alert.Resolve(actor); err != nil {
		return nil, err
	}
	if alert.Version != before {
		if err := s.alertRepo.SaveWithLock(ctx, alert); err != nil {
			return nil, err
		}
		s.publishAlertEvents(ctx, alert)
	}
	resp := ToAlertResponse(alert)
	return &resp, nil
}

// ListByState returns alerts in a given state. The filter may narrow by
// priority and type.
func (s *AlertService) ListByState(ctx context.Context, state stock.AlertState, filter shared.Filter) ([]AlertResponse, error) {
	alerts, err := s.alertRepo.FindByState(ctx, state, filter)
	if err != nil {
		return nil, err
	}
	out := make([]AlertResponse, 0, len(alerts))
	for i := range alerts {
		out = append(out, ToAlertResponse(&alerts[i]))
	}
	return out, nil
}

// upsert refreshes the open alert for a key or raises a new one.
func (s *AlertService) upsert(ctx context.Context, itemID uuid.UUID, warehouseID *uuid.UUID, alertType stock.AlertType, priority stock.AlertPriority, quantity, threshold int64, message string) error {
	existing, err := s.alertRepo.FindOpen(ctx, itemID, warehouseID, alertType)
	switch {
	case err == nil:
		if err := existing.Observe(quantity, threshold, priority, message); err != nil {
			return err
		}
		return s.alertRepo.SaveWithLock(ctx, existing)
	case shared.IsNotFound(err):
		alert, err := stock.NewStockAlert(itemID, warehouseID, alertType, priority, message, quantity, threshold)
		if err != nil {
			return err
		}
		if err := s.alertRepo.Save(ctx, alert); err != nil {
			return err
		}
		s.publishAlertEvents(ctx, alert)
		if s.stockMetrics != nil {
			s.stockMetrics.RecordAlertRaised(ctx, string(alertType))
		}
		return nil
	default:
		return err
	}
}

// resolveOpen closes the open alert for a key when its rule has cleared.
func (s *AlertService) resolveOpen(ctx context.Context, itemID uuid.UUID, warehouseID *uuid.UUID, alertType stock.AlertType) error {
	existing, err := s.alertRepo.FindOpen(ctx, itemID, warehouseID, alertType)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := existing.Resolve(SystemActor); err != nil {
		return err
	}
	if err := s.alertRepo.SaveWithLock(ctx, existing); err != nil {
		return err
	}
	s.publishAlertEvents(ctx, existing)
	return nil
}

func (s *AlertService) resolveAllThreshold(ctx context.Context, itemID, warehouseID uuid.UUID) error {
	for _, alertType := range []stock.AlertType{
		stock.AlertTypeOutOfStock, stock.AlertTypeLowStock, stock.AlertTypeOverstock,
	} {
		if err := s.resolveOpen(ctx, itemID, &warehouseID, alertType); err != nil {
			return err
		}
	}
	return nil
}

func (s *AlertService) publishAlertEvents(ctx context.Context, alert *stock.StockAlert) {
	if s.eventPublisher == nil {
		return
	}
	events := alert.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	alert.ClearDomainEvents()
}

func itemThresholds(item *catalog.InventoryItem) stock.Thresholds {
	return stock.Thresholds{
		MinStockLevel:   item.MinStockLevel,
		MaxStockLevel:   item.MaxStockLevel,
		ReorderPoint:    item.ReorderPoint,
		ReorderQuantity: item.ReorderQuantity,
		Trackable:       item.Trackable,
	}
}
