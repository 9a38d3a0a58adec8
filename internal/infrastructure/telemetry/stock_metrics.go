package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StockMetrics tracks ledger activity and stock health.
type StockMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	movementRecordedTotal *Counter
	movementQuantityTotal *Counter
	transferTotal         *Counter
	alertRaisedTotal      *Counter

	// Gauge metrics (point-in-time values)
	reservedQuantity *Gauge
	openAlertCount   *Gauge

	// Distribution metrics
	mutationDuration *Histogram

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider provides stock data for periodic metrics collection.
// This interface allows the telemetry layer to query stock state without
// depending on the stock domain directly.
type StockMetricsProvider interface {
	// GetReservedQuantityByWarehouse returns total reserved quantity per warehouse
	GetReservedQuantityByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error)

	// GetOpenAlertCountByType returns the number of open alerts per alert type
	GetOpenAlertCountByType(ctx context.Context) (map[string]int64, error)
}

// StockMetricsConfig holds configuration for stock metrics.
type StockMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StockProvider   StockMetricsProvider
}

// NewStockMetrics creates a new StockMetrics instance.
func NewStockMetrics(cfg StockMetricsConfig) (*StockMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &StockMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	var err error

	sm.movementRecordedTotal, err = NewCounter(
		cfg.Meter,
		"stock_movement_recorded_total",
		"Total number of ledger entries recorded",
		"{movements}",
	)
	if err != nil {
		return nil, err
	}

	sm.movementQuantityTotal, err = NewCounter(
		cfg.Meter,
		"stock_movement_quantity_total",
		"Total quantity moved through the ledger",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	sm.transferTotal, err = NewCounter(
		cfg.Meter,
		"stock_transfer_total",
		"Total number of inter-warehouse transfers",
		"{transfers}",
	)
	if err != nil {
		return nil, err
	}

	sm.alertRaisedTotal, err = NewCounter(
		cfg.Meter,
		"stock_alert_raised_total",
		"Total number of stock alerts raised",
		"{alerts}",
	)
	if err != nil {
		return nil, err
	}

	sm.reservedQuantity, err = NewGauge(
		cfg.Meter,
		"stock_reserved_quantity",
		"Current reserved stock quantity",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	sm.openAlertCount, err = NewGauge(
		cfg.Meter,
		"stock_open_alert_count",
		"Number of open stock alerts",
		"{alerts}",
	)
	if err != nil {
		return nil, err
	}

	sm.mutationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "stock_mutation_duration_seconds",
		Description: "Duration of serialized stock mutations",
		Unit:        "s",
		Boundaries:  MutationDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordMovement records a ledger entry. Called from the application layer
// after the movement commits.
func (sm *StockMetrics) RecordMovement(ctx context.Context, warehouseID uuid.UUID, movementType string, quantity int64) {
	sm.movementRecordedTotal.Inc(ctx,
		AttrWarehouseID.String(warehouseID.String()),
		AttrMovementType.String(movementType),
	)
	sm.movementQuantityTotal.Add(ctx, quantity,
		AttrWarehouseID.String(warehouseID.String()),
		AttrMovementType.String(movementType),
	)
}

// RecordTransfer records a completed inter-warehouse transfer.
func (sm *StockMetrics) RecordTransfer(ctx context.Context, fromWarehouseID, toWarehouseID uuid.UUID) {
	sm.transferTotal.Inc(ctx,
		AttrFromWarehouseID.String(fromWarehouseID.String()),
		AttrToWarehouseID.String(toWarehouseID.String()),
	)
}

// RecordMutationDuration records how long a mutation held its key lock.
func (sm *StockMetrics) RecordMutationDuration(ctx context.Context, operation string, d time.Duration) {
	sm.mutationDuration.RecordDuration(ctx, d,
		AttrOperation.String(operation),
	)
}

// RecordAlertRaised records a newly raised alert.
func (sm *StockMetrics) RecordAlertRaised(ctx context.Context, alertType string) {
	sm.alertRaisedTotal.Inc(ctx,
		AttrAlertType.String(alertType),
	)
}

// RecordReservedQuantity records the current reserved quantity for a warehouse.
// This is a gauge metric that should be updated periodically.
func (sm *StockMetrics) RecordReservedQuantity(ctx context.Context, warehouseID uuid.UUID, quantity int64) {
	sm.reservedQuantity.Record(ctx, quantity,
		AttrWarehouseID.String(warehouseID.String()),
	)
}

// RecordOpenAlertCount records the number of open alerts for an alert type.
// This is a gauge metric that should be updated periodically.
func (sm *StockMetrics) RecordOpenAlertCount(ctx context.Context, alertType string, count int64) {
	sm.openAlertCount.Record(ctx, count,
		AttrAlertType.String(alertType),
	)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (sm *StockMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go sm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (sm *StockMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	sm.collectStockMetrics(ctx)

	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic stock metrics collection")
			return
		case <-ctx.Done():
			sm.logger.Info("Context cancelled, stopping periodic stock metrics collection")
			return
		case <-ticker.C:
			sm.collectStockMetrics(ctx)
		}
	}
}

// collectStockMetrics collects stock gauge metrics.
func (sm *StockMetrics) collectStockMetrics(ctx context.Context) {
	if sm.stockProvider == nil {
		sm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	reservedByWarehouse, err := sm.stockProvider.GetReservedQuantityByWarehouse(ctx)
	if err != nil {
		sm.logger.Warn("Failed to get reserved quantity", zap.Error(err))
	} else {
		for warehouseID, quantity := range reservedByWarehouse {
			sm.RecordReservedQuantity(ctx, warehouseID, quantity)
		}
	}

	openByType, err := sm.stockProvider.GetOpenAlertCountByType(ctx)
	if err != nil {
		sm.logger.Warn("Failed to get open alert counts", zap.Error(err))
	} else {
		for alertType, count := range openByType {
			sm.RecordOpenAlertCount(ctx, alertType, count)
		}
	}
}

// Stop stops the periodic collection.
func (sm *StockMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewStockMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
