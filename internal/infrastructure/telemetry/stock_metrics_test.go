package telemetry_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/logistics/backend/internal/infrastructure/telemetry"
)

func newTestStockMetrics(t *testing.T, provider telemetry.StockMetricsProvider) *telemetry.StockMetrics {
	t.Helper()

	logger := zaptest.NewLogger(t)
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:     false,
		ServiceName: "test-service",
	}, logger)
	require.NoError(t, err)

	sm, err := telemetry.NewStockMetrics(telemetry.StockMetricsConfig{
		Meter:         mp.Meter("test"),
		Logger:        logger,
		StockProvider: provider,
	})
	require.NoError(t, err)
	return sm
}

// fakeStockProvider returns canned gauge data and counts how often it was asked
type fakeStockProvider struct {
	reserved map[uuid.UUID]int64
	alerts   map[string]int64
	calls    atomic.Int64
}

func (p *fakeStockProvider) GetReservedQuantityByWarehouse(_ context.Context) (map[uuid.UUID]int64, error) {
	p.calls.Add(1)
	return p.reserved, nil
}

func (p *fakeStockProvider) GetOpenAlertCountByType(_ context.Context) (map[string]int64, error) {
	return p.alerts, nil
}

func TestNewStockMetrics(t *testing.T) {
	sm := newTestStockMetrics(t, nil)
	assert.NotNil(t, sm)
}

func TestNewStockMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewStockMetrics(telemetry.StockMetricsConfig{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestStockMetrics_RecordMovement(t *testing.T) {
	sm := newTestStockMetrics(t, nil)
	ctx := context.Background()

	// No-op meter, just verify the calls don't panic
	sm.RecordMovement(ctx, uuid.New(), "in", 25)
	sm.RecordMovement(ctx, uuid.New(), "out", 10)
	sm.RecordTransfer(ctx, uuid.New(), uuid.New())
	sm.RecordAlertRaised(ctx, "low_stock")
	sm.RecordReservedQuantity(ctx, uuid.New(), 40)
	sm.RecordOpenAlertCount(ctx, "expiring", 3)
	sm.RecordMutationDuration(ctx, "apply_movement", 2*time.Millisecond)
}

func TestStockMetrics_PeriodicCollection(t *testing.T) {
	provider := &fakeStockProvider{
		reserved: map[uuid.UUID]int64{uuid.New(): 15},
		alerts:   map[string]int64{"low_stock": 2},
	}
	sm := newTestStockMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sm.StartPeriodicCollection(ctx, 10*time.Millisecond)
	defer sm.Stop()

	assert.Eventually(t, func() bool {
		return provider.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond, "provider should be polled repeatedly")
}

func TestStockMetrics_PeriodicCollection_NoProvider(t *testing.T) {
	sm := newTestStockMetrics(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Should not panic without a provider
	sm.StartPeriodicCollection(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	sm.Stop()
}

func TestStockMetrics_Stop_Idempotent(t *testing.T) {
	sm := newTestStockMetrics(t, nil)

	sm.Stop()
	sm.Stop() // Second call should not panic
}

func TestMetricsError_Error(t *testing.T) {
	err := &telemetry.MetricsError{Op: "TestOp", Err: "test error"}
	assert.Equal(t, "TestOp: test error", err.Error())
}
