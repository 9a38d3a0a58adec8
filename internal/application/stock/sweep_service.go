package stock

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = time.Hour

// SweepService periodically runs the batch-expiry evaluation and re-runs
// threshold evaluation across all balance keys. Threshold alerts are
// maintained inline by the mutation pipeline, but inline evaluation failures
// are logged and swallowed, so the periodic re-run is the recovery path for
// missed alerts; expiry alerts are time driven and only the sweep raises them.
type SweepService struct {
	alerts   *AlertService
	logger   *zap.Logger
	interval time.Duration
}

// NewSweepService creates a SweepService.
func NewSweepService(alerts *AlertService, logger *zap.Logger, interval time.Duration) *SweepService {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SweepService{
		alerts:   alerts,
		logger:   logger,
		interval: interval,
	}
}

// Run sweeps on the configured interval until ctx is cancelled. One sweep
// runs immediately on start.
func (s *SweepService) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("alert sweep stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SweepService) sweep(ctx context.Context) {
	start := time.Now()
	if err := s.alerts.EvaluateExpiry(ctx); err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
	}
	if err := s.alerts.EvaluateAll(ctx); err != nil {
		s.logger.Error("threshold sweep failed", zap.Error(err))
	}
	s.logger.Debug("alert sweep completed", zap.Duration("elapsed", time.Since(start)))
}
