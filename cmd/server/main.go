package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	catalogapp "github.com/logistics/backend/internal/application/catalog"
	stockapp "github.com/logistics/backend/internal/application/stock"
	"github.com/logistics/backend/internal/infrastructure/cache"
	"github.com/logistics/backend/internal/infrastructure/config"
	"github.com/logistics/backend/internal/infrastructure/event"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/infrastructure/persistence"
	"github.com/logistics/backend/internal/infrastructure/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting stock ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection with zap-backed GORM logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	stockRepo := persistence.NewGormWarehouseStockRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	alertRepo := persistence.NewGormStockAlertRepository(db.DB)
	batchRepo := persistence.NewGormStockBatchRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Quantity cache: Redis when enabled, in-memory otherwise
	cacheFactory := cache.NewQuantityCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	var quantityCache stockapp.QuantityCache
	if cfg.Redis.Enabled {
		quantityCache, err = cacheFactory.CreateCache()
		if err != nil {
			log.Fatal("Failed to create quantity cache", zap.Error(err))
		}
	} else {
		quantityCache = cacheFactory.CreateInMemoryCache()
	}

	// Catalog reference with TTL cache
	reference := catalogapp.NewCachedReference(itemRepo, warehouseRepo)

	// Event bus (synchronous, in-process)
	eventBus := event.NewInMemoryEventBus(log)

	// Application services
	locks := stockapp.NewKeyedLock(cfg.Mutation.LockWait)
	mutationService := stockapp.NewMutationService(txScope, reference, locks, log)
	mutationService.SetEventPublisher(eventBus)

	alertService := stockapp.NewAlertService(reference, stockRepo, alertRepo, batchRepo, log)
	alertService.SetEventPublisher(eventBus)
	alertService.SetExpiryWindow(cfg.Alert.ExpiryWindow)

	readModelService := stockapp.NewReadModelService(stockRepo, movementRepo, alertRepo, quantityCache)
	readModelService.SetCacheTTL(cfg.Alert.CacheTTL)

	// Event handlers: alert evaluation runs inside the mutation's key lock,
	// cache and reference invalidation keep the read models fresh
	alertHandler := stockapp.NewAlertEvaluationHandler(alertService, log)
	eventBus.Subscribe(alertHandler)

	invalidationHandler := stockapp.NewCacheInvalidationHandler(quantityCache, log)
	eventBus.Subscribe(invalidationHandler)

	referenceHandler := catalogapp.NewReferenceInvalidationHandler(reference)
	eventBus.Subscribe(referenceHandler)

	log.Info("Event handlers registered",
		zap.Strings("alert_evaluation_events", alertHandler.EventTypes()),
		zap.Strings("cache_invalidation_events", invalidationHandler.EventTypes()),
		zap.Strings("reference_invalidation_events", referenceHandler.EventTypes()),
	)

	// Telemetry
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	if meterProvider.IsEnabled() {
		stockMetrics, err := telemetry.NewStockMetrics(telemetry.StockMetricsConfig{
			Meter:         meterProvider.Meter("stock-ledger"),
			Logger:        log,
			StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize stock metrics", zap.Error(err))
		}
		mutationService.SetStockMetrics(stockMetrics)
		alertService.SetStockMetrics(stockMetrics)
		stockMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.ExportInterval)
		defer stockMetrics.Stop()
		log.Info("Stock metrics collection started")
	}

	// Background sweep: expiry rules plus threshold re-evaluation
	if cfg.Alert.SweepEnabled {
		sweep := stockapp.NewSweepService(alertService, log, cfg.Alert.SweepInterval)
		go sweep.Run(ctx)
		log.Info("Alert sweep started", zap.Duration("interval", cfg.Alert.SweepInterval))
	}

	log.Info("Stock ledger running")
	<-ctx.Done()
	log.Info("Shutting down")
}
