package cache

import (
	"fmt"

	"go.uber.org/zap"

	appstock "github.com/logistics/backend/internal/application/stock"
	"github.com/logistics/backend/internal/infrastructure/config"
)

// QuantityCacheFactory creates quantity caches based on configuration
type QuantityCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// QuantityCacheFactoryOption is a functional option for configuring the factory
type QuantityCacheFactoryOption func(*QuantityCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) QuantityCacheFactoryOption {
	return func(f *QuantityCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) QuantityCacheFactoryOption {
	return func(f *QuantityCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewQuantityCacheFactory creates a new factory
func NewQuantityCacheFactory(cfg config.RedisConfig, opts ...QuantityCacheFactoryOption) *QuantityCacheFactory {
	f := &QuantityCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed quantity cache
func (f *QuantityCacheFactory) CreateRedisCache() (appstock.QuantityCache, error) {
	cache, err := NewRedisQuantityCache(f.redisConfig, WithCacheLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis quantity cache: %w", err)
	}
	return cache, nil
}

// CreateInMemoryCache creates an in-memory quantity cache. In-memory caches
// do not share invalidations across process instances.
func (f *QuantityCacheFactory) CreateInMemoryCache() appstock.QuantityCache {
	return NewInMemoryQuantityCache()
}

// CreateCache tries Redis first and falls back to the in-memory cache when
// Redis is unavailable and fallback is allowed.
func (f *QuantityCacheFactory) CreateCache() (appstock.QuantityCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis quantity cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for quantity cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory quantity cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}

var _ appstock.QuantityCache = (*RedisQuantityCache)(nil)
var _ appstock.QuantityCache = (*InMemoryQuantityCache)(nil)
