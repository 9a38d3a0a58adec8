package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/logistics/backend/internal/infrastructure/config"
)

// RedisQuantityCache caches derived quantity totals in Redis so read-model
// queries can skip the SUM over balance rows.
type RedisQuantityCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	logger     *zap.Logger
}

// RedisQuantityCacheOption is a functional option for configuring the cache
type RedisQuantityCacheOption func(*RedisQuantityCache)

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisQuantityCacheOption {
	return func(c *RedisQuantityCache) {
		c.logger = logger
	}
}

// NewRedisQuantityCache creates a Redis-backed quantity cache
func NewRedisQuantityCache(cfg config.RedisConfig, opts ...RedisQuantityCacheOption) (*RedisQuantityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisQuantityCache{
		client:     client,
		ownsClient: true,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisQuantityCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisQuantityCacheWithClient(client *redis.Client, opts ...RedisQuantityCacheOption) *RedisQuantityCache {
	cache := &RedisQuantityCache{
		client:     client,
		ownsClient: false,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get returns the cached value for key and whether it was present.
// Redis errors read as a miss so callers fall through to the repository.
func (c *RedisQuantityCache) Get(ctx context.Context, key string) (int64, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("quantity cache read failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return 0, false
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.logger.Warn("quantity cache holds non-numeric value",
			zap.String("key", key),
			zap.String("value", raw),
		)
		return 0, false
	}
	return value, true
}

// Set stores the value for key with a TTL
func (c *RedisQuantityCache) Set(ctx context.Context, key string, value int64, ttl time.Duration) {
	if err := c.client.Set(ctx, key, strconv.FormatInt(value, 10), ttl).Err(); err != nil {
		c.logger.Warn("quantity cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Delete drops keys from the cache
func (c *RedisQuantityCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("quantity cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

// Close closes the Redis client if this cache owns it
func (c *RedisQuantityCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
