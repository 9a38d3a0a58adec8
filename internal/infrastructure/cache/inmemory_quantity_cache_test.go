package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryQuantityCache_SetGet(t *testing.T) {
	cache := NewInMemoryQuantityCache()
	ctx := context.Background()

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok := cache.Get(ctx, "stock:total:missing")
		assert.False(t, ok)
	})

	t.Run("returns stored value", func(t *testing.T) {
		cache.Set(ctx, "stock:total:abc", 42, time.Minute)

		value, ok := cache.Get(ctx, "stock:total:abc")
		assert.True(t, ok)
		assert.Equal(t, int64(42), value)
	})

	t.Run("overwrites existing value", func(t *testing.T) {
		cache.Set(ctx, "stock:total:abc", 7, time.Minute)

		value, ok := cache.Get(ctx, "stock:total:abc")
		assert.True(t, ok)
		assert.Equal(t, int64(7), value)
	})
}

func TestInMemoryQuantityCache_Expiry(t *testing.T) {
	cache := NewInMemoryQuantityCache()
	ctx := context.Background()

	cache.Set(ctx, "stock:total:short", 5, 10*time.Millisecond)

	_, ok := cache.Get(ctx, "stock:total:short")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = cache.Get(ctx, "stock:total:short")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entry should be evicted on read")
}

func TestInMemoryQuantityCache_Delete(t *testing.T) {
	cache := NewInMemoryQuantityCache()
	ctx := context.Background()

	cache.Set(ctx, "a", 1, time.Minute)
	cache.Set(ctx, "b", 2, time.Minute)
	cache.Set(ctx, "c", 3, time.Minute)

	cache.Delete(ctx, "a", "b")

	_, ok := cache.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "c")
	assert.True(t, ok)

	// deleting unknown keys is a no-op
	cache.Delete(ctx, "missing")
}

func TestInMemoryQuantityCache_ConcurrentAccess(t *testing.T) {
	cache := NewInMemoryQuantityCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			cache.Set(ctx, "shared", n, time.Minute)
			cache.Get(ctx, "shared")
			cache.Delete(ctx, "other")
		}(int64(i))
	}
	wg.Wait()

	_, ok := cache.Get(ctx, "shared")
	assert.True(t, ok)
}
