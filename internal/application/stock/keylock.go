package stock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logistics/backend/internal/domain/shared"
)

// KeyedLock serializes work per (item, warehouse) key. Each key is backed by
// a one-slot channel used as a mutex; waiters beyond the configured wait
// budget fail fast with shared.ErrBusy instead of queueing unboundedly.
type KeyedLock struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
	maxWait time.Duration
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLock creates a KeyedLock. maxWait bounds how long Acquire blocks
// behind a holder before giving up.
func NewKeyedLock(maxWait time.Duration) *KeyedLock {
	return &KeyedLock{
		entries: make(map[string]*lockEntry),
		maxWait: maxWait,
	}
}

// LockKey builds the canonical key for an (item, warehouse) pair.
func LockKey(itemID, warehouseID uuid.UUID) string {
	return itemID.String() + "/" + warehouseID.String()
}

// Acquire takes the lock for key, waiting up to the configured budget.
// The returned release function must be called exactly once.
func (l *KeyedLock) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			l.release(key, entry)
		}, nil
	case <-timer.C:
		l.release(key, entry)
		return nil, shared.ErrBusy
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}
}

// AcquireOrdered takes multiple key locks in lexicographic order, which keeps
// concurrent multi-key operations (transfers) deadlock free. On failure any
// locks already taken are released.
func (l *KeyedLock) AcquireOrdered(ctx context.Context, keys ...string) (func(), error) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	releases := make([]func(), 0, len(sorted))
	for _, key := range sorted {
		release, err := l.Acquire(ctx, key)
		if err != nil {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
			return nil, err
		}
		releases = append(releases, release)
	}
	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}, nil
}

func (l *KeyedLock) release(key string, entry *lockEntry) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}
