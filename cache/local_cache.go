package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type item struct {
	value      []byte
	expiration int64
}

// LocalCache is an in-process TTL cache with a size cap.
type LocalCache struct {
	items   map[string]item
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLocalCache starts a janitor goroutine that stops when ctx is done.
func NewLocalCache(ctx context.Context, ttl time.Duration, maxSize int) *LocalCache {
	c := &LocalCache{
		items:   make(map[string]item),
		ttl:     ttl,
		maxSize: maxSize,
	}
	go c.cleanup(ctx, time.Minute)
	return c
}

func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	it, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || time.Now().UnixNano() > it.expiration {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return it.value, true
}

func (c *LocalCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// evict an arbitrary entry when full
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}
	c.items[key] = item{value: value, expiration: time.Now().Add(c.ttl).UnixNano()}
}

func (c *LocalCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *LocalCache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func (c *LocalCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UnixNano()
	for key, it := range c.items {
		if now > it.expiration {
			delete(c.items, key)
		}
	}
}

func (c *LocalCache) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}
