package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalCacheGetSet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewLocalCache(ctx, time.Minute, 10)

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", []byte("v"))
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
	assert.InDelta(t, 0.5, c.HitRate(), 1e-9)
}

func TestLocalCacheExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewLocalCache(ctx, time.Nanosecond, 10)

	c.Set(ctx, "k", []byte("v"))
	time.Sleep(time.Millisecond)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.removeExpired()
	assert.Equal(t, 0, c.Size())
}

func TestLocalCacheMaxSize(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewLocalCache(ctx, time.Minute, 2)

	c.Set(ctx, "a", nil)
	c.Set(ctx, "b", nil)
	c.Set(ctx, "c", nil)
	assert.Equal(t, 2, c.Size())

	// overwriting an existing key does not evict
	c.Set(ctx, "c", []byte("again"))
	assert.Equal(t, 2, c.Size())
}

type mapCache map[string][]byte

func (m mapCache) Get(_ context.Context, k string) ([]byte, bool) { v, ok := m[k]; return v, ok }
func (m mapCache) Set(_ context.Context, k string, v []byte)      { m[k] = v }

func TestTieredBackfillsL1(t *testing.T) {
	ctx := context.Background()
	l1, l2 := mapCache{}, mapCache{"k": []byte("v")}
	c := &Tiered{L1: l1, L2: l2}

	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
	assert.Equal(t, []byte("v"), l1["k"])

	c.Set(ctx, "n", []byte("x"))
	assert.Equal(t, []byte("x"), l2["n"])
}
