package cache

import "context"

// Cache stores encoded prediction results keyed by feature vector.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Tiered checks L1 before L2 and back-fills L1 on an L2 hit.
type Tiered struct {
	L1 Cache
	L2 Cache
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := t.L1.Get(ctx, key); ok {
		return v, true
	}
	if t.L2 == nil {
		return nil, false
	}
	v, ok := t.L2.Get(ctx, key)
	if ok {
		t.L1.Set(ctx, key, v)
	}
	return v, ok
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte) {
	t.L1.Set(ctx, key, value)
	if t.L2 != nil {
		t.L2.Set(ctx, key, value)
	}
}
