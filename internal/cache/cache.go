// Package cache backs the read path of the users API. The default store is a
// TTL map in process memory; a Redis-backed store is used when configured.
package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Loader implements cache-aside reads. Concurrent misses for the same key are
// collapsed into a single fetch via singleflight.
type Loader struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
}

func NewLoader(store Store, ttl time.Duration) *Loader {
	return &Loader{store: store, ttl: ttl}
}

// Load returns the cached value for key, or fetches and caches it. The second
// return value reports whether the value came from the cache.
func (l *Loader) Load(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	if v, ok, err := l.store.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.store.Set(ctx, key, data, l.ttl)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// Invalidate drops the cached value for key; writers call it after mutating.
func (l *Loader) Invalidate(ctx context.Context, key string) {
	_ = l.store.Delete(ctx, key)
}
