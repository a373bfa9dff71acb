// Package cache provides TTL caches for computed snapshots.
//
// Caches are accelerators: implementations degrade to a miss or a no-op
// when the backend is unavailable, and callers receive the cache as an
// explicit dependency rather than reaching for a shared instance.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store for values of type T. Expired entries
// behave as absent; eviction is lazy and happens on read. IsExpired
// reports whether a key holds no live value (absent or past its TTL)
// without evicting anything.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T, ttl time.Duration)
	Remove(ctx context.Context, key string)
	Clear(ctx context.Context)
	IsExpired(ctx context.Context, key string) bool
}
