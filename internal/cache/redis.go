package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a TTL cache backed by Redis with JSON-encoded values. Every
// operation degrades to a miss or a no-op when the backend is unreachable,
// so a Redis outage never fails a refresh.
type Redis[T any] struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed cache. prefix namespaces the keys.
func NewRedis[T any](client *redis.Client, prefix string) *Redis[T] {
	return &Redis[T]{client: client, prefix: prefix}
}

var _ Cache[int] = (*Redis[int])(nil)

func (r *Redis[T]) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false
	}

	return value, true
}

func (r *Redis[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	r.client.Set(ctx, r.key(key), raw, ttl)
}

func (r *Redis[T]) Remove(ctx context.Context, key string) {
	r.client.Del(ctx, r.key(key))
}

// IsExpired reports whether key holds no live value. Redis enforces TTLs
// server-side, so an existing key is live by definition; a backend error
// reports false per the degrade-to-no-op policy.
func (r *Redis[T]) IsExpired(ctx context.Context, key string) bool {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false
	}
	return n == 0
}

func (r *Redis[T]) Clear(ctx context.Context) {
	pattern := r.key("*")
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		r.client.Del(ctx, iter.Val())
	}
}
