package cache

import (
	"context"
	"sync"
	"time"
)

// CacheEntry is one stored value with its expiry metadata.
type CacheEntry[T any] struct {
	Data     T
	StoredAt time.Time
	TTL      time.Duration
}

// IsExpired reports whether the entry's TTL has elapsed. An entry lives
// through the full TTL and expires strictly after it. A zero TTL never
// expires.
func (e *CacheEntry[T]) IsExpired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.StoredAt) > e.TTL
}

// Memory is an in-process TTL cache. Reads of expired entries erase them.
type Memory[T any] struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry[T]
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{
		entries: make(map[string]*CacheEntry[T]),
		now:     time.Now,
	}
}

var _ Cache[int] = (*Memory[int])(nil)

func (m *Memory[T]) Get(ctx context.Context, key string) (T, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}

	if entry.IsExpired(m.now()) {
		m.mu.Lock()
		// Recheck under the write lock: a concurrent Set may have
		// replaced the entry.
		if current, ok := m.entries[key]; ok && current.IsExpired(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, false
	}

	return entry.Data, true
}

func (m *Memory[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &CacheEntry[T]{
		Data:     value,
		StoredAt: m.now(),
		TTL:      ttl,
	}
}

func (m *Memory[T]) Remove(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory[T]) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*CacheEntry[T])
}

// IsExpired reports whether key holds no live value. Unlike Get it never
// evicts, so an expired entry stays stored until the next erasing read.
func (m *Memory[T]) IsExpired(ctx context.Context, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return true
	}
	return entry.IsExpired(m.now())
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
