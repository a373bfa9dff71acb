// Package memory provides in-memory implementations of the storage
// interfaces, used as the default sinks and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
)

// PoolStore implements storage.PoolStore in memory.
type PoolStore struct {
	mu    sync.RWMutex
	pools map[string]*domain.Pool
}

// NewPoolStore creates a new in-memory PoolStore.
func NewPoolStore() *PoolStore {
	return &PoolStore{pools: make(map[string]*domain.Pool)}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Upsert inserts or replaces the pool by address.
func (s *PoolStore) Upsert(ctx context.Context, p *domain.Pool) error {
	if p == nil || p.PoolAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *p
	s.pools[p.PoolAddress] = &clone
	return nil
}

// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(ctx context.Context, address string) (*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pools[address]
	if !ok {
		return nil, storage.ErrNotFound
	}

	clone := *p
	return &clone, nil
}

// GetAll retrieves all pools, ordered by address.
func (s *PoolStore) GetAll(ctx context.Context) ([]*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pools := make([]*domain.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		clone := *p
		pools = append(pools, &clone)
	}

	sort.Slice(pools, func(i, j int) bool {
		return pools[i].PoolAddress < pools[j].PoolAddress
	})

	return pools, nil
}
