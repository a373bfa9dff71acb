package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
)

// TradeArchive implements storage.TradeArchive in memory. Duplicate
// (pool, signature) inserts are absorbed silently.
type TradeArchive struct {
	mu     sync.RWMutex
	trades map[string]map[string]*domain.Trade // pool -> signature -> trade
}

// NewTradeArchive creates a new in-memory TradeArchive.
func NewTradeArchive() *TradeArchive {
	return &TradeArchive{trades: make(map[string]map[string]*domain.Trade)}
}

// Compile-time interface check.
var _ storage.TradeArchive = (*TradeArchive)(nil)

// InsertBulk archives trades for a pool.
func (a *TradeArchive) InsertBulk(ctx context.Context, poolAddress string, trades []*domain.Trade) error {
	if poolAddress == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	bySig, ok := a.trades[poolAddress]
	if !ok {
		bySig = make(map[string]*domain.Trade)
		a.trades[poolAddress] = bySig
	}

	for _, t := range trades {
		if t == nil || t.TxSignature == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := bySig[t.TxSignature]; exists {
			continue
		}
		clone := *t
		bySig[t.TxSignature] = &clone
	}

	return nil
}

// GetByPool retrieves archived trades for a pool, ordered by timestamp ASC.
func (a *TradeArchive) GetByPool(ctx context.Context, poolAddress string) ([]*domain.Trade, error) {
	return a.GetByTimeRange(ctx, poolAddress, 0, int64(1)<<62)
}

// GetByTimeRange retrieves trades for a pool within [start, end] ms (inclusive).
func (a *TradeArchive) GetByTimeRange(ctx context.Context, poolAddress string, start, end int64) ([]*domain.Trade, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var trades []*domain.Trade
	for _, t := range a.trades[poolAddress] {
		if t.TimestampMs < start || t.TimestampMs > end {
			continue
		}
		clone := *t
		trades = append(trades, &clone)
	}

	sort.Slice(trades, func(i, j int) bool {
		if trades[i].TimestampMs != trades[j].TimestampMs {
			return trades[i].TimestampMs < trades[j].TimestampMs
		}
		return trades[i].TxSignature < trades[j].TxSignature
	})

	return trades, nil
}
