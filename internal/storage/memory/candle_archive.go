package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
)

type candleKey struct {
	pool          string
	bucketWidthMs int64
	bucketStart   int64
}

// CandleArchive implements storage.CandleArchive in memory. The latest
// insert for a bucket wins.
type CandleArchive struct {
	mu      sync.RWMutex
	candles map[candleKey]*domain.Candle
}

// NewCandleArchive creates a new in-memory CandleArchive.
func NewCandleArchive() *CandleArchive {
	return &CandleArchive{candles: make(map[candleKey]*domain.Candle)}
}

// Compile-time interface check.
var _ storage.CandleArchive = (*CandleArchive)(nil)

// InsertBulk archives a candle series for a pool.
func (a *CandleArchive) InsertBulk(ctx context.Context, poolAddress string, bucketWidthMs int64, candles []*domain.Candle) error {
	if poolAddress == "" || bucketWidthMs <= 0 {
		return storage.ErrInvalidInput
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range candles {
		if c == nil {
			return storage.ErrInvalidInput
		}
		clone := *c
		a.candles[candleKey{poolAddress, bucketWidthMs, c.BucketStart}] = &clone
	}

	return nil
}

// GetByPool retrieves candles for a pool and bucket width, ordered by bucket ASC.
func (a *CandleArchive) GetByPool(ctx context.Context, poolAddress string, bucketWidthMs int64) ([]*domain.Candle, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var candles []*domain.Candle
	for key, c := range a.candles {
		if key.pool != poolAddress || key.bucketWidthMs != bucketWidthMs {
			continue
		}
		clone := *c
		candles = append(candles, &clone)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].BucketStart < candles[j].BucketStart
	})

	return candles, nil
}
