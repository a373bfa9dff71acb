// Package storage defines the archival store interfaces. The stores are
// export surfaces for offline analysis; the in-process snapshot never
// reads from them.
package storage

import (
	"context"

	"launchpad-scope/internal/domain"
)

// PoolStore persists discovered pools.
type PoolStore interface {
	// Upsert inserts the pool or updates its mutable state (flags,
	// activity) when the address already exists.
	Upsert(ctx context.Context, p *domain.Pool) error

	// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Pool, error)

	// GetAll retrieves all pools, ordered by address.
	GetAll(ctx context.Context) ([]*domain.Pool, error)
}

// TradeArchive appends classified trades keyed by (pool, tx_signature).
// Re-inserting a signature already archived is a no-op; refreshes re-fetch
// recent history and the archive absorbs the overlap.
type TradeArchive interface {
	// InsertBulk archives trades for a pool.
	InsertBulk(ctx context.Context, poolAddress string, trades []*domain.Trade) error

	// GetByPool retrieves archived trades for a pool, ordered by timestamp ASC.
	GetByPool(ctx context.Context, poolAddress string) ([]*domain.Trade, error)

	// GetByTimeRange retrieves trades for a pool within [start, end] ms (inclusive).
	GetByTimeRange(ctx context.Context, poolAddress string, start, end int64) ([]*domain.Trade, error)
}

// CandleArchive stores computed candle series keyed by
// (pool, bucket_width, bucket_start). Later inserts for the same bucket
// supersede earlier ones since each refresh recomputes the series.
type CandleArchive interface {
	// InsertBulk archives a candle series for a pool.
	InsertBulk(ctx context.Context, poolAddress string, bucketWidthMs int64, candles []*domain.Candle) error

	// GetByPool retrieves candles for a pool and bucket width, ordered by bucket ASC.
	GetByPool(ctx context.Context, poolAddress string, bucketWidthMs int64) ([]*domain.Candle, error)
}
