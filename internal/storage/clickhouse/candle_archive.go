package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
)

// CandleArchive implements storage.CandleArchive using ClickHouse. Each
// refresh recomputes the series, so the candles table is a
// ReplacingMergeTree versioned by insert time; the latest row per
// (pool_address, bucket_width_ms, bucket_start) wins and reads go
// through FINAL.
type CandleArchive struct {
	conn *Conn
}

// NewCandleArchive creates a new CandleArchive.
func NewCandleArchive(conn *Conn) *CandleArchive {
	return &CandleArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleArchive = (*CandleArchive)(nil)

// InsertBulk archives a candle series for a pool.
func (a *CandleArchive) InsertBulk(ctx context.Context, poolAddress string, bucketWidthMs int64, candles []*domain.Candle) error {
	if poolAddress == "" || bucketWidthMs <= 0 {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			pool_address, bucket_width_ms, bucket_start,
			open, high, low, close, volume, trade_count, inserted_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	insertedAt := time.Now()
	for _, c := range candles {
		if c == nil {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			poolAddress, uint64(bucketWidthMs), uint64(c.BucketStart),
			c.Open, c.High, c.Low, c.Close, c.Volume, uint32(c.TradeCount),
			insertedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPool retrieves candles for a pool and bucket width, ordered by bucket ASC.
func (a *CandleArchive) GetByPool(ctx context.Context, poolAddress string, bucketWidthMs int64) ([]*domain.Candle, error) {
	query := `
		SELECT bucket_start, open, high, low, close, volume, trade_count
		FROM candles FINAL
		WHERE pool_address = ? AND bucket_width_ms = ?
		ORDER BY bucket_start ASC
	`

	rows, err := a.conn.Query(ctx, query, poolAddress, uint64(bucketWidthMs))
	if err != nil {
		return nil, fmt.Errorf("query candles by pool: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// scanCandles scans multiple rows.
func scanCandles(rows driver.Rows) ([]*domain.Candle, error) {
	var candles []*domain.Candle

	for rows.Next() {
		var c domain.Candle
		var bucketStart uint64
		var tradeCount uint32

		err := rows.Scan(
			&bucketStart, &c.Open, &c.High, &c.Low, &c.Close,
			&c.Volume, &tradeCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.BucketStart = int64(bucketStart)
		c.TradeCount = int(tradeCount)
		candles = append(candles, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
