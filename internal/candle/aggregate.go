// Package candle builds OHLCV candles from classified trades.
package candle

import (
	"sort"

	"launchpad-scope/internal/domain"
)

// Aggregate recomputes the full candle series from trades. Buckets are
// floor-aligned to bucketWidthMs and returned in ascending order. Trades
// need not be sorted; within a bucket, open and close follow trade
// timestamps. The input is not modified.
func Aggregate(trades []*domain.Trade, bucketWidthMs int64) []*domain.Candle {
	if bucketWidthMs <= 0 {
		bucketWidthMs = domain.DefaultBucketWidthMs
	}
	if len(trades) == 0 {
		return []*domain.Candle{}
	}

	sorted := make([]*domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})

	byBucket := make(map[int64]*domain.Candle)
	starts := make([]int64, 0)

	for _, trade := range sorted {
		bucket := (trade.TimestampMs / bucketWidthMs) * bucketWidthMs
		if trade.TimestampMs < 0 && trade.TimestampMs%bucketWidthMs != 0 {
			bucket -= bucketWidthMs
		}

		c, ok := byBucket[bucket]
		if !ok {
			c = &domain.Candle{
				BucketStart: bucket,
				Open:        trade.Price,
				High:        trade.Price,
				Low:         trade.Price,
			}
			byBucket[bucket] = c
			starts = append(starts, bucket)
		}

		if trade.Price > c.High {
			c.High = trade.Price
		}
		if trade.Price < c.Low {
			c.Low = trade.Price
		}
		c.Close = trade.Price
		c.Volume += trade.QuoteAmount
		c.TradeCount++
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	candles := make([]*domain.Candle, len(starts))
	for i, start := range starts {
		candles[i] = byBucket[start]
	}

	return candles
}
