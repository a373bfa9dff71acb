package domain

// Candle is an OHLCV summary of one fixed-width time bucket.
// Candles are derived wholesale from the retained trade set on every
// aggregation pass; they are never mutated incrementally across passes.
type Candle struct {
	BucketStart int64   `json:"bucketStart"` // bucket start, ms, aligned to the bucket width
	Open        float64 `json:"open"`        // price of the chronologically earliest trade
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`       // price of the chronologically latest trade
	Volume      float64 `json:"volume"`      // sum of quote amounts in the bucket
	TradeCount  int     `json:"tradeCount"`  // number of trades folded into the bucket
}

// DefaultBucketWidthMs is the hourly candle bucket width.
const DefaultBucketWidthMs = int64(60 * 60 * 1000)
