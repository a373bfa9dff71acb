package candle

import (
	"testing"

	"launchpad-scope/internal/domain"
)

const hourMs = int64(3600_000)

func trade(tsMs int64, price, quote float64) *domain.Trade {
	return &domain.Trade{
		TimestampMs: tsMs,
		Price:       price,
		BaseAmount:  quote / price,
		QuoteAmount: quote,
		Side:        domain.TradeSideBuy,
		TxSignature: "sig",
	}
}

func TestAggregate_Empty(t *testing.T) {
	candles := Aggregate(nil, hourMs)
	if len(candles) != 0 {
		t.Errorf("expected empty series, got %d candles", len(candles))
	}
}

func TestAggregate_SingleBucket(t *testing.T) {
	base := int64(1700000000000)
	start := (base / hourMs) * hourMs

	trades := []*domain.Trade{
		trade(base, 0.5, 1.0),
		trade(base+1000, 0.8, 2.0),
		trade(base+2000, 0.3, 0.5),
		trade(base+3000, 0.6, 1.5),
	}

	candles := Aggregate(trades, hourMs)
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}

	c := candles[0]
	if c.BucketStart != start {
		t.Errorf("expected bucket %d, got %d", start, c.BucketStart)
	}
	if c.Open != 0.5 || c.High != 0.8 || c.Low != 0.3 || c.Close != 0.6 {
		t.Errorf("unexpected OHLC: %+v", c)
	}
	if c.Volume != 5.0 {
		t.Errorf("expected volume 5.0, got %f", c.Volume)
	}
	if c.TradeCount != 4 {
		t.Errorf("expected 4 trades, got %d", c.TradeCount)
	}
}

func TestAggregate_MultipleBucketsAscending(t *testing.T) {
	base := (int64(1700000000000) / hourMs) * hourMs

	// Unsorted input spanning three buckets with a gap.
	trades := []*domain.Trade{
		trade(base+3*hourMs+60_000, 0.9, 1.0),
		trade(base+500, 0.4, 1.0),
		trade(base+hourMs+500, 0.7, 2.0),
		trade(base+1500, 0.5, 1.0),
	}

	candles := Aggregate(trades, hourMs)
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}

	wantStarts := []int64{base, base + hourMs, base + 3*hourMs}
	for i, want := range wantStarts {
		if candles[i].BucketStart != want {
			t.Errorf("candle %d: expected start %d, got %d", i, want, candles[i].BucketStart)
		}
	}

	// First bucket: open 0.4 then 0.5.
	if candles[0].Open != 0.4 || candles[0].Close != 0.5 {
		t.Errorf("first bucket open/close wrong: %+v", candles[0])
	}
	if candles[1].TradeCount != 1 || candles[1].Volume != 2.0 {
		t.Errorf("second bucket wrong: %+v", candles[1])
	}
}

func TestAggregate_BucketAlignment(t *testing.T) {
	// A trade exactly on a boundary opens the bucket it starts.
	start := 400 * hourMs
	trades := []*domain.Trade{
		trade(start, 1.0, 1.0),
		trade(start+hourMs-1, 2.0, 1.0),
		trade(start+hourMs, 3.0, 1.0),
	}

	candles := Aggregate(trades, hourMs)
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].TradeCount != 2 || candles[1].TradeCount != 1 {
		t.Errorf("boundary trade in wrong bucket: %+v / %+v", candles[0], candles[1])
	}
}

func TestAggregate_PureRecompute(t *testing.T) {
	base := int64(1700000000000)
	trades := []*domain.Trade{
		trade(base, 0.5, 1.0),
		trade(base+1000, 0.8, 2.0),
	}

	first := Aggregate(trades, hourMs)
	second := Aggregate(trades, hourMs)

	if len(first) != len(second) {
		t.Fatalf("recompute changed candle count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if *first[i] != *second[i] {
			t.Errorf("candle %d differs between recomputes", i)
		}
	}

	// Input order must not change after aggregation.
	if trades[0].TimestampMs != base {
		t.Error("input slice was reordered")
	}
}
