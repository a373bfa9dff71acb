package memory

import (
	"context"
	"errors"
	"testing"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
)

const hourMs = int64(3600_000)

func testCandle(bucketStart int64, close float64) *domain.Candle {
	return &domain.Candle{
		BucketStart: bucketStart,
		Open:        0.4,
		High:        0.6,
		Low:         0.3,
		Close:       close,
		Volume:      10,
		TradeCount:  3,
	}
}

func TestCandleArchive_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	a := NewCandleArchive()

	candles := []*domain.Candle{
		testCandle(2*hourMs, 0.5),
		testCandle(0, 0.4),
		testCandle(hourMs, 0.45),
	}
	if err := a.InsertBulk(ctx, "poolA", hourMs, candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := a.GetByPool(ctx, "poolA", hourMs)
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].BucketStart >= got[i].BucketStart {
			t.Errorf("candles not ascending at %d", i)
		}
	}
}

func TestCandleArchive_RecomputeReplacesBuckets(t *testing.T) {
	ctx := context.Background()
	a := NewCandleArchive()

	if err := a.InsertBulk(ctx, "poolA", hourMs, []*domain.Candle{testCandle(0, 0.4)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	// Next refresh recomputes the same bucket with more trades in it.
	if err := a.InsertBulk(ctx, "poolA", hourMs, []*domain.Candle{testCandle(0, 0.9)}); err != nil {
		t.Fatalf("second InsertBulk failed: %v", err)
	}

	got, err := a.GetByPool(ctx, "poolA", hourMs)
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(got))
	}
	if got[0].Close != 0.9 {
		t.Errorf("expected latest close 0.9, got %f", got[0].Close)
	}
}

func TestCandleArchive_BucketWidthsAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := NewCandleArchive()

	if err := a.InsertBulk(ctx, "poolA", hourMs, []*domain.Candle{testCandle(0, 0.4)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := a.InsertBulk(ctx, "poolA", hourMs/60, []*domain.Candle{testCandle(0, 0.5)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	hourly, err := a.GetByPool(ctx, "poolA", hourMs)
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(hourly) != 1 || hourly[0].Close != 0.4 {
		t.Errorf("hourly series polluted: %+v", hourly)
	}
}

func TestCandleArchive_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	a := NewCandleArchive()

	if err := a.InsertBulk(ctx, "", hourMs, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty pool, got %v", err)
	}
	if err := a.InsertBulk(ctx, "poolA", 0, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero bucket width, got %v", err)
	}
}
