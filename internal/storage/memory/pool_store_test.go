package memory

import (
	"context"
	"errors"
	"testing"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
)

func testPool(address string) *domain.Pool {
	return &domain.Pool{
		PoolAddress: address,
		BaseMint:    "mint" + address,
		QuoteMint:   "So11111111111111111111111111111111111111112",
		BaseVault:   "bv" + address,
		QuoteVault:  "qv" + address,
		IsActive:    true,
		CreatedAt:   1700000000000,
	}
}

func TestPoolStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewPoolStore()

	if err := s.Upsert(ctx, testPool("A")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := s.GetByAddress(ctx, "A")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if got.BaseMint != "mintA" || !got.IsActive {
		t.Errorf("unexpected pool: %+v", got)
	}
}

func TestPoolStore_UpsertReplacesState(t *testing.T) {
	ctx := context.Background()
	s := NewPoolStore()

	p := testPool("A")
	if err := s.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	p.Locked = true
	p.IsActive = false
	if err := s.Upsert(ctx, p); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := s.GetByAddress(ctx, "A")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if !got.Locked || got.IsActive {
		t.Errorf("upsert did not replace state: %+v", got)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 pool after replacing upsert, got %d", len(all))
	}
}

func TestPoolStore_GetByAddressNotFound(t *testing.T) {
	s := NewPoolStore()

	_, err := s.GetByAddress(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPoolStore_GetAllOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewPoolStore()

	for _, addr := range []string{"C", "A", "B"} {
		if err := s.Upsert(ctx, testPool(addr)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 pools, got %d", len(all))
	}
	for i, want := range []string{"A", "B", "C"} {
		if all[i].PoolAddress != want {
			t.Errorf("pool %d: expected %s, got %s", i, want, all[i].PoolAddress)
		}
	}
}

func TestPoolStore_RejectsInvalidInput(t *testing.T) {
	s := NewPoolStore()

	if err := s.Upsert(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil pool, got %v", err)
	}
	if err := s.Upsert(context.Background(), &domain.Pool{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty address, got %v", err)
	}
}

func TestPoolStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewPoolStore()

	if err := s.Upsert(ctx, testPool("A")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, _ := s.GetByAddress(ctx, "A")
	got.Locked = true

	again, _ := s.GetByAddress(ctx, "A")
	if again.Locked {
		t.Error("mutating a returned pool leaked into the store")
	}
}
