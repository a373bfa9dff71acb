package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string]()

	c.Set(ctx, "a", "hello", time.Minute)

	got, ok := c.Get(ctx, "a")
	if !ok || got != "hello" {
		t.Errorf("expected hello, got %q (ok=%v)", got, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestMemory_LazyEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int]()

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 42, 10*time.Second)

	now = now.Add(9 * time.Second)
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("expected expired entry to be a miss")
	}

	// The expired read erased the entry.
	if c.Len() != 0 {
		t.Errorf("expected eviction on read, %d entries remain", c.Len())
	}
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int]()

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 1, 0)
	now = now.Add(1000 * time.Hour)

	if _, ok := c.Get(ctx, "a"); !ok {
		t.Error("zero-TTL entry must not expire")
	}
}

func TestMemory_Overwrite(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int]()

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "a", 2, time.Minute)

	got, ok := c.Get(ctx, "a")
	if !ok || got != 2 {
		t.Errorf("expected 2 after overwrite, got %d (ok=%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestMemory_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int]()

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "b", 2, time.Minute)

	c.Remove(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("expected miss after Remove")
	}
	if _, ok := c.Get(ctx, "b"); !ok {
		t.Error("Remove erased the wrong key")
	}

	c.Clear(ctx)
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", c.Len())
	}
}

func TestCacheEntry_IsExpired(t *testing.T) {
	stored := time.Unix(1000, 0)
	entry := &CacheEntry[int]{Data: 1, StoredAt: stored, TTL: 10 * time.Second}

	if entry.IsExpired(stored.Add(9 * time.Second)) {
		t.Error("expired before TTL elapsed")
	}
	// The entry lives through the full TTL.
	if entry.IsExpired(stored.Add(10 * time.Second)) {
		t.Error("expired at exactly TTL")
	}
	if !entry.IsExpired(stored.Add(10*time.Second + time.Nanosecond)) {
		t.Error("not expired past TTL")
	}
}

func TestMemory_IsExpiredDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int]()

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 42, 100*time.Millisecond)

	if c.IsExpired(ctx, "a") {
		t.Fatal("fresh entry reported expired")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(101 * time.Millisecond)
	if !c.IsExpired(ctx, "a") {
		t.Fatal("entry past TTL not reported expired")
	}
	// The check is read-only; the entry waits for an erasing read.
	if c.Len() != 1 {
		t.Fatalf("IsExpired evicted the entry, %d entries remain", c.Len())
	}

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("expected expired entry to be a miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected eviction on read, %d entries remain", c.Len())
	}
	if !c.IsExpired(ctx, "a") {
		t.Error("absent key must report expired")
	}
}

func TestMemory_IsExpiredUnknownKey(t *testing.T) {
	c := NewMemory[int]()

	if !c.IsExpired(context.Background(), "missing") {
		t.Error("key never set must report expired")
	}
}
