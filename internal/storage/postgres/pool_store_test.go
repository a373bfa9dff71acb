package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
	pgstore "launchpad-scope/internal/storage/postgres"
)

func testPool(address string) *domain.Pool {
	return &domain.Pool{
		PoolAddress: address,
		BaseMint:    "mint_" + address,
		QuoteMint:   "So11111111111111111111111111111111111111112",
		BaseVault:   "bv_" + address,
		QuoteVault:  "qv_" + address,
		IsActive:    true,
		CreatedAt:   1700000000000,
	}
}

func TestPoolStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewPoolStore(pool)

	require.NoError(t, store.Upsert(ctx, testPool("A")))

	got, err := store.GetByAddress(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "mint_A", got.BaseMint)
	assert.Equal(t, "qv_A", got.QuoteVault)
	assert.True(t, got.IsActive)
	assert.Equal(t, int64(1700000000000), got.CreatedAt)
}

func TestPoolStore_UpsertUpdatesState(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewPoolStore(pool)

	p := testPool("A")
	require.NoError(t, store.Upsert(ctx, p))

	p.IsActive = false
	p.Locked = true
	p.Migrated = true
	require.NoError(t, store.Upsert(ctx, p))

	got, err := store.GetByAddress(ctx, "A")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.Locked)
	assert.True(t, got.Migrated)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPoolStore_GetByAddressNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewPoolStore(pool)

	_, err := store.GetByAddress(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPoolStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := pgstore.NewPoolStore(pool)

	for _, addr := range []string{"C", "A", "B"} {
		require.NoError(t, store.Upsert(ctx, testPool(addr)))
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].PoolAddress)
	assert.Equal(t, "B", all[1].PoolAddress)
	assert.Equal(t, "C", all[2].PoolAddress)
}

func TestPoolStore_RejectsInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewPoolStore(pool)

	assert.ErrorIs(t, store.Upsert(context.Background(), nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(context.Background(), &domain.Pool{}), storage.ErrInvalidInput)
}
