package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Upsert inserts the pool or updates its mutable state by address.
func (s *PoolStore) Upsert(ctx context.Context, p *domain.Pool) error {
	if p == nil || p.PoolAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pools (
			pool_address, base_mint, quote_mint, base_vault, quote_vault,
			is_active, locked, migrated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (pool_address) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			locked = EXCLUDED.locked,
			migrated = EXCLUDED.migrated
	`

	_, err := s.pool.Exec(ctx, query,
		p.PoolAddress,
		p.BaseMint,
		p.QuoteMint,
		p.BaseVault,
		p.QuoteVault,
		p.IsActive,
		p.Locked,
		p.Migrated,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert pool: %w", err)
	}
	return nil
}

// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(ctx context.Context, address string) (*domain.Pool, error) {
	query := `
		SELECT pool_address, base_mint, quote_mint, base_vault, quote_vault,
			is_active, locked, migrated, created_at
		FROM pools
		WHERE pool_address = $1
	`

	var p domain.Pool
	err := s.pool.QueryRow(ctx, query, address).Scan(
		&p.PoolAddress,
		&p.BaseMint,
		&p.QuoteMint,
		&p.BaseVault,
		&p.QuoteVault,
		&p.IsActive,
		&p.Locked,
		&p.Migrated,
		&p.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool by address: %w", err)
	}

	return &p, nil
}

// GetAll retrieves all pools, ordered by address.
func (s *PoolStore) GetAll(ctx context.Context) ([]*domain.Pool, error) {
	query := `
		SELECT pool_address, base_mint, quote_mint, base_vault, quote_vault,
			is_active, locked, migrated, created_at
		FROM pools
		ORDER BY pool_address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all pools: %w", err)
	}
	defer rows.Close()

	return scanPools(rows)
}

// scanPools scans multiple rows into a slice of Pool.
func scanPools(rows pgx.Rows) ([]*domain.Pool, error) {
	var pools []*domain.Pool

	for rows.Next() {
		var p domain.Pool

		err := rows.Scan(
			&p.PoolAddress,
			&p.BaseMint,
			&p.QuoteMint,
			&p.BaseVault,
			&p.QuoteVault,
			&p.IsActive,
			&p.Locked,
			&p.Migrated,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pool row: %w", err)
		}

		pools = append(pools, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool rows: %w", err)
	}

	return pools, nil
}
