package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/storage"
)

// TradeArchive implements storage.TradeArchive using ClickHouse. The
// trades table is a ReplacingMergeTree keyed by (pool_address,
// tx_signature); overlapping refresh windows collapse at merge time and
// reads go through FINAL.
type TradeArchive struct {
	conn *Conn
}

// NewTradeArchive creates a new TradeArchive.
func NewTradeArchive(conn *Conn) *TradeArchive {
	return &TradeArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeArchive = (*TradeArchive)(nil)

// InsertBulk archives trades for a pool.
func (a *TradeArchive) InsertBulk(ctx context.Context, poolAddress string, trades []*domain.Trade) error {
	if poolAddress == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO trades (
			pool_address, tx_signature, timestamp_ms, price,
			base_amount, quote_amount, side, counterparty
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		if t == nil || t.TxSignature == "" {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			poolAddress, t.TxSignature, uint64(t.TimestampMs), t.Price,
			t.BaseAmount, t.QuoteAmount, t.Side, t.Counterparty,
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

// GetByPool retrieves archived trades for a pool, ordered by timestamp ASC.
func (a *TradeArchive) GetByPool(ctx context.Context, poolAddress string) ([]*domain.Trade, error) {
	query := `
		SELECT tx_signature, timestamp_ms, price, base_amount, quote_amount, side, counterparty
		FROM trades FINAL
		WHERE pool_address = ?
		ORDER BY timestamp_ms ASC, tx_signature ASC
	`

	rows, err := a.conn.Query(ctx, query, poolAddress)
	if err != nil {
		return nil, fmt.Errorf("query trades by pool: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTimeRange retrieves trades for a pool within [start, end] ms (inclusive).
func (a *TradeArchive) GetByTimeRange(ctx context.Context, poolAddress string, start, end int64) ([]*domain.Trade, error) {
	query := `
		SELECT tx_signature, timestamp_ms, price, base_amount, quote_amount, side, counterparty
		FROM trades FINAL
		WHERE pool_address = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, tx_signature ASC
	`

	rows, err := a.conn.Query(ctx, query, poolAddress, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query trades by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrades scans multiple rows.
func scanTrades(rows driver.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var t domain.Trade
		var timestampMs uint64

		err := rows.Scan(
			&t.TxSignature, &timestampMs, &t.Price,
			&t.BaseAmount, &t.QuoteAmount, &t.Side, &t.Counterparty,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.TimestampMs = int64(timestampMs)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
