// Package ingest orchestrates the refresh pipeline: pool lookup, signature
// listing, transaction fetch, trade classification, and candle aggregation,
// producing whole-value snapshots for UI consumers.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"launchpad-scope/internal/cache"
	"launchpad-scope/internal/candle"
	"launchpad-scope/internal/classify"
	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/fetch"
	"launchpad-scope/internal/observability"
	"launchpad-scope/internal/pools"
	"launchpad-scope/internal/solana"
	"launchpad-scope/internal/storage"
)

// State is the refresh lifecycle state of one tracked subject.
type State string

const (
	StateIdle       State = "idle"
	StateRefreshing State = "refreshing"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

const (
	// DefaultRefreshInterval is the periodic refresh cadence.
	DefaultRefreshInterval = 30 * time.Second

	// DefaultSignatureLimit caps the signature listing per refresh.
	DefaultSignatureLimit = 50

	// DefaultTransactionCap bounds how many transactions one refresh
	// fetches out of the listed signatures.
	DefaultTransactionCap = 20

	// DefaultTradeRetention caps the trades retained in a snapshot.
	DefaultTradeRetention = 50

	// DefaultSnapshotTTL is how long a cached snapshot stays fresh.
	DefaultSnapshotTTL = 5 * time.Minute
)

// subject tracks the per-pool refresh state machine. A refresh moves the
// subject Idle -> Refreshing -> Ready or Failed; the previous snapshot
// stays visible throughout.
type subject struct {
	mu       sync.Mutex
	state    State
	inFlight bool
	snapshot *domain.Snapshot
}

// Service runs the ingestion pipeline for a set of tracked pools.
type Service struct {
	rpc        solana.RPCClient
	fetcher    *fetch.Fetcher
	scheduler  *fetch.Scheduler
	locator    *pools.Locator
	classifier *classify.Classifier
	snapshots  cache.Cache[*domain.Snapshot]
	programID  string

	bucketWidthMs  int64
	interval       time.Duration
	snapshotTTL    time.Duration
	signatureLimit int
	tradeRetention int

	poolStore     storage.PoolStore
	tradeArchive  storage.TradeArchive
	candleArchive storage.CandleArchive

	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	subjects map[string]*subject
}

// Option configures Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFetcher replaces the retry policy.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithScheduler replaces the batch scheduler.
func WithScheduler(sched *fetch.Scheduler) Option {
	return func(s *Service) { s.scheduler = sched }
}

// WithRefreshInterval sets the periodic refresh cadence.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) { s.interval = d }
}

// WithSnapshotTTL sets the cached snapshot TTL.
func WithSnapshotTTL(d time.Duration) Option {
	return func(s *Service) { s.snapshotTTL = d }
}

// WithBucketWidth sets the candle bucket width in milliseconds.
func WithBucketWidth(ms int64) Option {
	return func(s *Service) { s.bucketWidthMs = ms }
}

// WithPoolStore attaches an archival pool store.
func WithPoolStore(store storage.PoolStore) Option {
	return func(s *Service) { s.poolStore = store }
}

// WithTradeArchive attaches an archival trade sink.
func WithTradeArchive(archive storage.TradeArchive) Option {
	return func(s *Service) { s.tradeArchive = archive }
}

// WithCandleArchive attaches an archival candle sink.
func WithCandleArchive(archive storage.CandleArchive) Option {
	return func(s *Service) { s.candleArchive = archive }
}

// NewService creates an ingestion service. The snapshot cache is a required
// dependency; pass a cache.Memory for single-process deployments.
func NewService(rpc solana.RPCClient, locator *pools.Locator, classifier *classify.Classifier, snapshots cache.Cache[*domain.Snapshot], programID string, opts ...Option) *Service {
	s := &Service{
		rpc: rpc,
		fetcher: fetch.NewFetcher(fetch.WithRetryHook(func(int, time.Duration) {
			observability.RecordRateLimitRetry()
		})),
		scheduler:      fetch.NewScheduler(fetch.WithMaxItems(DefaultTransactionCap)),
		locator:        locator,
		classifier:     classifier,
		snapshots:      snapshots,
		programID:      programID,
		bucketWidthMs:  domain.DefaultBucketWidthMs,
		interval:       DefaultRefreshInterval,
		snapshotTTL:    DefaultSnapshotTTL,
		signatureLimit: DefaultSignatureLimit,
		tradeRetention: DefaultTradeRetention,
		logger:         log.New(os.Stdout, "[ingest] ", log.LstdFlags),
		now:            time.Now,
		subjects:       make(map[string]*subject),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track registers a pool for periodic refreshes. Tracking an address twice
// is a no-op.
func (s *Service) Track(poolAddress string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subjects[poolAddress]; ok {
		return
	}
	s.subjects[poolAddress] = &subject{state: StateIdle}
	observability.SetTrackedSubjects(len(s.subjects))
}

// Tracked returns the tracked pool addresses.
func (s *Service) Tracked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs := make([]string, 0, len(s.subjects))
	for addr := range s.subjects {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// State returns the refresh state for a tracked pool.
func (s *Service) State(poolAddress string) State {
	sub := s.subject(poolAddress)
	if sub == nil {
		return StateIdle
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.state
}

func (s *Service) subject(poolAddress string) *subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subjects[poolAddress]
}

// Snapshot returns the current snapshot for a pool. The snapshot may be
// stale while a refresh is in flight or after a failure; nil means no
// refresh has completed yet.
func (s *Service) Snapshot(ctx context.Context, poolAddress string) *domain.Snapshot {
	sub := s.subject(poolAddress)
	if sub != nil {
		sub.mu.Lock()
		snap := sub.snapshot
		sub.mu.Unlock()
		if snap != nil {
			return snap
		}
	}

	if snap, ok := s.snapshots.Get(ctx, snapshotKey(poolAddress)); ok {
		return snap
	}
	return nil
}

func snapshotKey(poolAddress string) string {
	return "snapshot:" + poolAddress
}

// Refresh runs one refresh for a pool. If a refresh for the same pool is
// already in flight the call returns immediately without starting another.
// The pool is tracked if it was not already.
func (s *Service) Refresh(ctx context.Context, poolAddress string) error {
	s.Track(poolAddress)
	sub := s.subject(poolAddress)

	sub.mu.Lock()
	if sub.inFlight {
		sub.mu.Unlock()
		return nil
	}
	sub.inFlight = true
	sub.state = StateRefreshing
	if sub.snapshot != nil {
		stale := *sub.snapshot
		stale.IsLoading = true
		sub.snapshot = &stale
	}
	sub.mu.Unlock()

	started := s.now()
	snap, err := s.buildSnapshot(ctx, poolAddress)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.inFlight = false

	if err != nil {
		sub.state = StateFailed
		// Keep the previous data visible, surface the error.
		if sub.snapshot != nil {
			failed := *sub.snapshot
			failed.IsLoading = false
			failed.Error = err.Error()
			sub.snapshot = &failed
		} else {
			sub.snapshot = &domain.Snapshot{Error: err.Error()}
		}
		observability.RecordRefresh("failed", s.now().Sub(started).Seconds())
		s.logger.Printf("refresh %s failed: %v", poolAddress, err)
		return err
	}

	sub.state = StateReady
	sub.snapshot = snap
	s.snapshots.Set(ctx, snapshotKey(poolAddress), snap, s.snapshotTTL)
	observability.RecordRefresh("ok", s.now().Sub(started).Seconds())
	observability.RecordSuccessfulRefresh(poolAddress, s.now().Unix())
	return nil
}

// buildSnapshot runs the fetch/classify/aggregate pipeline for one pool.
func (s *Service) buildSnapshot(ctx context.Context, poolAddress string) (*domain.Snapshot, error) {
	pool, err := fetch.Call(ctx, s.fetcher, func(ctx context.Context) (*domain.Pool, error) {
		return s.locator.Locate(ctx, poolAddress)
	})
	if err != nil {
		return nil, fmt.Errorf("locate pool: %w", err)
	}

	sigs, err := fetch.Call(ctx, s.fetcher, func(ctx context.Context) ([]solana.SignatureInfo, error) {
		return s.rpc.GetSignaturesForAddress(ctx, poolAddress, &solana.SignaturesOpts{Limit: s.signatureLimit})
	})
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}

	signatures := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		if sig.Err != nil {
			continue
		}
		signatures = append(signatures, sig.Signature)
	}

	result, err := fetch.Map(ctx, s.scheduler, signatures, func(ctx context.Context, signature string) (*domain.Trade, error) {
		tx, err := fetch.Call(ctx, s.fetcher, func(ctx context.Context) (*solana.Transaction, error) {
			return s.rpc.GetTransaction(ctx, signature)
		})
		if err != nil {
			return nil, err
		}
		trade, err := s.classifier.Classify(tx, poolAddress, s.programID)
		if err != nil {
			observability.RecordTransactionSkipped(skipReason(err))
			return nil, err
		}
		observability.RecordTradeClassified()
		return trade, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	for _, skip := range result.Skipped {
		s.logger.Printf("refresh %s: skipped %s: %v", poolAddress, skip.Item, skip.Reason)
	}

	trades := result.Succeeded
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].TimestampMs > trades[j].TimestampMs
	})
	if len(trades) > s.tradeRetention {
		trades = trades[:s.tradeRetention]
	}

	candles := candle.Aggregate(trades, s.bucketWidthMs)

	s.archive(ctx, pool, trades, candles)

	return &domain.Snapshot{
		Pool:        pool,
		Trades:      trades,
		Candles:     candles,
		LastUpdated: s.now().UnixMilli(),
	}, nil
}

// archive exports the refresh output to the optional sinks. Sink errors
// are logged and never fail the refresh.
func (s *Service) archive(ctx context.Context, pool *domain.Pool, trades []*domain.Trade, candles []*domain.Candle) {
	if s.poolStore != nil {
		if err := s.poolStore.Upsert(ctx, pool); err != nil {
			s.logger.Printf("archive pool %s: %v", pool.PoolAddress, err)
		}
	}
	if s.tradeArchive != nil {
		if err := s.tradeArchive.InsertBulk(ctx, pool.PoolAddress, trades); err != nil {
			s.logger.Printf("archive trades %s: %v", pool.PoolAddress, err)
		}
	}
	if s.candleArchive != nil {
		if err := s.candleArchive.InsertBulk(ctx, pool.PoolAddress, s.bucketWidthMs, candles); err != nil {
			s.logger.Printf("archive candles %s: %v", pool.PoolAddress, err)
		}
	}
}

// skipReason maps classification errors to a bounded metric label set.
func skipReason(err error) string {
	switch {
	case errors.Is(err, classify.ErrFailedTransaction):
		return "failed_tx"
	case errors.Is(err, classify.ErrNoUserSigner):
		return "no_user_signer"
	case errors.Is(err, classify.ErrNoBalanceChange):
		return "no_balance_change"
	case errors.Is(err, classify.ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, classify.ErrIncompleteTransaction):
		return "incomplete"
	default:
		return "other"
	}
}

// Run refreshes all tracked pools on the configured interval until the
// context is cancelled. Manual and WebSocket-triggered refreshes run
// alongside; the per-subject in-flight guard keeps them from overlapping.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.refreshAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refreshAll(ctx)
		}
	}
}

func (s *Service) refreshAll(ctx context.Context) {
	for _, addr := range s.Tracked() {
		if ctx.Err() != nil {
			return
		}
		// Errors are already reflected in the subject state.
		_ = s.Refresh(ctx, addr)
	}
}

// WatchLogs consumes program log notifications and triggers refreshes for
// all tracked pools. It returns when the channel closes or the context is
// cancelled.
func (s *Service) WatchLogs(ctx context.Context, notifications <-chan solana.LogNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			observability.RecordWSNotification()
			if notif.Err != nil {
				continue
			}
			s.refreshAll(ctx)
		}
	}
}
