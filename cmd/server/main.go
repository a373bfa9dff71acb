// Package main runs the launchpad dashboard backend: periodic snapshot
// refreshes for tracked pools, a WebSocket live trigger, optional archival
// sinks, and the HTTP API the dashboard reads.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"launchpad-scope/internal/cache"
	"launchpad-scope/internal/classify"
	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/ingest"
	"launchpad-scope/internal/observability"
	"launchpad-scope/internal/pools"
	"launchpad-scope/internal/solana"
	"launchpad-scope/internal/storage"
	chstore "launchpad-scope/internal/storage/clickhouse"
	"launchpad-scope/internal/storage/memory"
	"launchpad-scope/internal/storage/migrations"
	pgstore "launchpad-scope/internal/storage/postgres"
)

// DefaultProgram is the launchpad program monitored when none is given.
const DefaultProgram = "ip6SLxttjbSrQggmM2SH5RZXhWKq3onmkzj3kExoceN"

// Server wires the ingestion service to the HTTP API.
type Server struct {
	service *ingest.Service
	locator *pools.Locator
	started time.Time
	logger  *log.Logger
}

func main() {
	// Load .env if present; system env vars win.
	_ = godotenv.Load()

	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional)")
	program := flag.String("program", envOr("LAUNCHPAD_PROGRAM", DefaultProgram), "Launchpad program ID")
	poolList := flag.String("pools", os.Getenv("TRACKED_POOLS"), "Comma-separated pool addresses to track (default: scan)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN for the pool archive (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for trade/candle archives (optional)")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the snapshot cache (optional)")
	refreshInterval := flag.Duration("refresh-interval", 30*time.Second, "Snapshot refresh interval")
	listenAddr := flag.String("listen-addr", ":8080", "HTTP listen address")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := buildSnapshotCache(*redisAddr, logger)

	sinks, cleanup, err := buildSinks(ctx, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Failed to create archival sinks: %v", err)
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	locator := pools.NewLocator(rpc, *program)
	classifier := classify.NewClassifier()

	service := ingest.NewService(rpc, locator, classifier, snapshots, *program,
		ingest.WithRefreshInterval(*refreshInterval),
		ingest.WithPoolStore(sinks.poolStore),
		ingest.WithTradeArchive(sinks.tradeArchive),
		ingest.WithCandleArchive(sinks.candleArchive),
	)

	if err := trackPools(ctx, service, locator, *poolList, logger); err != nil {
		logger.Fatalf("Failed to resolve tracked pools: %v", err)
	}

	server := &Server{
		service: service,
		locator: locator,
		started: time.Now(),
		logger:  logger,
	}

	// Graceful shutdown on SIGINT/SIGTERM; a second signal forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
		select {
		case sig = <-sigCh:
			logger.Printf("Received second signal %v, forcing exit", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	if *wsEndpoint != "" {
		go runLogWatcher(ctx, service, *wsEndpoint, *program, logger)
	}

	go server.serveHTTP(ctx, *listenAddr)

	logger.Printf("Tracking %d pools on program %s", len(service.Tracked()), *program)
	if err := service.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("Service error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// buildSnapshotCache picks Redis when configured, in-memory otherwise.
func buildSnapshotCache(redisAddr string, logger *log.Logger) cache.Cache[*domain.Snapshot] {
	if redisAddr == "" {
		return cache.NewMemory[*domain.Snapshot]()
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	logger.Printf("Using Redis snapshot cache at %s", redisAddr)
	return cache.NewRedis[*domain.Snapshot](client, "launchpad")
}

// sinks bundles the optional archival stores.
type sinks struct {
	poolStore     storage.PoolStore
	tradeArchive  storage.TradeArchive
	candleArchive storage.CandleArchive
}

// buildSinks connects the archival stores. With no DSNs everything stays
// in memory.
func buildSinks(ctx context.Context, postgresDSN, clickhouseDSN string) (*sinks, func(), error) {
	s := &sinks{
		poolStore:     memory.NewPoolStore(),
		tradeArchive:  memory.NewTradeArchive(),
		candleArchive: memory.NewCandleArchive(),
	}
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.poolStore = pgstore.NewPoolStore(pool)
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })

		s.tradeArchive = chstore.NewTradeArchive(conn)
		s.candleArchive = chstore.NewCandleArchive(conn)
	}

	return s, cleanup, nil
}

// trackPools registers the explicit pool list, or scans the program for
// pools when none was given.
func trackPools(ctx context.Context, service *ingest.Service, locator *pools.Locator, poolList string, logger *log.Logger) error {
	if poolList != "" {
		for _, addr := range strings.Split(poolList, ",") {
			addr = strings.TrimSpace(addr)
			if addr != "" {
				service.Track(addr)
			}
		}
		return nil
	}

	result, err := locator.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan program: %w", err)
	}
	for _, skipped := range result.Skipped {
		logger.Printf("scan skipped %s: %s", skipped.Address, skipped.Reason)
	}
	observability.RecordPoolScan(len(result.Pools), len(result.Skipped))

	for _, pool := range result.Pools {
		service.Track(pool.PoolAddress)
	}
	return nil
}

// runLogWatcher subscribes to program logs and feeds them to the service,
// reconnecting the subscription if it drops.
func runLogWatcher(ctx context.Context, service *ingest.Service, wsEndpoint, program string, logger *log.Logger) {
	for ctx.Err() == nil {
		ws, err := solana.NewWSClient(ctx, wsEndpoint, nil)
		if err != nil {
			logger.Printf("WebSocket connect failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
				continue
			}
		}

		notifications, err := ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{program}})
		if err != nil {
			logger.Printf("logsSubscribe failed: %v", err)
			ws.Close()
			continue
		}

		logger.Printf("Watching program logs for %s", program)
		service.WatchLogs(ctx, notifications)
		ws.Close()
	}
}

// serveHTTP runs the dashboard API until the context is cancelled.
func (s *Server) serveHTTP(ctx context.Context, addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/api/pools", s.handlePools)
	mux.HandleFunc("/api/pools/", s.handlePool)

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("HTTP API listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// poolEntry is one row of the pool listing.
type poolEntry struct {
	PoolAddress string       `json:"poolAddress"`
	State       ingest.State `json:"state"`
	LastUpdated int64        `json:"lastUpdated,omitempty"`
}

// handlePools lists tracked pools with their refresh state.
func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries := make([]poolEntry, 0)
	for _, addr := range s.service.Tracked() {
		entry := poolEntry{PoolAddress: addr, State: s.service.State(addr)}
		if snap := s.service.Snapshot(r.Context(), addr); snap != nil {
			entry.LastUpdated = snap.LastUpdated
		}
		entries = append(entries, entry)
	}

	writeJSON(w, entries)
}

// handlePool serves one pool's snapshot and the manual refresh trigger.
func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/pools/")
	address, action, _ := strings.Cut(rest, "/")
	if address == "" {
		http.Error(w, "pool address required", http.StatusBadRequest)
		return
	}

	switch {
	case action == "refresh" && r.Method == http.MethodPost:
		// Fire and return; progress is visible through the state field.
		go s.service.Refresh(context.Background(), address)
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"state": string(ingest.StateRefreshing)})

	case action == "" && r.Method == http.MethodGet:
		snap := s.service.Snapshot(r.Context(), address)
		if snap == nil {
			http.Error(w, "snapshot not available", http.StatusNotFound)
			return
		}
		writeJSON(w, snap)

	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	TrackedPools int    `json:"trackedPools"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).String(),
		TrackedPools: len(s.service.Tracked()),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
