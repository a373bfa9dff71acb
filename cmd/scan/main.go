// Package main scans a launchpad program for pool accounts and prints what
// it finds. With a Postgres DSN the discovered pools are also archived.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"launchpad-scope/internal/observability"
	"launchpad-scope/internal/pools"
	"launchpad-scope/internal/solana"
	"launchpad-scope/internal/storage/migrations"
	pgstore "launchpad-scope/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	program := flag.String("program", envOr("LAUNCHPAD_PROGRAM", "ip6SLxttjbSrQggmM2SH5RZXhWKq3onmkzj3kExoceN"), "Launchpad program ID")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN to archive pools into (optional)")
	asJSON := flag.Bool("json", false, "Print pools as JSON instead of a table")
	timeout := flag.Duration("timeout", 60*time.Second, "Scan timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[scan] ", log.LstdFlags)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	locator := pools.NewLocator(rpc, *program, pools.WithLogger(logger))

	result, err := locator.Scan(ctx)
	if err != nil {
		logger.Fatalf("Scan failed: %v", err)
	}
	observability.RecordPoolScan(len(result.Pools), len(result.Skipped))

	for _, skipped := range result.Skipped {
		logger.Printf("skipped %s: %s", skipped.Address, skipped.Reason)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Pools); err != nil {
			logger.Fatalf("Failed to encode pools: %v", err)
		}
	} else {
		fmt.Printf("%-44s  %-44s  %-6s  %-6s  %s\n", "POOL", "BASE MINT", "ACTIVE", "LOCKED", "MIGRATED")
		for _, pool := range result.Pools {
			fmt.Printf("%-44s  %-44s  %-6t  %-6t  %t\n",
				pool.PoolAddress, pool.BaseMint, pool.IsActive, pool.Locked, pool.Migrated)
		}
		fmt.Printf("\n%d pools, %d accounts skipped\n", len(result.Pools), len(result.Skipped))
	}

	if *postgresDSN != "" {
		if err := archivePools(ctx, *postgresDSN, result); err != nil {
			logger.Fatalf("Failed to archive pools: %v", err)
		}
		logger.Printf("Archived %d pools", len(result.Pools))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func archivePools(ctx context.Context, dsn string, result *pools.ScanResult) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store := pgstore.NewPoolStore(pool)
	for _, p := range result.Pools {
		if err := store.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert %s: %w", p.PoolAddress, err)
		}
	}
	return nil
}
