// Package fetch provides the retry and batching primitives every remote call
// in the ingestion pipeline goes through: a rate-limit-aware retrying fetcher
// and a bounded-concurrency batch scheduler.
package fetch

import (
	"context"
	"fmt"
	"time"
)

// Default retry configuration.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
)

// Fetcher retries rate-limited remote calls with exponential backoff.
// All other error classes propagate immediately without retry.
// No jitter and no circuit breaker: the retry budget is small and the batch
// scheduler above it already spaces out request bursts.
type Fetcher struct {
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	onRetry    func(attempt int, delay time.Duration)
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxRetries sets the retry budget for rate-limited calls.
func WithMaxRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithBaseDelay sets the delay before the first retry; attempt k waits
// baseDelay * 2^(k-1).
func WithBaseDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithSleep replaces the backoff sleep function. Used by tests to observe
// delays without waiting.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) FetcherOption {
	return func(f *Fetcher) {
		f.sleep = fn
	}
}

// WithRetryHook registers a callback invoked before each backoff sleep.
func WithRetryHook(fn func(attempt int, delay time.Duration)) FetcherOption {
	return func(f *Fetcher) {
		f.onRetry = fn
	}
}

// NewFetcher creates a Fetcher with the default retry budget.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Call invokes fn, retrying up to the fetcher's budget when the error signals
// a rate-limit condition. Delay before retry k is baseDelay * 2^(k-1).
// Exhausting the budget returns an error wrapping ErrRetriesExhausted.
func Call[T any](ctx context.Context, f *Fetcher, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	delay := f.baseDelay
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			if f.onRetry != nil {
				f.onRetry(attempt, delay)
			}
			if err := f.sleep(ctx, delay); err != nil {
				return zero, err
			}
			delay *= 2
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRateLimited(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, f.maxRetries, lastErr)
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
