package fetch

import (
	"context"
	"sync"
	"time"
)

// Default batch configuration.
const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 200 * time.Millisecond
)

// Scheduler drives a bounded-concurrency walk over an ordered list of work
// items: contiguous batches of BatchSize run with full fan-out inside a batch,
// and a fixed delay separates batches (never inserted after the final one).
type Scheduler struct {
	batchSize int
	delay     time.Duration
	maxItems  int // 0 means unbounded
	sleep     func(ctx context.Context, d time.Duration) error
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithBatchSize sets the per-batch concurrency.
func WithBatchSize(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchDelay sets the pause between consecutive batches.
func WithBatchDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.delay = d
	}
}

// WithMaxItems caps the total number of items walked. Items beyond the cap
// are dropped up front to bound worst-case latency against long histories.
func WithMaxItems(n int) SchedulerOption {
	return func(s *Scheduler) {
		s.maxItems = n
	}
}

// WithBatchSleep replaces the inter-batch sleep function (tests).
func WithBatchSleep(fn func(ctx context.Context, d time.Duration) error) SchedulerOption {
	return func(s *Scheduler) {
		s.sleep = fn
	}
}

// NewScheduler creates a Scheduler with defaults.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		batchSize: DefaultBatchSize,
		delay:     DefaultBatchDelay,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Skip records one item dropped from a batch walk together with the reason.
// Callers decide whether skip reasons are logged or ignored.
type Skip[T any] struct {
	Item   T
	Reason error
}

// Result separates successful outputs from skipped items. Succeeded carries no
// ordering guarantee relative to the input: completion order inside a batch is
// arbitrary and callers re-sort downstream.
type Result[T, R any] struct {
	Succeeded []R
	Skipped   []Skip[T]
}

// Map processes items in contiguous batches, running fn concurrently within
// each batch. Per-item failures are collected in Skipped; they never abort the
// walk. A context error aborts between batches and is returned alongside the
// partial result.
func Map[T, R any](ctx context.Context, s *Scheduler, items []T, fn func(ctx context.Context, item T) (R, error)) (Result[T, R], error) {
	var res Result[T, R]

	if s.maxItems > 0 && len(items) > s.maxItems {
		items = items[:s.maxItems]
	}

	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		type outcome struct {
			value R
			item  T
			err   error
		}
		outcomes := make([]outcome, len(batch))

		var wg sync.WaitGroup
		for i, item := range batch {
			wg.Add(1)
			go func(i int, item T) {
				defer wg.Done()
				value, err := fn(ctx, item)
				outcomes[i] = outcome{value: value, item: item, err: err}
			}(i, item)
		}
		wg.Wait()

		for _, o := range outcomes {
			if o.err != nil {
				res.Skipped = append(res.Skipped, Skip[T]{Item: o.item, Reason: o.err})
				continue
			}
			res.Succeeded = append(res.Succeeded, o.value)
		}

		// Delay between batches, never after the final one.
		if end < len(items) {
			if err := s.sleep(ctx, s.delay); err != nil {
				return res, err
			}
		}
	}

	return res, nil
}
