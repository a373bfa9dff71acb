package fetch

import (
	"errors"
	"strings"
)

// Fetch errors.
var (
	// ErrRateLimited marks an upstream "too many requests" condition.
	// This is the only error class the fetcher retries.
	ErrRateLimited = errors.New("rate limited")

	// ErrRetriesExhausted is returned after the retry budget for a
	// rate-limited call is spent. Terminal for that call, non-fatal to a
	// surrounding batch walk.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// rate-limit message markers seen from public RPC providers that surface the
// condition inside a JSON-RPC error instead of an HTTP 429.
var rateLimitMarkers = []string{
	"429",
	"too many requests",
	"rate limit",
}

// IsRateLimited reports whether err signals a rate-limit condition, either as
// a wrapped ErrRateLimited or structurally via a known message marker.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
