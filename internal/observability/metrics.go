// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Refresh metrics
	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration prometheus.Histogram

	// Classification metrics
	TradesClassified    prometheus.Counter
	TransactionsSkipped *prometheus.CounterVec

	// Fetch metrics
	RateLimitRetries prometheus.Counter
	RPCCallLatency   *prometheus.HistogramVec

	// Discovery metrics
	PoolsDiscovered prometheus.Gauge
	PoolScanSkipped prometheus.Counter
	WSNotifications prometheus.Counter

	// Health metrics
	LastSuccessfulRefresh *prometheus.GaugeVec
	TrackedSubjects       prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "launchpad_scope"
	}

	return &Metrics{
		// Refresh metrics
		RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "refreshes_total",
			Help:      "Total number of snapshot refreshes by status",
		}, []string{"status"}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "refresh_duration_seconds",
			Help:      "Snapshot refresh duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),

		// Classification metrics
		TradesClassified: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "trades_classified_total",
			Help:      "Total number of transactions classified as trades",
		}),
		TransactionsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "transactions_skipped_total",
			Help:      "Total number of transactions skipped by reason",
		}, []string{"reason"}),

		// Fetch metrics
		RateLimitRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "rate_limit_retries_total",
			Help:      "Total number of retries triggered by rate limiting",
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Discovery metrics
		PoolsDiscovered: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "discovered",
			Help:      "Number of pools in the latest scan",
		}),
		PoolScanSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "scan_skipped_total",
			Help:      "Total number of program accounts skipped during scans",
		}),
		WSNotifications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "ws_notifications_total",
			Help:      "Total number of WebSocket log notifications received",
		}),

		// Health metrics
		LastSuccessfulRefresh: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last successful refresh per subject",
		}, []string{"subject"}),
		TrackedSubjects: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "tracked_subjects",
			Help:      "Number of subjects with a tracked snapshot",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRefresh records one refresh outcome.
func RecordRefresh(status string, durationSeconds float64) {
	DefaultMetrics.RefreshesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RefreshDuration.Observe(durationSeconds)
}

// RecordTradeClassified increments the classified trades counter.
func RecordTradeClassified() {
	DefaultMetrics.TradesClassified.Inc()
}

// RecordTransactionSkipped records a skipped transaction.
func RecordTransactionSkipped(reason string) {
	DefaultMetrics.TransactionsSkipped.WithLabelValues(reason).Inc()
}

// RecordRateLimitRetry increments the rate limit retry counter.
func RecordRateLimitRetry() {
	DefaultMetrics.RateLimitRetries.Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordPoolScan records the outcome of a program scan.
func RecordPoolScan(pools, skipped int) {
	DefaultMetrics.PoolsDiscovered.Set(float64(pools))
	DefaultMetrics.PoolScanSkipped.Add(float64(skipped))
}

// RecordWSNotification increments the WebSocket notification counter.
func RecordWSNotification() {
	DefaultMetrics.WSNotifications.Inc()
}

// RecordSuccessfulRefresh updates the per-subject refresh timestamp gauge.
func RecordSuccessfulRefresh(subject string, unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRefresh.WithLabelValues(subject).Set(float64(unixSeconds))
}

// SetTrackedSubjects updates the tracked subjects gauge.
func SetTrackedSubjects(n int) {
	DefaultMetrics.TrackedSubjects.Set(float64(n))
}
