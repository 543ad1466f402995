package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for store operations.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeEmpty       = "empty"
	OutcomeCorrupt     = "corrupt"
	OutcomeError       = "error"
	OutcomeConflict    = "conflict"
	OutcomeInvalid     = "invalid"
)

var (
	// StoreOperations counts ranking store calls by backend kind, operation and outcome.
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorekit_store_operations_total",
			Help: "Total number of ranking store operations",
		},
		[]string{"backend", "op", "outcome"},
	)

	// StoreOperationDuration tracks ranking store latency.
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorekit_store_operation_duration_seconds",
			Help:    "Ranking store operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"backend", "op"},
	)

	// StoreAvailable is 1 when the last probe of a backend succeeded.
	StoreAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scorekit_store_available",
			Help: "Outcome of the last liveness probe (1 available, 0 unavailable)",
		},
		[]string{"backend"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorekit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorekit_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveStoreOp records one store operation that began at started.
func ObserveStoreOp(backend, op, outcome string, started time.Time) {
	StoreOperations.WithLabelValues(backend, op, outcome).Inc()
	StoreOperationDuration.WithLabelValues(backend, op).Observe(time.Since(started).Seconds())
}

// SetStoreAvailable publishes a probe outcome.
func SetStoreAvailable(backend string, ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	StoreAvailable.WithLabelValues(backend).Set(v)
}
