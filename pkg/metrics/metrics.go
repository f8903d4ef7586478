package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"network20-backend/internal/domain"
)

const (
	OutcomeOK            = "ok"
	OutcomeError         = "error"
	OutcomeNotConfigured = "not_configured"
)

var (
	// StoreOperations counts store façade calls by operation, mode and outcome
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "network20_store_operations_total",
			Help: "Total number of store operations by operation, mode and outcome",
		},
		[]string{"op", "mode", "outcome"},
	)

	// StoreLatency tracks how long store operations take
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "network20_store_operation_seconds",
			Help:    "Latency of store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "mode"},
	)

	// HTTPRequests counts API requests by route and status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "network20_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome classifies an operation result for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrBackendNotConfigured):
		return OutcomeNotConfigured
	default:
		return OutcomeError
	}
}

// ObserveStore records one store operation that started at start.
func ObserveStore(op string, mode domain.StoreMode, start time.Time, err error) {
	StoreOperations.WithLabelValues(op, string(mode), Outcome(err)).Inc()
	StoreLatency.WithLabelValues(op, string(mode)).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
