// Package metrics provides Prometheus metrics collection for the service.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Calculation metrics:
//   - calculations_total: Counter with formula and result labels
//   - calculation_duration_seconds: Histogram with the formula label
//   - history_entries: Gauge with the number of calculations kept in memory
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Calculation result labels
const (
	ResultDefined   = "defined"
	ResultUndefined = "undefined"
	ResultInvalid   = "invalid"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Rate limiter buckets currently tracked, one per client address",
		},
	)

	CalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculations_total",
			Help: "Formula evaluations by result",
		},
		[]string{"formula", "result"},
	)

	CalculationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calculation_duration_seconds",
			Help:    "Formula evaluation latency",
			Buckets: []float64{.000001, .000005, .00001, .00005, .0001, .0005, .001},
		},
		[]string{"formula"},
	)

	HistoryEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "history_entries",
			Help: "Calculations currently kept in the in-memory history",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(CalculationsTotal)
	prometheus.MustRegister(CalculationDuration)
	prometheus.MustRegister(HistoryEntries)
}

// ObserveCalculation records one formula evaluation
func ObserveCalculation(formula, result string, elapsed time.Duration) {
	CalculationsTotal.WithLabelValues(formula, result).Inc()
	CalculationDuration.WithLabelValues(formula).Observe(elapsed.Seconds())
}
