package overpass

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Overpass request metrics
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmquery_overpass_requests_total",
			Help: "Total number of Overpass API requests",
		},
		[]string{"status"},
	)

	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "osmquery_overpass_request_duration_seconds",
			Help:    "Overpass API request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
	)

	parseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "osmquery_overpass_parse_failures_total",
			Help: "Total number of unparseable Overpass responses",
		},
	)

	// Rate limiting metrics
	rateLimitWaitTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "osmquery_rate_limit_wait_duration_seconds",
			Help:    "Time spent waiting for the Overpass rate limiter",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	elementsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "osmquery_elements_returned",
			Help:    "Number of elements returned per Overpass response",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

// Metric status label values
const (
	statusOK           = "ok"
	statusHTTPError    = "http_error"
	statusNetworkError = "network_error"
)
