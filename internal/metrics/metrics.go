// Package metrics exposes the application's Prometheus instrumentation.
//
// Collectors are package-level and registered once; recording helpers
// keep the callers free of prometheus plumbing.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stac",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stac",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	dbQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stac",
			Subsystem: "db",
			Name:      "queries_total",
			Help:      "Database queries by outcome.",
		},
		[]string{"outcome"},
	)
	dbQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stac",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	ingestedItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stac",
			Subsystem: "ingest",
			Name:      "items_total",
			Help:      "Items written through ingestion, by collection and result.",
		},
		[]string{"collection", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, dbQueries, dbQueryDuration, ingestedItems)
	})
}

// RecordHTTPRequest records one served request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// RecordQuery records one database round trip.
func RecordQuery(err error, duration time.Duration) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	dbQueries.WithLabelValues(outcome).Inc()
	dbQueryDuration.Observe(duration.Seconds())
}

// RecordItemsIngested counts items written through an ingestion path.
func RecordItemsIngested(collection string, count int) {
	RegisterMetrics()
	ingestedItems.WithLabelValues(collection, "written").Add(float64(count))
}

// RecordIngestFailure counts items an ingestion path failed to write.
func RecordIngestFailure(collection string, count int) {
	RegisterMetrics()
	ingestedItems.WithLabelValues(collection, "failed").Add(float64(count))
}
