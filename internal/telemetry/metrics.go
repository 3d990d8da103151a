// Package telemetry provides application-level observability for the clinic back office.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<CBO_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped by a Prometheus server every 15–60 seconds.
// It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Activity-log write counters (records appended, append failures)
//   - Activity-log retention counter (records pruned)
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/patients/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments.  The activity counter is labelled by action, which
// is a small bounded vocabulary (LOGIN, CREATE_PATIENT, ...).
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template, NOT the raw URL.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Activity-log metrics — recorded by the activity recorder and retention endpoint.
//
// ActivityRecordsTotal counts appended audit records by action.  Because record
// appends are best-effort (a failed append never fails the business action),
// ActivityRecordFailuresTotal is the signal that audit coverage is degrading:
// alert on increase(activity_record_failures_total[15m]) > 0.
//
// ActivityRecordsPrunedTotal counts records removed by the retention endpoint.
var (
	ActivityRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_records_total",
			Help: "Total number of activity-log records appended, by action.",
		},
		[]string{"action"},
	)

	ActivityRecordFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_record_failures_total",
			Help: "Total number of activity-log appends that failed and were swallowed.",
		},
	)

	ActivityRecordsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_records_pruned_total",
			Help: "Total number of activity-log records removed by retention pruning.",
		},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and exports them as Prometheus gauges.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			slog.Debug("db pool stats",
				"open", stats.OpenConnections,
				"in_use", stats.InUse,
				"idle", stats.Idle,
				"wait_count", stats.WaitCount,
			)
		}
	}()
}
