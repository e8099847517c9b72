package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code", "service"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "service"},
	)

	// Database metrics
	MongoOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongo_operations_total",
			Help: "Total number of MongoDB operations",
		},
		[]string{"operation", "collection", "status"},
	)

	MongoOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mongo_operation_duration_seconds",
			Help:    "MongoDB operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	// Business metrics for the portfolio
	ContentWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_content_writes_total",
			Help: "Total number of successful article and project writes",
		},
		[]string{"kind", "action"},
	)

	AdminLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_admin_logins_total",
			Help: "Total number of admin login attempts",
		},
		[]string{"result"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_events_published_total",
			Help: "Total number of content change events published to NATS",
		},
		[]string{"subject", "status"},
	)

	// Application health metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version", "environment"},
	)
)

// Initialize metrics with default values
func Init(serviceName, version, environment string) {
	ApplicationInfo.WithLabelValues(serviceName, version, environment).Set(1)
}

// ObserveMongo records one MongoDB round trip started at start.
func ObserveMongo(operation, collection string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	MongoOperationsTotal.WithLabelValues(operation, collection, status).Inc()
	MongoOperationDuration.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
}
