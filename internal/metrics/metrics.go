// Package metrics provides Prometheus metrics for the graphgate server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "graphgate"
)

// Query metrics track statements executed against the graph store.
var (
	// QueriesTotal is the total number of graph queries by operation and status.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Total number of graph queries executed",
	}, []string{"operation", "status"})

	// QueryDuration is a histogram of graph query duration in seconds.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Duration of graph queries in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"operation"})
)

// Mutation metrics track graph writes.
var (
	// NodesCreated is the total number of nodes created.
	NodesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "nodes_created_total",
		Help:      "Total number of nodes created",
	})

	// NodesDeleted is the total number of nodes deleted.
	NodesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "nodes_deleted_total",
		Help:      "Total number of nodes deleted",
	})

	// RelationshipsCreated is the total number of relationships created.
	RelationshipsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relationships_created_total",
		Help:      "Total number of relationships created",
	})

	// RelationshipsDeleted is the total number of relationships deleted.
	RelationshipsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relationships_deleted_total",
		Help:      "Total number of relationships deleted",
	})
)

// HTTP metrics track the inbound request surface.
var (
	// HTTPRequestsTotal is the total number of HTTP requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration is a histogram of HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"method", "route"})
)

// ObserveQuery records one graph query round trip.
func ObserveQuery(operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QueriesTotal.WithLabelValues(operation, status).Inc()
	QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
