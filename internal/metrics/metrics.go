// Package metrics holds the Prometheus collectors for the chain service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chain_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
		},
		[]string{"method", "route"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// QueriesTotal counts pipeline outcomes: general, movie, clarify,
	// not_found, error.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_queries_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_classifications_total",
			Help: "Query classifications by kind",
		},
		[]string{"kind"},
	)

	ResolveStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_resolve_strategy_total",
			Help: "Title resolution by winning strategy",
		},
		[]string{"strategy"},
	)

	LookupSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_lookup_source_total",
			Help: "Catalog lookups by source: store, catalog, none",
		},
		[]string{"source"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_recommendations_total",
			Help: "Recommendations by source: cached, generated, fallback",
		},
		[]string{"source"},
	)

	GenerationTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_generation_tokens_total",
			Help: "Tokens consumed by text generation",
		},
	)

	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chain_memory_persist_failures_total",
			Help: "Conversation memory writes that failed",
		},
	)
)

// ObserveHTTPRequest records one finished request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AddTokens records generation usage; non-positive counts are ignored.
func AddTokens(n int) {
	if n > 0 {
		GenerationTokensTotal.Add(float64(n))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
