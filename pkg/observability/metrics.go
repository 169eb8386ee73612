// Package observability exposes Prometheus metrics and health endpoints
// for the conversation service.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmagen_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmagen_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Conversation metrics
	chatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmagen_chat_turns_total",
			Help: "Total number of processed chat turns",
		},
		[]string{"stage", "status"},
	)

	chatTurnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmagen_chat_turn_duration_seconds",
			Help:    "Chat turn processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	rateLimitDenialsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmagen_rate_limit_denials_total",
			Help: "Total number of rate-limited chat turns",
		},
	)

	// Model call metrics
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmagen_translations_total",
			Help: "Total number of translation calls",
		},
		[]string{"provider", "status"},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmagen_translation_cache_lookups_total",
			Help: "Total number of translation cache lookups",
		},
		[]string{"result"},
	)

	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmagen_model_calls_total",
			Help: "Total number of generation calls to the model provider",
		},
		[]string{"provider", "purpose", "status"},
	)

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			chatTurnsTotal,
			chatTurnDuration,
			rateLimitDenialsTotal,
			translationsTotal,
			cacheLookupsTotal,
			modelCallsTotal,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordChatTurn records a processed chat turn
func RecordChatTurn(stage, status string, duration time.Duration) {
	chatTurnsTotal.WithLabelValues(stage, status).Inc()
	chatTurnDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRateLimitDenial records a rate-limited turn
func RecordRateLimitDenial() {
	rateLimitDenialsTotal.Inc()
}

// RecordTranslation records a translation call outcome
func RecordTranslation(provider, status string) {
	translationsTotal.WithLabelValues(provider, status).Inc()
}

// RecordCacheLookup records a translation cache lookup
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordModelCall records a generation call outcome
func RecordModelCall(provider, purpose, status string) {
	modelCallsTotal.WithLabelValues(provider, purpose, status).Inc()
}
