// Package metrics holds the prometheus collectors for the service: HTTP
// traffic plus analysis, cache, webhook and event outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
		[]string{"service"},
	)

	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustlens_analyses_total",
			Help: "Completed analyses by platform and recommendation level",
		},
		[]string{"platform", "level"},
	)

	trustScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trustlens_trust_score",
			Help:    "Distribution of computed trust scores",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
		[]string{"platform"},
	)

	parseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trustlens_parse_failures_total",
			Help: "Product URLs rejected by the parser",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustlens_cache_lookups_total",
			Help: "Analysis cache lookups by result",
		},
		[]string{"result"},
	)

	webhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustlens_webhook_deliveries_total",
			Help: "Webhook delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustlens_events_published_total",
			Help: "Domain events handed to the broker by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)
)

// ─── Domain recorders ─────────────────────────────────────────────────────────

// ObserveAnalysis records one completed analysis.
func ObserveAnalysis(platform, level string, trustScore float64) {
	analysesTotal.WithLabelValues(platform, level).Inc()
	trustScores.WithLabelValues(platform).Observe(trustScore)
}

// ParseFailure records a rejected product URL.
func ParseFailure() {
	parseFailures.Inc()
}

// CacheLookup records an analysis cache hit or miss.
func CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// WebhookDelivery records a webhook outcome: delivered, failed, or rejected.
func WebhookDelivery(outcome string) {
	webhookDeliveries.WithLabelValues(outcome).Inc()
}

// EventPublished records an event publish attempt.
func EventPublished(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	eventsPublished.WithLabelValues(eventType, outcome).Inc()
}

// ─── HTTP ─────────────────────────────────────────────────────────────────────

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns chi-compatible middleware that records HTTP metrics
// labelled by route pattern.
func Middleware(serviceName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			httpRequestsInFlight.WithLabelValues(serviceName).Inc()
			defer httpRequestsInFlight.WithLabelValues(serviceName).Dec()

			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			status := strconv.Itoa(rw.statusCode)
			routePattern := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				routePattern = rctx.RoutePattern()
			}

			httpRequestsTotal.WithLabelValues(serviceName, r.Method, routePattern, status).Inc()
			httpRequestDuration.WithLabelValues(serviceName, r.Method, routePattern, status).Observe(time.Since(start).Seconds())
		})
	}
}
