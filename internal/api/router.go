package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trustlens/review-api/internal/metrics"
)

// RouterConfig holds the router settings that do not belong to a handler.
type RouterConfig struct {
	// RateLimitRPS limits analysis requests per client IP. Zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates and returns a configured Chi router.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware(h.service))

	// ── Health checks ─────────────────────────────────────────────────────────
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/analyses", func(r chi.Router) {
			r.Use(rateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, h.logger))
			r.Post("/", h.Analyze)
			r.Post("/batch", h.AnalyzeBatch)
		})

		r.Get("/products/{platform}/{id}/reviews", h.ListReviews)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Delete("/", h.ClearHistory)
			r.Get("/stats", h.HistoryStats)
			r.Get("/export", h.ExportHistory)
			r.Post("/import", h.ImportHistory)
			r.Delete("/{id}", h.DeleteHistoryRecord)
			r.Post("/{id}/reanalyze", h.Reanalyze)
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", h.RegisterWebhook)
			r.Delete("/{id}", h.DeleteWebhook)
		})
	})

	return r
}

// requestLogger emits one slog record per request in place of chi's Logger.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
