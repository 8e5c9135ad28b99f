package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"trustlens/review-api/internal/cache"
	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/events"
	"trustlens/review-api/internal/history"
	"trustlens/review-api/internal/logger"
	"trustlens/review-api/internal/metrics"
	"trustlens/review-api/internal/parser"
	"trustlens/review-api/internal/scoring"
	"trustlens/review-api/internal/store"
	"trustlens/review-api/internal/webhook"
)

// maxImportBytes bounds the body of POST /history/import.
const maxImportBytes = 4 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// Checker reports whether a dependency is ready to serve traffic.
type Checker func(ctx context.Context) error

// Deps lists what the handlers need. Cache, Events, Logger and Now are optional.
type Deps struct {
	Analyzer *scoring.Analyzer
	History  store.HistoryRepository
	Webhooks *store.Webhooks
	Notifier *webhook.Notifier
	Cache    cache.Cache
	Events   events.Publisher
	Logger   *slog.Logger
	Service  string
	Now      func() time.Time
}

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	analyzer *scoring.Analyzer
	history  store.HistoryRepository
	webhooks *store.Webhooks
	notifier *webhook.Notifier
	cache    cache.Cache
	events   events.Publisher
	logger   *slog.Logger
	service  string
	now      func() time.Time

	checkNames []string
	checks     map[string]Checker
}

// NewHandler creates a Handler wired to the given dependencies.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		analyzer: d.Analyzer,
		history:  d.History,
		webhooks: d.Webhooks,
		notifier: d.Notifier,
		cache:    d.Cache,
		events:   d.Events,
		logger:   d.Logger,
		service:  d.Service,
		now:      d.Now,
		checks:   make(map[string]Checker),
	}
	if h.cache == nil {
		h.cache = cache.Noop{}
	}
	if h.events == nil {
		h.events = events.Noop{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.service == "" {
		h.service = "review-api"
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.AddCheck("history", h.history.Ping)
	return h
}

// AddCheck registers a readiness check. Checks run in registration order.
func (h *Handler) AddCheck(name string, c Checker) {
	if _, exists := h.checks[name]; !exists {
		h.checkNames = append(h.checkNames, name)
	}
	h.checks[name] = c
}

// ─── Request bodies ───────────────────────────────────────────────────────────

type analyzeRequest struct {
	URL string `json:"url" validate:"required"`
}

type batchRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=50,dive,required"`
}

type webhookRequest struct {
	URL       string  `json:"url" validate:"required,url"`
	Threshold float64 `json:"threshold" validate:"gte=0,lte=10"`
}

// ─── GET /health, GET /ready ─────────────────────────────────────────────────

// Health reports that the process is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"status": "ok", "service": h.service})
}

// Ready runs every registered check and answers 503 if any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checkNames))
	var failures []string
	for _, name := range h.checkNames {
		if err := h.checks[name](ctx); err != nil {
			checks[name] = "down"
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		checks[name] = "up"
	}

	if len(failures) > 0 {
		h.logger.Warn("readiness check failed", "failures", failures)
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Error: &apiError{Code: "NOT_READY", Message: strings.Join(failures, "; ")},
		})
		return
	}
	ok(w, map[string]any{"status": "ready", "checks": checks})
}

// ─── POST /api/v1/analyses ────────────────────────────────────────────────────

// Analyze runs the analysis for one product URL, records it in history and
// returns the result.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.analyze(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, parser.ErrInvalidURL) {
			badRequest(w, "INVALID_URL", "url must be an Amazon or Flipkart product link")
			return
		}
		writeError(w, err)
		return
	}
	created(w, result)
}

// analyze is the shared flow behind Analyze and Reanalyze: cache lookup,
// pipeline, history, event and webhooks.
func (h *Handler) analyze(ctx context.Context, rawURL string) (*domain.AnalysisResult, error) {
	log := logger.WithTrace(ctx, h.logger)

	id, err := h.analyzer.Identify(rawURL)
	if err != nil {
		return nil, err
	}

	result, hit, err := h.cache.Get(ctx, id)
	if err != nil {
		log.Warn("cache lookup failed", "key", cache.Key(id), "error", err)
	}
	metrics.CacheLookup(hit)

	if hit {
		cached := *result
		cached.Cached = true
		cached.Product.URL = rawURL
		result = &cached
	} else {
		if result, err = h.analyzer.Analyze(ctx, rawURL); err != nil {
			return nil, err
		}
		if err := h.cache.Set(ctx, id, result); err != nil {
			log.Warn("cache store failed", "key", cache.Key(id), "error", err)
		}
	}

	if err := h.record(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// record appends result to history, publishes analysis.completed and fires
// any webhooks it triggers.
func (h *Handler) record(ctx context.Context, result *domain.AnalysisResult) error {
	if err := h.history.Append(ctx, history.NewRecord(result, h.now())); err != nil {
		return err
	}

	h.publish(ctx, events.AnalysisCompleted,
		string(result.Product.Platform)+":"+result.Product.ProductID,
		events.AggregateProduct,
		events.AnalysisCompletedData{
			URL:            result.Product.URL,
			Platform:       string(result.Product.Platform),
			ProductID:      result.Product.ProductID,
			TrustScore:     result.TrustScore,
			FakePercentage: result.FakePercentage,
			TotalReviews:   result.TotalReviews,
			Level:          string(result.Recommendation.Level),
			Cached:         result.Cached,
		})

	if h.notifier != nil {
		h.notifier.NotifyAsync(result)
	}
	return nil
}

// publish sends a domain event. Failures are logged and swallowed.
func (h *Handler) publish(ctx context.Context, eventType, aggregateID, aggregateType string, data any) {
	evt, err := events.NewEvent(eventType, aggregateID, aggregateType, h.service, data)
	if err != nil {
		h.logger.Warn("build event", "event_type", eventType, "error", err)
		return
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		evt.WithCorrelationID(reqID)
	}
	if err := h.events.Publish(ctx, evt); err != nil {
		logger.WithTrace(ctx, h.logger).Warn("publish event failed",
			"event_type", eventType,
			"event_id", evt.EventID,
			"error", err,
		)
	}
}

// ─── POST /api/v1/analyses/batch ──────────────────────────────────────────────

// AnalyzeBatch analyses up to 50 URLs. Items keep request order and
// carry their own error; successful items are recorded like single analyses.
func (h *Handler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	items := h.analyzer.AnalyzeBatch(r.Context(), req.URLs)
	for _, item := range items {
		if item.Result == nil {
			continue
		}
		if err := h.record(r.Context(), item.Result); err != nil {
			writeError(w, err)
			return
		}
	}
	ok(w, items)
}

// ─── GET /api/v1/products/{platform}/{id}/reviews ────────────────────────────

// ListReviews returns the synthetic review corpus behind a product's analysis.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	platform := domain.Platform(strings.ToLower(chi.URLParam(r, "platform")))
	if platform != domain.PlatformAmazon && platform != domain.PlatformFlipkart {
		badRequest(w, "INVALID_PLATFORM", "platform must be one of: amazon, flipkart")
		return
	}
	productID := chi.URLParam(r, "id")

	reviews := h.analyzer.Reviews(productID)
	ok(w, map[string]any{
		"platform":     platform,
		"productId":    productID,
		"totalReviews": len(reviews),
		"reviews":      reviews,
	})
}

// ─── History ──────────────────────────────────────────────────────────────────

// ListHistory returns stored records, optionally filtered by title (q) and
// sorted (sort). The stored order is never changed.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("sort")
	if err := validate.Var(mode, "omitempty,oneof=date-desc date-asc trust-high trust-low fake-high fake-low"); err != nil {
		badRequest(w, "INVALID_PARAM",
			"sort must be one of: date-desc, date-asc, trust-high, trust-low, fake-high, fake-low")
		return
	}

	records, err := h.history.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	records = history.Sort(history.Filter(records, r.URL.Query().Get("q")), mode)
	ok(w, records)
}

// ClearHistory removes every record.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.publish(r.Context(), events.HistoryCleared, "history", events.AggregateHistory,
		events.HistoryChangedData{})
	noContent(w)
}

// DeleteHistoryRecord removes one record by id.
func (h *Handler) DeleteHistoryRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	noContent(w)
}

// HistoryStats summarises stored records.
func (h *Handler) HistoryStats(w http.ResponseWriter, r *http.Request) {
	records, err := h.history.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ok(w, history.ComputeStats(records))
}

// ExportHistory downloads the history as a bare JSON array that
// ImportHistory accepts back.
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.history.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", history.ExportFilename(h.now())))
	writeJSON(w, http.StatusOK, records)
}

// ImportHistory merges an exported array ahead of the stored records.
func (h *Handler) ImportHistory(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		badRequest(w, "INVALID_JSON", "request body could not be read")
		return
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '[' {
		badRequest(w, "INVALID_FORMAT", "import file must contain a JSON array")
		return
	}

	var imported []domain.HistoryRecord
	if err := json.Unmarshal(body, &imported); err != nil {
		badRequest(w, "INVALID_JSON", "import file must contain a JSON array of history records")
		return
	}
	for i := range imported {
		if err := validate.Struct(&imported[i]); err != nil {
			badRequest(w, "VALIDATION_ERROR", fmt.Sprintf("record %d: %s", i, validationMessage(err)))
			return
		}
	}

	total, err := h.history.Import(r.Context(), imported)
	if err != nil {
		writeError(w, err)
		return
	}

	data := events.HistoryChangedData{Imported: len(imported), Total: total}
	h.publish(r.Context(), events.HistoryImported, "history", events.AggregateHistory, data)
	ok(w, map[string]int{"imported": data.Imported, "total": data.Total})
}

// Reanalyze runs the analysis again for a stored record's URL.
func (h *Handler) Reanalyze(w http.ResponseWriter, r *http.Request) {
	rec, err := h.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.analyze(r.Context(), rec.URL)
	if err != nil {
		if errors.Is(err, parser.ErrInvalidURL) {
			badRequest(w, "INVALID_URL", "stored url is no longer a supported product link")
			return
		}
		writeError(w, err)
		return
	}
	created(w, result)
}

// ─── Webhooks ─────────────────────────────────────────────────────────────────

// RegisterWebhook adds a webhook that fires when trust drops below its threshold.
func (h *Handler) RegisterWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Threshold == 0 {
		req.Threshold = webhook.DefaultThreshold
	}

	wh := &domain.WebhookConfig{
		ID:        uuid.NewString(),
		URL:       req.URL,
		Threshold: req.Threshold,
		CreatedAt: h.now().UTC(),
		Active:    true,
	}
	h.webhooks.Save(wh)
	created(w, wh)
}

// DeleteWebhook removes a webhook.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.webhooks.Delete(id) {
		notFound(w, fmt.Sprintf("webhook '%s' not found", id))
		return
	}
	noContent(w)
}

// ─── Validation ───────────────────────────────────────────────────────────────

// decodeAndValidate binds the JSON body into dst and validates it, writing a
// 400 and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "INVALID_JSON", "request body must be valid JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		badRequest(w, "VALIDATION_ERROR", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", jsonName(fe), msgForTag(fe)))
	}
	return strings.Join(msgs, "; ")
}

// jsonName lowercases the first letter so messages name the JSON field.
func jsonName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	if name == "URLs" || name == "URL" {
		return strings.ToLower(name)
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s items", fe.Param())
	case "max":
		return fmt.Sprintf("must contain at most %s items", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
