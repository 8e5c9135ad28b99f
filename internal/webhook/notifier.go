// Package webhook alerts registered URLs when an analysis comes back with a
// low trust score.
//
// Deliveries run in their own goroutines so they never block the HTTP
// response. Each target URL gets a circuit breaker: once it keeps failing,
// further alerts to it are dropped until the breaker half-opens again.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/metrics"
)

// Event names the only alert this package sends.
const Event = "low_trust_analysis"

// EventHeader carries Event on every delivery.
const EventHeader = "X-TrustLens-Event"

// DefaultThreshold is the trust score below which a hook fires when the
// registration does not set one.
const DefaultThreshold = 4.0

// DefaultTimeout bounds one delivery.
const DefaultTimeout = 5 * time.Second

// HookSource lists the webhooks that should receive alerts.
type HookSource interface {
	ListActive() []*domain.WebhookConfig
}

// BreakerConfig tunes the per-URL circuit breakers.
type BreakerConfig struct {
	MaxRequests  uint32        // trial requests allowed while half-open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // open → half-open delay
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig trips after half of at least five deliveries fail.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Notifier sends alerts to every active hook whose threshold is crossed.
type Notifier struct {
	hooks   HookSource
	client  *http.Client
	logger  *slog.Logger
	timeout time.Duration
	cbCfg   BreakerConfig
	now     func() time.Time

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[int]

	wg sync.WaitGroup
}

// New creates a Notifier. A non-positive timeout uses DefaultTimeout.
func New(hooks HookSource, timeout time.Duration, logger *slog.Logger) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		hooks:    hooks,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		timeout:  timeout,
		cbCfg:    DefaultBreakerConfig(),
		now:      time.Now,
		breakers: make(map[string]*gobreaker.CircuitBreaker[int]),
	}
}

// WithBreakerConfig replaces the breaker settings. Call before the first delivery.
func (n *Notifier) WithBreakerConfig(cfg BreakerConfig) *Notifier {
	n.cbCfg = cfg
	return n
}

// Triggers reports whether result should alert wh.
func Triggers(wh *domain.WebhookConfig, result *domain.AnalysisResult) bool {
	threshold := wh.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return result.TrustScore < threshold
}

// NotifyAsync starts a delivery for every triggered hook and returns how many
// were started.
func (n *Notifier) NotifyAsync(result *domain.AnalysisResult) int {
	var started int
	for _, wh := range n.hooks.ListActive() {
		if !Triggers(wh, result) {
			continue
		}
		started++
		n.wg.Add(1)
		go func(wh *domain.WebhookConfig) {
			defer n.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			defer cancel()
			_ = n.Deliver(ctx, wh, result)
		}(wh)
	}
	return started
}

// Wait blocks until every delivery started so far has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Deliver posts one alert to wh through its breaker and logs the outcome.
func (n *Notifier) Deliver(ctx context.Context, wh *domain.WebhookConfig, result *domain.AnalysisResult) error {
	payload := domain.WebhookPayload{
		Event:       Event,
		TriggeredAt: n.now().UTC(),
		Analysis:    *result,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("webhook: failed to marshal payload", "webhook_id", wh.ID, "error", err)
		metrics.WebhookDelivery("failed")
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	status, err := n.breaker(wh.URL).Execute(func() (int, error) {
		return n.post(ctx, wh.URL, body)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		n.logger.Warn("webhook: circuit open, alert dropped", "webhook_id", wh.ID, "url", wh.URL)
		metrics.WebhookDelivery("rejected")
		return err
	case err != nil:
		n.logger.Warn("webhook: delivery failed", "webhook_id", wh.ID, "url", wh.URL, "error", err)
		metrics.WebhookDelivery("failed")
		return err
	}

	n.logger.Info("webhook: delivered",
		"webhook_id", wh.ID,
		"url", wh.URL,
		"status", status,
		"product_id", result.Product.ProductID,
		"trust_score", result.TrustScore,
	)
	metrics.WebhookDelivery("delivered")
	return nil
}

// State returns the breaker state for url.
func (n *Notifier) State(url string) gobreaker.State {
	return n.breaker(url).State()
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, Event)

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (n *Notifier) breaker(url string) *gobreaker.CircuitBreaker[int] {
	n.mu.Lock()
	defer n.mu.Unlock()

	if cb, ok := n.breakers[url]; ok {
		return cb
	}

	cfg := n.cbCfg
	cb := gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:        url,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			n.logger.Warn("webhook: circuit breaker state change",
				slog.String("url", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	n.breakers[url] = cb
	return cb
}
