// Package scoring turns a product URL into an AnalysisResult.
//
// Pipeline:
//
//	URL → parser → seed → synth → Classify → Score → Recommend
//
// Every step is a pure function of the product id except the review dates,
// which count back from the analyzer's clock. The Analyzer owns no mutable
// state, so any number of analyses may run at once.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"trustlens/review-api/internal/catalog"
	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/metrics"
	"trustlens/review-api/internal/parser"
	"trustlens/review-api/internal/synth"
)

const tracerName = "trustlens/review-api/internal/scoring"

// DefaultBatchConcurrency bounds the goroutines used by AnalyzeBatch.
const DefaultBatchConcurrency = 8

// Analyzer runs the analysis pipeline.
type Analyzer struct {
	catalog     *catalog.Catalog
	now         func() time.Time
	concurrency int
	tracer      trace.Tracer
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock overrides the clock review dates are computed from.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithConcurrency bounds AnalyzeBatch. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAnalyzer creates an Analyzer that resolves titles and images from c.
func NewAnalyzer(c *catalog.Catalog, opts ...Option) *Analyzer {
	if c == nil {
		c = catalog.Default()
	}
	a := &Analyzer{
		catalog:     c,
		now:         time.Now,
		concurrency: DefaultBatchConcurrency,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ─── Public API ───────────────────────────────────────────────────────────────

// Analyze runs the full pipeline for rawURL. The only failure is an
// unsupported URL, reported as an error wrapping parser.ErrInvalidURL.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*domain.AnalysisResult, error) {
	_, span := a.tracer.Start(ctx, "scoring.Analyze",
		trace.WithAttributes(attribute.String("product.url", rawURL)),
	)
	defer span.End()

	id, err := a.Identify(rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("analyze %q: %w", rawURL, err)
	}

	result := a.Evaluate(id, rawURL)

	span.SetAttributes(
		attribute.String("product.platform", string(id.Platform)),
		attribute.String("product.id", id.ProductID),
		attribute.Int("reviews.total", result.TotalReviews),
		attribute.Float64("trust.score", result.TrustScore),
		attribute.String("recommendation.level", string(result.Recommendation.Level)),
	)
	metrics.ObserveAnalysis(string(id.Platform), string(result.Recommendation.Level), result.TrustScore)

	return result, nil
}

// Identify parses rawURL into a product identifier. Every rejected URL is
// counted here and nowhere else.
func (a *Analyzer) Identify(rawURL string) (domain.ProductIdentifier, error) {
	id, err := parser.Parse(rawURL)
	if err != nil {
		metrics.ParseFailure()
		return domain.ProductIdentifier{}, err
	}
	return id, nil
}

// Evaluate runs the pipeline for an already parsed identifier. rawURL is
// copied into the product block unchanged.
func (a *Analyzer) Evaluate(id domain.ProductIdentifier, rawURL string) *domain.AnalysisResult {
	reviews := synth.Synthesize(id.ProductID, a.now())
	cls := Classify(reviews)
	trust := Score(reviews, cls.FakePercentage)

	return &domain.AnalysisResult{
		Product: domain.Product{
			ProductID: id.ProductID,
			Platform:  id.Platform,
			Title:     a.catalog.Title(id.ProductID, id.Platform),
			ImageURL:  a.catalog.ImageURL(id.ProductID),
			URL:       rawURL,
		},
		TrustScore:       trust,
		FakePercentage:   cls.FakePercentage,
		TotalReviews:     len(reviews),
		StarDistribution: StarDistribution(reviews),
		GenuineAverage:   GenuineAverage(reviews),
		Recommendation:   Recommend(trust, cls.FakePercentage),
		PatternsDetected: cls.PatternsDetected,
	}
}

// AnalyzeBatch analyses every URL concurrently and returns one item per URL
// in input order. A bad URL fails its own item only. When ctx is cancelled
// the remaining items carry the context error.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, urls []string) []domain.BatchItem {
	items := make([]domain.BatchItem, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, u := range urls {
		items[i].URL = u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Error = err.Error()
				return nil
			}
			result, err := a.Analyze(gctx, u)
			if err != nil {
				items[i].Error = batchError(err)
				return nil
			}
			items[i].Result = result
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	return items
}

// Reviews returns the synthetic corpus behind an analysis of productID.
func (a *Analyzer) Reviews(productID string) []domain.Review {
	return synth.Synthesize(productID, a.now())
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func batchError(err error) string {
	if errors.Is(err, parser.ErrInvalidURL) {
		return parser.ErrInvalidURL.Error()
	}
	return err.Error()
}
