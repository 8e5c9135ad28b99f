// Package domain contains all core types used across the application.
// Keeping domain types in one place makes the analysis pipeline easy to follow
// from URL to stored history record.
package domain

import "time"

// ─── Constants ───────────────────────────────────────────────────────────────

// Platform identifies the marketplace a product URL belongs to.
type Platform string

// Supported marketplaces.
const (
	PlatformAmazon   Platform = "amazon"
	PlatformFlipkart Platform = "flipkart"
)

// Label returns the display name used in fallback product titles.
func (p Platform) Label() string {
	switch p {
	case PlatformAmazon:
		return "Amazon"
	default:
		return "Flipkart"
	}
}

// Level is the recommendation tier handed to presentation layers.
type Level string

// Recommendation tiers, from loosest to strictest.
const (
	LevelSafe    Level = "safe"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// ─── Scoring thresholds ───────────────────────────────────────────────────────

// Recommendation thresholds. A result must clear both bounds of a tier.
const (
	SafeMinTrust    = 7.0  // trust score >= 7 ...
	SafeMaxFake     = 15.0 // ... and fake % < 15 → safe
	WarningMinTrust = 5.0  // trust score >= 5 ...
	WarningMaxFake  = 30.0 // ... and fake % < 30 → warning
	// anything else → danger
)

// History bands used by the statistics endpoint.
const (
	TrustedMinScore    = 7.0 // >= 7 trusted
	SuspiciousMinScore = 4.0 // 4 <= x < 7 suspicious, < 4 dangerous
)

// DefaultHistoryLimit caps the stored history, newest first.
const DefaultHistoryLimit = 50

// ─── Core domain types ────────────────────────────────────────────────────────

// ProductIdentifier is the canonical (platform, id) pair extracted from a URL.
// The id seeds the review generator and keys the catalog.
type ProductIdentifier struct {
	Platform  Platform `json:"platform"`
	ProductID string   `json:"productId"`
}

// Review is one synthetic review. Reviews only live for a single analysis.
type Review struct {
	ID         string  `json:"id"`
	Rating     int     `json:"rating"` // 1-5
	Text       string  `json:"text"`
	Author     string  `json:"author"` // "First L."
	Date       string  `json:"date"`   // YYYY-MM-DD
	IsFake     bool    `json:"isFake"`
	Confidence float64 `json:"confidence"` // synthetic fraud signal in [0,1]
}

// Product is the metadata block attached to an analysis result.
type Product struct {
	ProductID string   `json:"productId"`
	Platform  Platform `json:"platform"`
	Title     string   `json:"title"`
	ImageURL  string   `json:"imageUrl"`
	URL       string   `json:"url"`
}

// Recommendation is the tiered verdict derived from trust score and fake %.
type Recommendation struct {
	Text   string `json:"text"`
	Level  Level  `json:"level"`
	Reason string `json:"reason"`
}

// StarDistribution maps a rating (1-5) to its review count.
type StarDistribution map[int]int

// Total returns the number of reviews counted in the distribution.
func (d StarDistribution) Total() int {
	var n int
	for _, c := range d {
		n += c
	}
	return n
}

// AnalysisResult is the immutable output of one analysis run.
type AnalysisResult struct {
	Product          Product          `json:"product"`
	TrustScore       float64          `json:"trustScore"`     // 1.0-10.0
	FakePercentage   float64          `json:"fakePercentage"` // 0-100, 2 dp
	TotalReviews     int              `json:"totalReviews"`
	StarDistribution StarDistribution `json:"starDistribution"`
	GenuineAverage   float64          `json:"genuineAverage"` // 1 dp
	Recommendation   Recommendation   `json:"recommendation"`
	PatternsDetected []string         `json:"patternsDetected"`
	Cached           bool             `json:"cached"`
}

// ─── History ──────────────────────────────────────────────────────────────────

// HistoryRecord is the compact form of a result kept in analysis history.
// Field names match the browser export format so files round-trip.
type HistoryRecord struct {
	ID             string    `json:"id"`
	URL            string    `json:"url" validate:"required"`
	Title          string    `json:"title"`
	Image          string    `json:"image"`
	TrustScore     float64   `json:"trustScore" validate:"gte=0,lte=10"`
	FakePercentage float64   `json:"fakePercentage" validate:"gte=0,lte=100"`
	TotalReviews   int       `json:"totalReviews" validate:"gte=0"`
	Date           time.Time `json:"date" validate:"required"`
	FormattedDate  string    `json:"formattedDate"`
}

// HistoryStats summarises the stored history.
type HistoryStats struct {
	Total             int     `json:"total"`
	Trusted           int     `json:"trusted"`
	Suspicious        int     `json:"suspicious"`
	Dangerous         int     `json:"dangerous"`
	AvgTrustScore     float64 `json:"avgTrustScore"`
	AvgFakePercentage float64 `json:"avgFakePercentage"`
}

// ─── Webhooks ─────────────────────────────────────────────────────────────────

// WebhookConfig is a registered callback that receives low-trust alerts.
type WebhookConfig struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Threshold float64   `json:"threshold"` // fire when trust score < this value
	CreatedAt time.Time `json:"createdAt"`
	Active    bool      `json:"active"`
}

// WebhookPayload is the body sent to registered webhook URLs.
type WebhookPayload struct {
	Event       string         `json:"event"` // always "low_trust_analysis"
	TriggeredAt time.Time      `json:"triggered_at"`
	Analysis    AnalysisResult `json:"analysis"`
}

// ─── Batch ────────────────────────────────────────────────────────────────────

// BatchItem is one entry of a batch analysis, in request order.
type BatchItem struct {
	URL    string          `json:"url"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
