// Package history builds and views the compact records kept for past
// analyses. Storage lives in the store package; everything here is pure.
package history

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"trustlens/review-api/internal/domain"
)

// FormattedDateLayout renders the short display date (M/D/YYYY).
const FormattedDateLayout = "1/2/2006"

// Sort modes accepted by Sort.
const (
	SortDateDesc  = "date-desc"
	SortDateAsc   = "date-asc"
	SortTrustHigh = "trust-high"
	SortTrustLow  = "trust-low"
	SortFakeHigh  = "fake-high"
	SortFakeLow   = "fake-low"
)

// NewRecord condenses result into a history record stamped with now.
// The date is kept in UTC at millisecond precision so exports round-trip.
func NewRecord(result *domain.AnalysisResult, now time.Time) domain.HistoryRecord {
	date := now.UTC().Truncate(time.Millisecond)
	return domain.HistoryRecord{
		ID:             uuid.NewString(),
		URL:            result.Product.URL,
		Title:          result.Product.Title,
		Image:          result.Product.ImageURL,
		TrustScore:     result.TrustScore,
		FakePercentage: result.FakePercentage,
		TotalReviews:   result.TotalReviews,
		Date:           date,
		FormattedDate:  date.Format(FormattedDateLayout),
	}
}

// Sort returns a sorted copy of records. Ties keep their stored order and an
// unknown mode returns the records unchanged.
func Sort(records []domain.HistoryRecord, mode string) []domain.HistoryRecord {
	out := slices.Clone(records)

	var less func(a, b domain.HistoryRecord) int
	switch mode {
	case SortDateDesc:
		less = func(a, b domain.HistoryRecord) int { return b.Date.Compare(a.Date) }
	case SortDateAsc:
		less = func(a, b domain.HistoryRecord) int { return a.Date.Compare(b.Date) }
	case SortTrustHigh:
		less = func(a, b domain.HistoryRecord) int { return cmp.Compare(b.TrustScore, a.TrustScore) }
	case SortTrustLow:
		less = func(a, b domain.HistoryRecord) int { return cmp.Compare(a.TrustScore, b.TrustScore) }
	case SortFakeHigh:
		less = func(a, b domain.HistoryRecord) int { return cmp.Compare(b.FakePercentage, a.FakePercentage) }
	case SortFakeLow:
		less = func(a, b domain.HistoryRecord) int { return cmp.Compare(a.FakePercentage, b.FakePercentage) }
	default:
		return out
	}

	slices.SortStableFunc(out, less)
	return out
}

// Filter keeps the records whose title contains term, ignoring case.
// An empty term keeps everything.
func Filter(records []domain.HistoryRecord, term string) []domain.HistoryRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return slices.Clone(records)
	}
	out := make([]domain.HistoryRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Title), term) {
			out = append(out, r)
		}
	}
	return out
}

// ComputeStats buckets records by trust score and averages the scores.
func ComputeStats(records []domain.HistoryRecord) domain.HistoryStats {
	stats := domain.HistoryStats{Total: len(records)}
	if len(records) == 0 {
		return stats
	}

	var trustSum, fakeSum float64
	for _, r := range records {
		switch {
		case r.TrustScore >= domain.TrustedMinScore:
			stats.Trusted++
		case r.TrustScore >= domain.SuspiciousMinScore:
			stats.Suspicious++
		default:
			stats.Dangerous++
		}
		trustSum += r.TrustScore
		fakeSum += r.FakePercentage
	}

	n := float64(len(records))
	stats.AvgTrustScore = math.Round(trustSum/n*10) / 10
	stats.AvgFakePercentage = math.Round(fakeSum/n*10) / 10
	return stats
}

// Merge places imported records ahead of existing ones and drops later
// duplicates of the same (url, date) pair. Records without an id get one.
func Merge(imported, existing []domain.HistoryRecord) []domain.HistoryRecord {
	type key struct {
		url  string
		date int64
	}

	out := make([]domain.HistoryRecord, 0, len(imported)+len(existing))
	seen := make(map[key]struct{}, cap(out))

	for _, batch := range [][]domain.HistoryRecord{imported, existing} {
		for _, r := range batch {
			k := key{url: r.URL, date: r.Date.UnixNano()}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			if r.FormattedDate == "" && !r.Date.IsZero() {
				r.FormattedDate = r.Date.UTC().Format(FormattedDateLayout)
			}
			out = append(out, r)
		}
	}
	return out
}

// ExportFilename names an export file after the UTC calendar day of now.
func ExportFilename(now time.Time) string {
	return "analysis-history-" + now.UTC().Format("2006-01-02") + ".json"
}
