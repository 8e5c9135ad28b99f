package history_test

import (
	"reflect"
	"testing"
	"time"

	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/history"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

var base = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func rec(id, title string, trust, fake float64, age time.Duration) domain.HistoryRecord {
	return domain.HistoryRecord{
		ID:             id,
		URL:            "https://www.amazon.com/dp/" + id,
		Title:          title,
		TrustScore:     trust,
		FakePercentage: fake,
		Date:           base.Add(-age),
	}
}

func ids(records []domain.HistoryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func sample() []domain.HistoryRecord {
	return []domain.HistoryRecord{
		rec("a", "Echo Dot Speaker", 7.6, 18.75, time.Hour),
		rec("b", "Fire TV Stick", 3.2, 41.2, 3*time.Hour),
		rec("c", "Wireless Headphones", 5.5, 25, 2*time.Hour),
		rec("d", "Bluetooth SPEAKER", 7.6, 10, 4*time.Hour),
	}
}

// ─── NewRecord ────────────────────────────────────────────────────────────────

func TestNewRecord(t *testing.T) {
	result := &domain.AnalysisResult{
		Product: domain.Product{
			ProductID: "B08N5WRWNW",
			Title:     "Echo Dot",
			ImageURL:  "https://img/x",
			URL:       "https://www.amazon.com/dp/B08N5WRWNW",
		},
		TrustScore:     7.629807692307692,
		FakePercentage: 18.75,
		TotalReviews:   64,
	}
	now := time.Date(2026, 3, 7, 23, 59, 59, 123456789, time.FixedZone("X", -5*3600))

	r := history.NewRecord(result, now)
	if r.ID == "" {
		t.Error("expected an id")
	}
	if r.URL != result.Product.URL || r.Title != "Echo Dot" || r.Image != "https://img/x" {
		t.Errorf("unexpected product fields: %+v", r)
	}
	if r.TrustScore != result.TrustScore || r.FakePercentage != 18.75 || r.TotalReviews != 64 {
		t.Errorf("unexpected score fields: %+v", r)
	}
	wantDate := time.Date(2026, 3, 8, 4, 59, 59, 123000000, time.UTC)
	if !r.Date.Equal(wantDate) || r.Date.Location() != time.UTC {
		t.Errorf("date = %v, want %v", r.Date, wantDate)
	}
	if r.FormattedDate != "3/8/2026" {
		t.Errorf("formattedDate = %q", r.FormattedDate)
	}

	other := history.NewRecord(result, now)
	if other.ID == r.ID {
		t.Error("ids must be unique")
	}
}

// ─── Sort / Filter ────────────────────────────────────────────────────────────

func TestSort_Modes(t *testing.T) {
	cases := []struct {
		mode string
		want []string
	}{
		{history.SortDateDesc, []string{"a", "c", "b", "d"}},
		{history.SortDateAsc, []string{"d", "b", "c", "a"}},
		{history.SortTrustHigh, []string{"a", "d", "c", "b"}}, // a and d tie, stored order kept
		{history.SortTrustLow, []string{"b", "c", "a", "d"}},
		{history.SortFakeHigh, []string{"b", "c", "a", "d"}},
		{history.SortFakeLow, []string{"d", "a", "c", "b"}},
		{"bogus", []string{"a", "b", "c", "d"}},
		{"", []string{"a", "b", "c", "d"}},
	}
	for _, c := range cases {
		in := sample()
		got := ids(history.Sort(in, c.mode))
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Sort(%q) = %v, want %v", c.mode, got, c.want)
		}
		if !reflect.DeepEqual(ids(in), []string{"a", "b", "c", "d"}) {
			t.Errorf("Sort(%q) modified its input", c.mode)
		}
	}
}

func TestFilter(t *testing.T) {
	if got := ids(history.Filter(sample(), "speaker")); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Errorf("got %v", got)
	}
	if got := ids(history.Filter(sample(), "  TV ")); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("got %v", got)
	}
	if got := history.Filter(sample(), "toaster"); len(got) != 0 {
		t.Errorf("expected no matches, got %v", ids(got))
	}
	if got := history.Filter(sample(), ""); len(got) != 4 {
		t.Errorf("empty term should keep all, got %d", len(got))
	}
}

// ─── Stats ────────────────────────────────────────────────────────────────────

func TestComputeStats(t *testing.T) {
	got := history.ComputeStats(sample())
	want := domain.HistoryStats{
		Total:             4,
		Trusted:           2,
		Suspicious:        1,
		Dangerous:         1,
		AvgTrustScore:     6.0,  // 23.9 / 4 = 5.975
		AvgFakePercentage: 23.7, // 94.95 / 4 = 23.7375
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestComputeStats_Bands(t *testing.T) {
	records := []domain.HistoryRecord{
		rec("a", "", 7, 0, 0),
		rec("b", "", 6.99, 0, 0),
		rec("c", "", 4, 0, 0),
		rec("d", "", 3.99, 0, 0),
	}
	got := history.ComputeStats(records)
	if got.Trusted != 1 || got.Suspicious != 2 || got.Dangerous != 1 {
		t.Errorf("unexpected bands: %+v", got)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	if got := history.ComputeStats(nil); got != (domain.HistoryStats{}) {
		t.Errorf("got %+v", got)
	}
}

// ─── Merge ────────────────────────────────────────────────────────────────────

func TestMerge_ImportedFirstAndDeduped(t *testing.T) {
	existing := sample()[:2] // a, b

	dupOfA := existing[0]
	dupOfA.ID = "imported-a"
	dupOfA.Title = "renamed"
	// Same URL as b, different instant: not a duplicate.
	laterB := existing[1]
	laterB.ID = "b2"
	laterB.Date = laterB.Date.Add(time.Second)

	imported := []domain.HistoryRecord{dupOfA, laterB, dupOfA}

	got := history.Merge(imported, existing)
	if want := []string{"imported-a", "b2", "b"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
	if got[0].Title != "renamed" {
		t.Error("first occurrence should win")
	}
}

func TestMerge_DateComparedByInstant(t *testing.T) {
	r := rec("a", "x", 5, 5, 0)
	shifted := r
	shifted.ID = "a-shifted"
	shifted.Date = r.Date.In(time.FixedZone("IST", 19800))

	got := history.Merge([]domain.HistoryRecord{shifted}, []domain.HistoryRecord{r})
	if len(got) != 1 || got[0].ID != "a-shifted" {
		t.Errorf("expected one record, got %v", ids(got))
	}
}

func TestMerge_FillsMissingFields(t *testing.T) {
	r := rec("", "x", 5, 5, 0)
	got := history.Merge([]domain.HistoryRecord{r}, nil)
	if got[0].ID == "" {
		t.Error("expected a generated id")
	}
	if got[0].FormattedDate != "10/19/2026" {
		t.Errorf("formattedDate = %q", got[0].FormattedDate)
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 1, 2, 23, 0, 0, 0, time.FixedZone("PST", -8*3600))
	if got := history.ExportFilename(now); got != "analysis-history-2026-01-03.json" {
		t.Errorf("got %q", got)
	}
}
