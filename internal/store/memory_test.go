package store_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"trustlens/review-api/internal/apperrors"
	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/store"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

var (
	ctx  = context.Background()
	base = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
)

func newRecord(i int) domain.HistoryRecord {
	return domain.HistoryRecord{
		ID:             fmt.Sprintf("rec-%03d", i),
		URL:            fmt.Sprintf("https://www.amazon.com/dp/B0000000%02d", i%100),
		Title:          fmt.Sprintf("Product %d", i),
		TrustScore:     7.5,
		FakePercentage: 12.5,
		TotalReviews:   40,
		Date:           base.Add(time.Duration(i) * time.Minute),
		FormattedDate:  "10/19/2026",
	}
}

func listIDs(t *testing.T, repo store.HistoryRepository) []string {
	t.Helper()
	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// ─── History ──────────────────────────────────────────────────────────────────

func TestMemoryHistory_AppendNewestFirst(t *testing.T) {
	h := store.NewMemoryHistory(10)
	for i := 1; i <= 3; i++ {
		if err := h.Append(ctx, newRecord(i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got := listIDs(t, h)
	want := []string{"rec-003", "rec-002", "rec-001"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMemoryHistory_CapDropsOldest(t *testing.T) {
	h := store.NewMemoryHistory(0) // default cap
	for i := 1; i <= domain.DefaultHistoryLimit+5; i++ {
		_ = h.Append(ctx, newRecord(i))
	}
	got := listIDs(t, h)
	if len(got) != domain.DefaultHistoryLimit {
		t.Fatalf("expected %d records, got %d", domain.DefaultHistoryLimit, len(got))
	}
	if got[0] != "rec-055" || got[len(got)-1] != "rec-006" {
		t.Errorf("unexpected window %s..%s", got[0], got[len(got)-1])
	}
}

func TestMemoryHistory_ListReturnsCopy(t *testing.T) {
	h := store.NewMemoryHistory(10)
	_ = h.Append(ctx, newRecord(1))

	records, _ := h.List(ctx)
	records[0].Title = "mutated"

	again, _ := h.List(ctx)
	if again[0].Title != "Product 1" {
		t.Error("List leaked internal state")
	}
}

func TestMemoryHistory_GetAndDelete(t *testing.T) {
	h := store.NewMemoryHistory(10)
	for i := 1; i <= 3; i++ {
		_ = h.Append(ctx, newRecord(i))
	}

	got, err := h.Get(ctx, "rec-002")
	if err != nil || got.Title != "Product 2" {
		t.Fatalf("get: %+v, %v", got, err)
	}

	if err := h.Delete(ctx, "rec-002"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ids := listIDs(t, h); fmt.Sprint(ids) != "[rec-003 rec-001]" {
		t.Errorf("after delete: %v", ids)
	}

	if err := h.Delete(ctx, "rec-002"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := h.Get(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("get missing: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryHistory_ClearAndReplace(t *testing.T) {
	h := store.NewMemoryHistory(2)
	_ = h.Append(ctx, newRecord(1))

	if err := h.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if ids := listIDs(t, h); len(ids) != 0 {
		t.Errorf("expected empty history, got %v", ids)
	}

	in := []domain.HistoryRecord{newRecord(9), newRecord(8), newRecord(7)}
	if err := h.Replace(ctx, in); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if ids := listIDs(t, h); fmt.Sprint(ids) != "[rec-009 rec-008]" {
		t.Errorf("replace should cap: %v", ids)
	}

	in[0].Title = "mutated"
	if got, _ := h.Get(ctx, "rec-009"); got.Title != "Product 9" {
		t.Error("Replace kept a reference to the caller's slice")
	}
}

func TestMemoryHistory_ConcurrentAppends(t *testing.T) {
	h := store.NewMemoryHistory(1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h.Append(ctx, newRecord(i))
		}(i)
	}
	wg.Wait()

	if ids := listIDs(t, h); len(ids) != 100 {
		t.Errorf("expected 100 records, got %d", len(ids))
	}
	if err := h.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestMemoryHistory_ImportMergesAheadAndCaps(t *testing.T) {
	h := store.NewMemoryHistory(3)
	_ = h.Append(ctx, newRecord(1))
	_ = h.Append(ctx, newRecord(2))

	total, err := h.Import(ctx, []domain.HistoryRecord{newRecord(5), newRecord(2), newRecord(4)})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if ids := listIDs(t, h); fmt.Sprint(ids) != "[rec-005 rec-002 rec-004]" {
		t.Errorf("unexpected order after import: %v", ids)
	}
}

func TestMemoryHistory_ImportKeepsConcurrentAppends(t *testing.T) {
	h := store.NewMemoryHistory(1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h.Append(ctx, newRecord(i))
		}(i)
	}
	for b := 0; b < 5; b++ {
		batch := make([]domain.HistoryRecord, 10)
		for j := range batch {
			batch[j] = newRecord(100 + b*10 + j)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Import(ctx, batch); err != nil {
				t.Errorf("import: %v", err)
			}
		}()
	}
	wg.Wait()

	ids := listIDs(t, h)
	if len(ids) != 100 {
		t.Fatalf("expected 100 records, got %d", len(ids))
	}
	for i := 0; i < 50; i++ {
		if !slices.Contains(ids, newRecord(i).ID) {
			t.Errorf("appended record %s was lost", newRecord(i).ID)
		}
	}
}

// ─── Webhooks ─────────────────────────────────────────────────────────────────

func TestWebhooks_SaveListDelete(t *testing.T) {
	w := store.NewWebhooks()
	w.Save(&domain.WebhookConfig{ID: "wh-1", URL: "http://a", Threshold: 4, Active: true})
	w.Save(&domain.WebhookConfig{ID: "wh-2", URL: "http://b", Threshold: 5, Active: false})
	w.Save(&domain.WebhookConfig{ID: "wh-3", URL: "http://c", Threshold: 6, Active: true})

	active := w.ListActive()
	if len(active) != 2 || active[0].ID != "wh-1" || active[1].ID != "wh-3" {
		t.Fatalf("unexpected active hooks: %+v", active)
	}

	if !w.Delete("wh-1") {
		t.Error("expected delete to succeed")
	}
	if w.Delete("wh-1") {
		t.Error("expected second delete to fail")
	}
	if active := w.ListActive(); len(active) != 1 || active[0].ID != "wh-3" {
		t.Errorf("unexpected active hooks after delete: %+v", active)
	}
}

func TestWebhooks_SaveReplacesInPlace(t *testing.T) {
	w := store.NewWebhooks()
	w.Save(&domain.WebhookConfig{ID: "wh-1", URL: "http://a", Active: true})
	w.Save(&domain.WebhookConfig{ID: "wh-2", URL: "http://b", Active: true})
	w.Save(&domain.WebhookConfig{ID: "wh-1", URL: "http://a2", Active: true})

	active := w.ListActive()
	if len(active) != 2 || active[0].URL != "http://a2" {
		t.Errorf("unexpected hooks: %+v", active)
	}
}
