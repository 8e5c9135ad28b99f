package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/store"
)

func TestLoadSeedData_MergesAheadOfExisting(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryHistory(domain.DefaultHistoryLimit)
	existing := domain.HistoryRecord{
		ID:         "live-1",
		URL:        "https://www.amazon.com/dp/B08N5WRWNW",
		TrustScore: 7.6,
		Date:       time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC),
	}
	if err := repo.Append(ctx, existing); err != nil {
		t.Fatalf("append: %v", err)
	}

	seed := `[
		{"id":"seed-1","url":"https://www.amazon.com/dp/B000000007","trustScore":6.4,"date":"2026-10-18T10:00:00Z"},
		{"id":"seed-2","url":"https://www.amazon.com/dp/B08N5WRWNW","trustScore":7.6,"date":"2026-10-19T11:00:00Z"}
	]`
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := loadSeedData(ctx, repo, path, log); err != nil {
		t.Fatalf("loadSeedData: %v", err)
	}

	records, _ := repo.List(ctx)
	if len(records) != 2 {
		t.Fatalf("expected 2 records after dropping the duplicate, got %d", len(records))
	}
	if records[0].ID != "seed-1" || records[1].ID != "seed-2" {
		t.Errorf("seeded records must come first: %s, %s", records[0].ID, records[1].ID)
	}
	if records[0].FormattedDate == "" {
		t.Error("missing formattedDate was not filled in")
	}
}

func TestLoadSeedData_BadFile(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryHistory(10)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := loadSeedData(ctx, repo, filepath.Join(t.TempDir(), "missing.json"), log); err == nil {
		t.Error("expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600)
	if err := loadSeedData(ctx, repo, path, log); err == nil {
		t.Error("expected a parse error")
	}
}
