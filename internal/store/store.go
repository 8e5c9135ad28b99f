// Package store persists analysis history and webhook registrations.
//
// History is a capped, newest-first list. Three backends implement
// HistoryRepository: in-memory, a Redis list, and a Postgres table. Every
// backend applies the cap on write, so readers never see more than the limit.
package store

import (
	"context"

	"trustlens/review-api/internal/domain"
)

// HistoryRepository is the storage contract for analysis history.
type HistoryRepository interface {
	// Append stores rec as the newest record and drops the oldest beyond the cap.
	Append(ctx context.Context, rec domain.HistoryRecord) error
	// List returns every record, newest first.
	List(ctx context.Context) ([]domain.HistoryRecord, error)
	// Get returns the record with the given id or an apperrors NotFound.
	Get(ctx context.Context, id string) (domain.HistoryRecord, error)
	// Delete removes the record with the given id or returns an apperrors NotFound.
	Delete(ctx context.Context, id string) error
	// Clear removes every record.
	Clear(ctx context.Context) error
	// Replace swaps the whole list for records (already newest first), capped.
	Replace(ctx context.Context, records []domain.HistoryRecord) error
	// Import merges imported ahead of the stored records with history.Merge,
	// applies the cap and returns the number of records kept. The read and the
	// write happen as one step, so concurrent Appends are never lost.
	Import(ctx context.Context, imported []domain.HistoryRecord) (int, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// normalizeLimit falls back to the default cap for non-positive limits.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultHistoryLimit
	}
	return limit
}

// capRecords returns at most limit records from the front of records.
func capRecords(records []domain.HistoryRecord, limit int) []domain.HistoryRecord {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}
