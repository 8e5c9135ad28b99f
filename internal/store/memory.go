package store

import (
	"context"
	"slices"
	"sync"

	"trustlens/review-api/internal/apperrors"
	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/history"
)

// ─── History ──────────────────────────────────────────────────────────────────

// MemoryHistory keeps history in process memory. Safe for concurrent use.
type MemoryHistory struct {
	mu      sync.RWMutex
	records []domain.HistoryRecord
	limit   int
}

// NewMemoryHistory creates an empty history capped at limit records.
func NewMemoryHistory(limit int) *MemoryHistory {
	return &MemoryHistory{limit: normalizeLimit(limit)}
}

// Append stores rec as the newest record.
func (m *MemoryHistory) Append(_ context.Context, rec domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = capRecords(slices.Insert(m.records, 0, rec), m.limit)
	return nil
}

// List returns a copy of the history, newest first.
func (m *MemoryHistory) List(_ context.Context) ([]domain.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.HistoryRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Get returns the record with the given id.
func (m *MemoryHistory) Get(_ context.Context, id string) (domain.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.HistoryRecord{}, apperrors.NotFound("history record", id)
}

// Delete removes the first record with the given id.
func (m *MemoryHistory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.records, func(r domain.HistoryRecord) bool { return r.ID == id })
	if i < 0 {
		return apperrors.NotFound("history record", id)
	}
	m.records = slices.Delete(m.records, i, i+1)
	return nil
}

// Clear empties the history.
func (m *MemoryHistory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	return nil
}

// Replace swaps the history for a capped copy of records.
func (m *MemoryHistory) Replace(_ context.Context, records []domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = slices.Clone(capRecords(records, m.limit))
	return nil
}

// Import merges imported ahead of the current records while holding the lock.
func (m *MemoryHistory) Import(_ context.Context, imported []domain.HistoryRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = capRecords(history.Merge(imported, m.records), m.limit)
	return len(m.records), nil
}

// Ping always succeeds.
func (m *MemoryHistory) Ping(_ context.Context) error { return nil }

// ─── Webhooks ─────────────────────────────────────────────────────────────────

// Webhooks is the in-memory webhook registry. Safe for concurrent use.
type Webhooks struct {
	mu    sync.RWMutex
	hooks map[string]*domain.WebhookConfig
	order []string
}

// NewWebhooks creates an empty registry.
func NewWebhooks() *Webhooks {
	return &Webhooks{hooks: make(map[string]*domain.WebhookConfig)}
}

// Save registers or replaces a webhook.
func (w *Webhooks) Save(wh *domain.WebhookConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.hooks[wh.ID]; !exists {
		w.order = append(w.order, wh.ID)
	}
	w.hooks[wh.ID] = wh
}

// Delete removes a webhook. Returns false if it did not exist.
func (w *Webhooks) Delete(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.hooks[id]; !exists {
		return false
	}
	delete(w.hooks, id)
	w.order = slices.DeleteFunc(w.order, func(s string) bool { return s == id })
	return true
}

// ListActive returns active webhooks in registration order.
func (w *Webhooks) ListActive() []*domain.WebhookConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*domain.WebhookConfig, 0, len(w.order))
	for _, id := range w.order {
		if wh := w.hooks[id]; wh.Active {
			out = append(out, wh)
		}
	}
	return out
}
