// Package events publishes domain events to Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	AnalysisCompleted = "analysis.completed"
	HistoryCleared    = "history.cleared"
	HistoryImported   = "history.imported"
)

// Aggregate types.
const (
	AggregateProduct = "product"
	AggregateHistory = "history"
)

// Event is the envelope every message carries.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent builds an event with a fresh id and the current UTC time.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          raw,
	}, nil
}

// WithCorrelationID sets the correlation id, usually the HTTP request id.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// Marshal encodes the event as JSON.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes an event.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ─── Payloads ─────────────────────────────────────────────────────────────────

// AnalysisCompletedData summarises one analysis.
type AnalysisCompletedData struct {
	URL            string  `json:"url"`
	Platform       string  `json:"platform"`
	ProductID      string  `json:"product_id"`
	TrustScore     float64 `json:"trust_score"`
	FakePercentage float64 `json:"fake_percentage"`
	TotalReviews   int     `json:"total_reviews"`
	Level          string  `json:"level"`
	Cached         bool    `json:"cached"`
}

// HistoryChangedData describes a bulk history change.
type HistoryChangedData struct {
	Imported int `json:"imported,omitempty"`
	Total    int `json:"total"`
}
