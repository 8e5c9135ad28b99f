package api

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestVisitorStore_EvictsIdleClients(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s := newVisitorStore(rate.Limit(1), 1, time.Minute)
	s.now = func() time.Time { return now }

	first := s.get("10.0.0.1")
	if !first.Allow() {
		t.Fatal("first request must be allowed")
	}
	if s.get("10.0.0.1").Allow() {
		t.Fatal("burst of 1 must reject the second request")
	}

	now = now.Add(2 * time.Minute)
	s.get("10.0.0.2")
	if _, tracked := s.visitors["10.0.0.1"]; tracked {
		t.Error("idle visitor was not evicted")
	}
	if len(s.visitors) != 1 {
		t.Errorf("expected 1 tracked visitor, got %d", len(s.visitors))
	}
}
