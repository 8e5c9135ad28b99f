package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAnalysis(t *testing.T) {
	before := testutil.ToFloat64(analysesTotal.WithLabelValues("amazon", "safe"))
	ObserveAnalysis("amazon", "safe", 8.2)
	ObserveAnalysis("amazon", "safe", 7.9)
	after := testutil.ToFloat64(analysesTotal.WithLabelValues("amazon", "safe"))
	assert.Equal(t, before+2, after)
}

func TestCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("miss"))
	CacheLookup(true)
	CacheLookup(false)
	CacheLookup(false)
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues("miss")))
}

func TestEventPublished_SplitsOutcome(t *testing.T) {
	ok := testutil.ToFloat64(eventsPublished.WithLabelValues("analysis.completed", "ok"))
	bad := testutil.ToFloat64(eventsPublished.WithLabelValues("analysis.completed", "error"))
	EventPublished("analysis.completed", nil)
	EventPublished("analysis.completed", errors.New("broker down"))
	assert.Equal(t, ok+1, testutil.ToFloat64(eventsPublished.WithLabelValues("analysis.completed", "ok")))
	assert.Equal(t, bad+1, testutil.ToFloat64(eventsPublished.WithLabelValues("analysis.completed", "error")))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware("metrics-test"))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/"+string(rune('a'+i)), nil))
		assert.Equal(t, http.StatusTeapot, rr.Code)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-test", "GET", "/items/{id}", "418"))
	assert.Equal(t, float64(3), got)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-test")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	ParseFailure()
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "trustlens_parse_failures_total")
}
