package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/contents/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for range 2 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/contents/abc", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/api/contents/{id}", "404"))
	assert.Equal(t, float64(2), got)
}

func TestObserveGeneration(t *testing.T) {
	m := New()
	m.ObserveGeneration("generateExam", nil)
	m.ObserveGeneration("generateExam", errors.New("boom"))
	m.ObserveGeneration("generateExam", errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Generations.WithLabelValues("generateExam", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Generations.WithLabelValues("generateExam", "error")))

	var nilMetrics *Metrics
	nilMetrics.ObserveGeneration("summary", nil)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveGeneration("summary", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `examgen_generations_total{action="summary",outcome="ok"} 1`)
}
