package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleValue reads a counter or gauge sample whose labels include want.
func sampleValue(t *testing.T, m *Metrics, name string, want map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			if metric.GetCounter() != nil {
				return metric.GetCounter().GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	return 0
}

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	t.Parallel()

	m := New()
	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/clients/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, 3.0, sampleValue(t, m, "nutriagenda_http_requests_total", map[string]string{"method": "GET", "route": "/clients/{id}", "status": "204"}))
	assert.Equal(t, 0.0, sampleValue(t, m, "nutriagenda_http_inflight_requests", nil))
}

func TestRecordAuthAndHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordAuth("login", "")
	m.RecordAuth("login", "invalid_credentials")
	m.RecordAuth("login", "invalid_credentials")

	assert.Equal(t, 1.0, sampleValue(t, m, "nutriagenda_auth_attempts_total", map[string]string{"action": "login", "outcome": "ok"}))
	assert.Equal(t, 2.0, sampleValue(t, m, "nutriagenda_auth_attempts_total", map[string]string{"action": "login", "outcome": "invalid_credentials"}))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "nutriagenda_auth_attempts_total"))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordAuth("login", "ok")

	called := false
	handler := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}
