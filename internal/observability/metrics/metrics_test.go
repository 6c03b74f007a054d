package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCall(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObserveCall("approveComment", "ok", 120*time.Millisecond)
	m.ObserveCall("approveComment", "ok", 80*time.Millisecond)
	m.ObserveCall("recentComments", "not_configured", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.coralRequests.WithLabelValues("approveComment", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.coralRequests.WithLabelValues("recentComments", "not_configured")))
	// not_configured no observa latencia
	assert.Equal(t, 1, testutil.CollectAndCount(m.coralDuration))
}

func TestNew_SameRegistryTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.NoError(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCall("x", "ok", time.Second)
	m.ObserveDecision("approve", "ok")
	m.RateLimited()
	m.PublishFailed()
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, m.WithMetrics(h))
}

func TestWithMetrics_UsesRoutePattern(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.WithMetrics)
	r.Post("/v1/admin/moderation/{action}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	for _, a := range []string{"approve", "reject"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/admin/moderation/"+a, nil))
		require.Equal(t, http.StatusAccepted, rr.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/v1/admin/moderation/{action}", "202")))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "http_requests_total"))
}
