package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coralbridge/internal/app"
	"github.com/dropDatabas3/coralbridge/internal/config"
)

func newContainer(t *testing.T, metrics bool) *app.Container {
	t.Helper()
	cfg := config.Default()
	cfg.SettingsStore.Driver = "memory"
	cfg.Metrics.Enabled = metrics
	c, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBuildHandler(t *testing.T) {
	h := BuildHandler(newContainer(t, true))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	// sin hash configurado la API de admin está apagada
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/settings", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestBuildHandler_NoMetrics(t *testing.T) {
	h := BuildHandler(newContainer(t, false))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := newContainer(t, false)
	c.Config.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, c) }()
	cancel()
	assert.NoError(t, <-done)
}
