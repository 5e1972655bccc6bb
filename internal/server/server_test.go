package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/cvformat-bot/internal/metrics"
	"go.uber.org/zap"
)

func newTestServer() *Server {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	rec.ObserveTurn("show_menu", "fallback", "ok")
	return New(":0", reg, zap.NewNop())
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := get(t, newTestServer(), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "cvformat-bot", body["service"])
	assert.NotEmpty(t, body["started_at"])
}

func TestIndex(t *testing.T) {
	w := get(t, newTestServer(), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")
}

func TestMetrics(t *testing.T) {
	w := get(t, newTestServer(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cvbot_turns_total")
}
