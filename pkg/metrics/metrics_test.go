package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.StageRunsTotal.WithLabelValues("invert", "ok").Inc()
	m.CacheHitsTotal.Inc()

	assert.Panics(t, func() { New(reg) }, "duplicate registration")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vsm_stage_runs_total{stage="invert",status="ok"} 1`)
	assert.Contains(t, string(body), "cache_hits_total 1")
}

func TestStartServerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.DocumentsCollected.Add(3)

	srv, err := StartServer(0, reg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "vsm_documents_collected_total 3")
}
