package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Health(t *testing.T) {
	metrics := NewMetricsRegistry()
	metrics.SnapshotWrites.Inc()
	metrics.SnapshotWrites.Inc()
	metrics.SnapshotErrors.Inc()

	server := httptest.NewServer(NewServer(":0", metrics).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 2.0, status.SnapshotsWritten)
	assert.Equal(t, 1.0, status.SnapshotErrors)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	metrics := NewMetricsRegistry()
	metrics.SynthesisTotal.WithLabelValues("HIGH").Inc()
	metrics.Disqualifications.Inc()

	server := httptest.NewServer(NewServer(":0", metrics).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `markettruth_synthesis_total{conviction="HIGH"} 1`)
	assert.Contains(t, string(body), "markettruth_disqualifications_total 1")
}

func TestCounterValue(t *testing.T) {
	metrics := NewMetricsRegistry()
	assert.Equal(t, 0.0, CounterValue(metrics.Disqualifications))
	metrics.Disqualifications.Inc()
	assert.Equal(t, 1.0, CounterValue(metrics.Disqualifications))
}
