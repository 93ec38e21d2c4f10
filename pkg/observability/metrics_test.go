package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewMetrics(MetricsConfig{Registerer: registry})
	require.NoError(t, err)

	m.RequestStarted()
	m.ObserveRequest("tools/call", OutcomeOK, 10*time.Millisecond)
	m.RequestFinished()
	m.RecordNotification("notifications/message", DirectionInbound)
	m.RecordServerRequest("ping", OutcomeOK)
	m.RecordDroppedFrame()

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["mcp_client_request_duration_seconds"])
	assert.True(t, names["mcp_client_notifications_total"])
	assert.True(t, names["mcp_client_dropped_frames_total"])

	assert.Equal(t, float64(0), testutil.ToFloat64(m.requestsInFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.droppedFramesTotal))
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewMetrics(MetricsConfig{Registerer: registry})
	require.NoError(t, err)
	_, err = NewMetrics(MetricsConfig{Registerer: registry})
	assert.Error(t, err, "same registry cannot hold the collectors twice")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RequestStarted()
	m.RequestFinished()
	m.ObserveRequest("ping", OutcomeError, time.Second)
	m.RecordNotification("x", DirectionOutbound)
	m.RecordServerRequest("x", OutcomeError)
	m.RecordDroppedFrame()
}
