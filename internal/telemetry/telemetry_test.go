package telemetry

import (
	"context"
	"testing"

	"phishcheck/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTelemetryDisabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Nil(t, GetTracerProvider())
}

func TestEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	assert.Equal(t, "localhost:4317", endpoint(config.TelemetryConfig{}))
	assert.Equal(t, "collector:4317", endpoint(config.TelemetryConfig{Endpoint: "collector:4317"}))

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "env:4317")
	assert.Equal(t, "env:4317", endpoint(config.TelemetryConfig{Endpoint: "collector:4317"}))
}
