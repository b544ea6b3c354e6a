package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	for name, cfg := range map[string]*Config{
		"nil config":       nil,
		"disabled":         {Enabled: false, Tracing: &TracingConfig{Enabled: true}},
		"nothing selected": {Enabled: true},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tel, err := New(context.Background(), WithTelemetryConfig(cfg), WithServiceVersion("test"))
			require.NoError(t, err)
			require.NotNil(t, tel)

			assert.IsType(t, tracenoop.TracerProvider{}, tel.TracerProvider())
			assert.IsType(t, metricnoop.MeterProvider{}, tel.MeterProvider())
			assert.NotNil(t, tel.Tracer("test"))
			assert.NoError(t, tel.Shutdown(context.Background()))
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), WithTelemetryConfig(&Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true, Sampling: 2},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}

func TestProviders_DisabledSignals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tp, err := NewTracerProvider(ctx, &Config{Enabled: true, Tracing: &TracingConfig{Enabled: false}})
	require.NoError(t, err)
	assert.IsType(t, tracenoop.TracerProvider{}, tp)

	mp, err := NewMeterProvider(ctx, &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: false}})
	require.NoError(t, err)
	assert.IsType(t, metricnoop.MeterProvider{}, mp)
}
