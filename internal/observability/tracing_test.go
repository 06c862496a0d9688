package observability

import (
	"context"
	"errors"
	"testing"

	"paddock/internal/config"
	"paddock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}

func TestTracingConfigFrom(t *testing.T) {
	cfg := &config.Config{Env: "staging", TracingEnabled: true, TracingExporter: "otlp", OTLPEndpoint: "collector:4318", TracingSampleRatio: 0.25}
	tc := TracingConfigFrom(cfg, "9.9.9")
	assert.Equal(t, "9.9.9", tc.ServiceVersion)
	assert.Equal(t, "staging", tc.Environment)
	assert.True(t, tc.Enabled)
	assert.Equal(t, "otlp", tc.Exporter)
	assert.Equal(t, 0.25, tc.SampleRatio)
}

func TestEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() { Tracer = prev })

	ctx := context.Background()
	_, ok := StartSpan(ctx, "ok")
	EndSpan(ok, nil)
	_, missing := StartSpan(ctx, "missing")
	EndSpan(missing, models.NewNotFoundError("Post", 7))
	_, broken := StartSpan(ctx, "broken")
	EndSpan(broken, errors.New("connection reset"))

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "rejected", spans[1].Events()[0].Name)
	assert.Equal(t, codes.Error, spans[2].Status().Code)
}
