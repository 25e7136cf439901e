package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"

	"excelflow/internal/config"
)

func TestInitializeOTelMetrics(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none", EnableMetrics: true}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RowsLoaded.Add(context.Background(), 5, metric.WithAttributes(attribute.String("source", "test.xlsx")))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "pipeline_rows_loaded_total")
}

func TestInitializeOTelDefaults(t *testing.T) {
	providers, err := InitializeOTel(config.Default().Telemetry, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	assert.NotNil(t, providers.PrometheusHTTP)

	traced, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "stdout", EnableMetrics: true}, nil)
	require.NoError(t, err)
	require.NotNil(t, traced.TracerProvider)
	assert.NoError(t, traced.Shutdown(context.Background()))
}

func TestNewResource(t *testing.T) {
	res := newResource()
	assert.Equal(t, semconv.SchemaURL, res.SchemaURL())

	var name string
	for _, kv := range res.Attributes() {
		if kv.Key == semconv.ServiceNameKey {
			name = kv.Value.AsString()
		}
	}
	assert.Equal(t, ServiceName, name)
}

func TestInitializeOTelUnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "jaeger"}, nil)
	assert.Error(t, err)
}

func TestNoopProviders(t *testing.T) {
	providers := NoopOTelProviders(nil)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.StageExecutions.Add(context.Background(), 1)

	_, span := providers.Tracer.Start(context.Background(), "clean")
	span.End()

	assert.NoError(t, providers.Shutdown(context.Background()))
}
