package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func newRouter(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.Get("/v1/sync/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/fail/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	return r
}

func TestMiddleware_NilProvidersPassThrough(t *testing.T) {
	t.Parallel()

	metrics, err := MetricsMiddleware(nil)
	require.NoError(t, err)

	called := false
	handler := metrics(TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestTracingMiddleware_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	router := newRouter(TracingMiddleware(tp))

	tests := []struct {
		path       string
		wantName   string
		wantStatus codes.Code
		wantCode   int
	}{
		{path: "/v1/sync/status", wantName: "GET /v1/sync/status", wantStatus: codes.Ok, wantCode: http.StatusOK},
		{path: "/fail/42", wantName: "GET /fail/{id}", wantStatus: codes.Error, wantCode: http.StatusServiceUnavailable},
		{path: "/missing", wantName: "GET " + unknownRoute, wantStatus: codes.Error, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		exporter.Reset()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.Equal(t, tt.wantCode, rr.Code)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1, tt.path)
		assert.Equal(t, tt.wantName, spans[0].Name)
		assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
		assert.Contains(t, spans[0].Attributes, semconv.HTTPResponseStatusCode(tt.wantCode))
	}
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	metrics, err := MetricsMiddleware(mp)
	require.NoError(t, err)

	router := newRouter(metrics)
	for range 3 {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/sync/status", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail/7", nil))

	got := collect(t, reader)
	requests, ok := got["birdsync_http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byRoute := map[string]int64{}
	for _, dp := range requests.DataPoints {
		route, _ := dp.Attributes.Value(attribute.Key("route"))
		byRoute[route.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"/v1/sync/status": 3, "/fail/{id}": 1}, byRoute)

	_, ok = got["birdsync_http_request_duration_seconds"].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}
