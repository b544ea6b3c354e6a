package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewSyncMetrics_NilProvider(t *testing.T) {
	t.Parallel()

	metrics, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	// nil metrics must not panic
	ctx := context.Background()
	metrics.RecordSyncDuration(ctx, "ALA", time.Second, true)
	metrics.RecordUpsert(ctx, "ALA", "inserted")
	metrics.RecordSpeciesNotFound(ctx, "ALA")
	metrics.RecordFetchRetry(ctx, "biocache.ala.org.au")
	metrics.RecordSpeciesTotal(ctx, "ALA", 3)
}

func TestSyncMetrics_Record(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.RecordSyncDuration(ctx, "ALA", 90*time.Second, true)
	metrics.RecordUpsert(ctx, "ALA", "inserted")
	metrics.RecordUpsert(ctx, "ALA", "inserted")
	metrics.RecordUpsert(ctx, "ALA", "updated")
	metrics.RecordSpeciesNotFound(ctx, "ALA")
	metrics.RecordFetchRetry(ctx, "biocache.ala.org.au")
	metrics.RecordSpeciesTotal(ctx, "ALA", 4)

	got := collect(t, reader)

	duration, ok := got["birdsync_sync_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, duration.DataPoints, 1)
	assert.Equal(t, uint64(1), duration.DataPoints[0].Count)
	assert.Equal(t, 90.0, duration.DataPoints[0].Sum)

	upserts, ok := got["birdsync_records_upserted_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := map[string]int64{}
	for _, dp := range upserts.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		byOutcome[outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"inserted": 2, "updated": 1}, byOutcome)

	notFound, ok := got["birdsync_species_not_found_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, notFound.DataPoints, 1)
	assert.Equal(t, int64(1), notFound.DataPoints[0].Value)

	retries, ok := got["birdsync_fetch_retries_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, retries.DataPoints, 1)
	host, _ := retries.DataPoints[0].Attributes.Value(attribute.Key("host"))
	assert.Equal(t, "biocache.ala.org.au", host.AsString())

	total, ok := got["birdsync_species_total"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1)
	assert.Equal(t, int64(4), total.DataPoints[0].Value)
}
