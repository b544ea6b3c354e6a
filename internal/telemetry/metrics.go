package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "github.com/jcu-ap03/birdsync/sync"

// SyncMetrics holds the instruments recorded by a sync run. A nil
// *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	syncDuration     metric.Float64Histogram
	recordsUpserted  metric.Int64Counter
	speciesNotFound  metric.Int64Counter
	fetchRetries     metric.Int64Counter
	speciesCatalogue metric.Int64Gauge
}

// NewSyncMetrics creates the sync instruments. A nil provider returns nil.
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"birdsync_sync_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600),
	)
	if err != nil {
		return nil, err
	}

	recordsUpserted, err := meter.Int64Counter(
		"birdsync_records_upserted_total",
		metric.WithDescription("Occurrence records written, by outcome"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	speciesNotFound, err := meter.Int64Counter(
		"birdsync_species_not_found_total",
		metric.WithDescription("Local species the provider could not resolve"),
		metric.WithUnit("{species}"),
	)
	if err != nil {
		return nil, err
	}

	fetchRetries, err := meter.Int64Counter(
		"birdsync_fetch_retries_total",
		metric.WithDescription("Provider requests retried after a transient failure"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	speciesCatalogue, err := meter.Int64Gauge(
		"birdsync_species_total",
		metric.WithDescription("Species in the local catalog after the species phase"),
		metric.WithUnit("{species}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:     syncDuration,
		recordsUpserted:  recordsUpserted,
		speciesNotFound:  speciesNotFound,
		fetchRetries:     fetchRetries,
		speciesCatalogue: speciesCatalogue,
	}, nil
}

// RecordSyncDuration records how long a run took
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, source string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("success", success),
	))
}

// RecordUpsert counts one written record. outcome is "inserted" or "updated".
func (m *SyncMetrics) RecordUpsert(ctx context.Context, source, outcome string) {
	if m == nil {
		return
	}
	m.recordsUpserted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

// RecordSpeciesNotFound counts a species the provider does not know
func (m *SyncMetrics) RecordSpeciesNotFound(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.speciesNotFound.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordFetchRetry counts one retried request to the provider host
func (m *SyncMetrics) RecordFetchRetry(ctx context.Context, host string) {
	if m == nil {
		return
	}
	m.fetchRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("host", host)))
}

// RecordSpeciesTotal records the size of the local catalog
func (m *SyncMetrics) RecordSpeciesTotal(ctx context.Context, source string, count int64) {
	if m == nil {
		return
	}
	m.speciesCatalogue.Record(ctx, count, metric.WithAttributes(attribute.String("source", source)))
}
