// Package otel holds the span helpers shared by the sync manager and the
// database store.
package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on sync and storage spans.
const (
	AttrSourceName  = attribute.Key("source.name")
	AttrSpeciesName = attribute.Key("species.name")
	AttrSpeciesID   = attribute.Key("species.id")
	AttrStrategy    = attribute.Key("sync.strategy")
	AttrWorkers     = attribute.Key("sync.workers")
	AttrResultCount = attribute.Key("result.count")
)

// EventCancelled is added to a span whose operation stopped on context cancellation.
const EventCancelled = "cancelled"

// SyncRunAttributes describes one sync run.
func SyncRunAttributes(source, strategy string, workers int) trace.SpanStartOption {
	return trace.WithAttributes(
		AttrSourceName.String(source),
		AttrStrategy.String(strategy),
		AttrWorkers.Int(workers),
	)
}

// SpeciesAttributes describes a single local species.
func SpeciesAttributes(id int64, scientificName string) trace.SpanStartOption {
	return trace.WithAttributes(
		AttrSpeciesID.Int64(id),
		AttrSpeciesName.String(scientificName),
	)
}

// StartSpan starts a span on tracer. With a nil tracer the span already in ctx
// (usually a no-op) is returned.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed with a generic status description; the
// error itself goes into the exception event. A cancelled context only adds
// EventCancelled and leaves the status unset.
func RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		span.AddEvent(EventCancelled)
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "operation failed")
}
