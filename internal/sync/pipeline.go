package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/otel"
	"github.com/jcu-ap03/birdsync/internal/sources"
	"github.com/jcu-ap03/birdsync/internal/status"
	"github.com/jcu-ap03/birdsync/internal/sync/writer"
)

const (
	// queueDepth bounds the completion channel shared by all workers
	queueDepth = 256

	progressInterval = 10 * time.Second
)

// SyncJob is the unit of work handed to a worker: fetch every record of one
// species, optionally only those loaded after Since.
//
//nolint:revive // sync.SyncJob reads fine at call sites
type SyncJob struct {
	SpeciesID      int64
	ScientificName string
	Since          *time.Time
}

// message travels from the workers to the consumer. done marks the single
// terminal message of a job; it carries the job's failure, if any.
type message struct {
	job      int
	record   domain.OccurrenceRecord
	done     bool
	notFound bool
	skipped  int
	err      error
}

// pipeline fans the jobs out to a bounded worker pool and funnels every
// record back into one consumer, which is the only caller of the writer.
type pipeline struct {
	strategy sources.Strategy
	lookup   sources.SpeciesLookup
	writer   writer.Writer
	width    int
	sourceID int64
	tracer   trace.Tracer

	setPhase func(status.Phase)
	onWrite  func(ctx context.Context, outcome writer.Outcome)
	notFound func(ctx context.Context)
}

// run processes jobs and fills report. It returns when every job has sent its
// sentinel, the context is cancelled, or a write fails. A write failure is
// fatal for the run and stops all workers. The returned count is the number of
// write attempts made.
func (p *pipeline) run(ctx context.Context, jobs []SyncJob, report *Report) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan message, queueDepth)

	var workers errgroup.Group
	workers.SetLimit(p.width)

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, job := range jobs {
			if ctx.Err() != nil {
				return
			}
			// Go blocks while the pool is full
			workers.Go(func() error {
				p.work(ctx, i, job, queue)
				return nil
			})
		}
		p.setPhase(status.PhaseDraining)
	}()

	attempts, err := p.consume(ctx, jobs, queue, report)

	cancel()
	<-dispatched
	_ = workers.Wait()

	return attempts, err
}

// consume drains the queue until every job has reported done. The queue may
// be momentarily empty while workers are still fetching, so termination is
// driven by the active job count only.
func (p *pipeline) consume(ctx context.Context, jobs []SyncJob, queue <-chan message, report *Report) (int, error) {
	active := len(jobs)
	attempts := 0
	written := 0
	lastProgress := time.Now()

	for active > 0 {
		var msg message
		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case msg = <-queue:
		}

		name := jobs[msg.job].ScientificName

		if msg.done {
			active--
			p.finishJob(ctx, name, msg, report)
			continue
		}

		sr := report.species(name)
		sr.Fetched++

		attempts++
		outcome, err := p.writer.Upsert(ctx, msg.record, p.sourceID, jobs[msg.job].SpeciesID)
		if err != nil {
			return attempts, fmt.Errorf("failed to write occurrence for %s: %w", name, err)
		}
		switch outcome {
		case writer.Updated:
			sr.Updated++
		default:
			sr.Inserted++
		}
		written++
		p.onWrite(ctx, outcome)

		if time.Since(lastProgress) >= progressInterval {
			slog.InfoContext(ctx, "Sync progress",
				"records_written", humanize.Comma(int64(written)),
				"jobs_remaining", active)
			lastProgress = time.Now()
		}
	}

	return attempts, nil
}

func (p *pipeline) finishJob(ctx context.Context, name string, msg message, report *Report) {
	if msg.skipped > 0 {
		report.species(name).Skipped += msg.skipped
	}

	switch {
	case msg.notFound:
		report.NotFound = append(report.NotFound, name)
		p.notFound(ctx)
		slog.WarnContext(ctx, "Species not found at provider, skipping", "species", name)
	case msg.err != nil:
		report.Failed[name] = msg.err.Error()
		slog.ErrorContext(ctx, "Species sync failed", "species", name, "error", msg.err)
	default:
		sr := report.species(name)
		if sr.Fetched == 0 {
			slog.WarnContext(ctx, "No records found for species", "species", name, "skipped", sr.Skipped)
		} else {
			slog.DebugContext(ctx, "Species sync completed",
				"species", name,
				"inserted", sr.Inserted,
				"updated", sr.Updated,
				"skipped", sr.Skipped)
		}
	}
}

// work runs one job. It always tries to send exactly one done message, and
// gives up on any send once ctx is cancelled.
func (p *pipeline) work(ctx context.Context, idx int, job SyncJob, queue chan<- message) {
	ctx, span := otel.StartSpan(ctx, p.tracer, "sync.fetchSpecies",
		otel.SpeciesAttributes(job.SpeciesID, job.ScientificName))
	defer span.End()

	var fetched int
	done := message{job: idx, done: true}
	defer func() {
		span.SetAttributes(otel.AttrResultCount.Int(fetched))
		otel.RecordError(span, done.err)
		select {
		case queue <- done:
		case <-ctx.Done():
		}
	}()

	remoteID, err := p.lookup.ResolveRemoteID(ctx, job.ScientificName)
	if err != nil {
		if errors.Is(err, domain.ErrSpeciesNotFound) {
			done.notFound = true
			return
		}
		done.err = fmt.Errorf("failed to resolve species: %w", err)
		return
	}

	stream, err := p.strategy.Stream(ctx, remoteID, job.Since)
	if err != nil {
		done.err = fmt.Errorf("failed to start record stream: %w", err)
		return
	}
	defer func() {
		if counter, ok := stream.(sources.SkipCounter); ok {
			done.skipped = counter.Skipped()
		}
		if cerr := stream.Close(); cerr != nil {
			slog.WarnContext(ctx, "Failed to close record stream", "species", job.ScientificName, "error", cerr)
		}
	}()

	for stream.Next() {
		rec := stream.Record()
		rec.SpeciesID = job.SpeciesID
		select {
		case queue <- message{job: idx, record: rec}:
			fetched++
		case <-ctx.Done():
			return
		}
	}
	if err := stream.Err(); err != nil {
		done.err = fmt.Errorf("record stream failed: %w", err)
	}
}
