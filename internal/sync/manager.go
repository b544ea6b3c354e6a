package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/otel"
	"github.com/jcu-ap03/birdsync/internal/sources"
	"github.com/jcu-ap03/birdsync/internal/status"
	"github.com/jcu-ap03/birdsync/internal/storage"
	"github.com/jcu-ap03/birdsync/internal/sync/writer"
	"github.com/jcu-ap03/birdsync/internal/telemetry"
)

// TracerName is the name used for the sync manager tracer
const TracerName = "github.com/jcu-ap03/birdsync/sync"

// DefaultWorkers is the worker pool width used when none is configured
const DefaultWorkers = 8

// ErrSyncInProgress is returned when PerformSync is called during a run
var ErrSyncInProgress = errors.New("sync already in progress")

// Manager runs sync operations for one source
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/jcu-ap03/birdsync/internal/sync Manager
type Manager interface {
	// PerformSync reconciles the species catalog and then pulls occurrence
	// records for every local species. Per-species failures are recorded in
	// the report; the returned error is set only when the run itself failed.
	PerformSync(ctx context.Context) (*Report, error)

	// Phase returns the current phase of the running sync
	Phase() status.Phase
}

// Phases toggles the parts of a run
type Phases struct {
	AddSpecies    bool
	DeleteSpecies bool
	Occurrences   bool
}

// AllPhases enables every phase
func AllPhases() Phases {
	return Phases{AddSpecies: true, DeleteSpecies: true, Occurrences: true}
}

// Option configures the manager
type Option func(*defaultManager)

// WithSourceName sets the provider name used for the watermark row
func WithSourceName(name string) Option {
	return func(m *defaultManager) {
		m.sourceName = name
	}
}

// WithWorkers sets the worker pool width
func WithWorkers(n int) Option {
	return func(m *defaultManager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithPhases selects which phases run
func WithPhases(p Phases) Option {
	return func(m *defaultManager) {
		m.phases = p
	}
}

// WithWriter replaces the repository-backed occurrence writer
func WithWriter(w writer.Writer) Option {
	return func(m *defaultManager) {
		m.writer = w
	}
}

// WithSyncMetrics sets the metrics recorded by each run
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultManager) {
		m.metrics = metrics
	}
}

// WithTracer sets the OpenTelemetry tracer.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultManager) {
		m.tracer = tracer
	}
}

// WithClock overrides the time source for the run start and watermark
func WithClock(now func() time.Time) Option {
	return func(m *defaultManager) {
		m.now = now
	}
}

type defaultManager struct {
	repo     storage.Repository
	strategy sources.Strategy
	lookup   sources.SpeciesLookup
	writer   writer.Writer

	sourceName string
	workers    int
	phases     Phases
	metrics    *telemetry.SyncMetrics
	tracer     trace.Tracer
	now        func() time.Time

	running atomic.Bool
	phase   atomic.Value
}

// NewManager creates a Manager over the given repository, record strategy and
// species lookup.
func NewManager(
	repo storage.Repository,
	strategy sources.Strategy,
	lookup sources.SpeciesLookup,
	opts ...Option,
) (Manager, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if strategy == nil {
		return nil, fmt.Errorf("record strategy is required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("species lookup is required")
	}

	m := &defaultManager{
		repo:       repo,
		strategy:   strategy,
		lookup:     lookup,
		sourceName: "ALA",
		workers:    DefaultWorkers,
		phases:     AllPhases(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.writer == nil {
		w, err := writer.NewOccurrenceWriter(repo)
		if err != nil {
			return nil, err
		}
		m.writer = w
	}

	m.phase.Store(status.PhaseIdle)
	return m, nil
}

func (m *defaultManager) Phase() status.Phase {
	return m.phase.Load().(status.Phase)
}

func (m *defaultManager) setPhase(p status.Phase) {
	if m.Phase() != p {
		slog.Debug("Sync phase changed", "phase", p)
	}
	m.phase.Store(p)
}

func (m *defaultManager) PerformSync(ctx context.Context) (report *Report, err error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer m.running.Store(false)
	defer m.setPhase(status.PhaseIdle)

	start := m.now().UTC()
	report = newReport(m.sourceName, m.strategy.Type(), start)

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.PerformSync",
		otel.SyncRunAttributes(m.sourceName, string(m.strategy.Type()), m.workers))
	defer span.End()

	defer func() {
		report.FinishedAt = m.now().UTC()
		m.metrics.RecordSyncDuration(ctx, m.sourceName, report.Duration(), err == nil)
		if err != nil {
			otel.RecordError(span, err)
		}
	}()

	slog.InfoContext(ctx, "Starting sync operation",
		"source", m.sourceName,
		"strategy", m.strategy.Type(),
		"workers", m.workers)

	if err := m.syncSpecies(ctx, report); err != nil {
		return report, err
	}

	if !m.phases.Occurrences {
		slog.InfoContext(ctx, "Occurrence sync disabled, skipping")
		return report, nil
	}

	if err := m.syncOccurrences(ctx, start, report); err != nil {
		return report, err
	}

	totals := report.Totals()
	slog.InfoContext(ctx, "Sync completed",
		"source", m.sourceName,
		"species_added", len(report.SpeciesAdded),
		"species_deleted", len(report.SpeciesDeleted),
		"inserted", totals.Inserted,
		"updated", totals.Updated,
		"not_found", len(report.NotFound),
		"failed", len(report.Failed))

	return report, nil
}

// syncSpecies applies the catalog diff according to the enabled phases
func (m *defaultManager) syncSpecies(ctx context.Context, report *Report) error {
	if !m.phases.AddSpecies && !m.phases.DeleteSpecies {
		slog.InfoContext(ctx, "Species sync disabled, skipping")
		return nil
	}

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.syncSpecies")
	defer span.End()

	local, err := m.repo.SelectAllSpecies(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to load local species: %w", err)
	}

	remote, err := m.lookup.ListRemoteSpecies(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to list remote species: %w", err)
	}

	localNames := make([]string, 0, len(local))
	localIDs := make(map[string]int64, len(local))
	for _, sp := range local {
		localNames = append(localNames, sp.ScientificName)
		localIDs[sp.ScientificName] = sp.ID
	}
	remoteNames := make([]string, 0, len(remote))
	commonNames := make(map[string]string, len(remote))
	for _, sp := range remote {
		remoteNames = append(remoteNames, sp.ScientificName)
		commonNames[sp.ScientificName] = sp.CommonName
	}

	added, deleted := DiffSpecies(localNames, remoteNames)
	slog.InfoContext(ctx, "Species catalog compared",
		"local", len(localNames),
		"remote", len(remoteNames),
		"added", len(added),
		"deleted", len(deleted))

	count := len(localNames)

	if m.phases.AddSpecies {
		for _, name := range added {
			if _, err := m.repo.InsertSpecies(ctx, name, commonNames[name]); err != nil {
				otel.RecordError(span, err)
				return fmt.Errorf("failed to add species %q: %w", name, err)
			}
			report.SpeciesAdded = append(report.SpeciesAdded, name)
			count++
			slog.InfoContext(ctx, "Species added", "species", name)
		}
	}

	if m.phases.DeleteSpecies {
		for _, name := range deleted {
			if err := m.repo.DeleteSpecies(ctx, localIDs[name]); err != nil {
				otel.RecordError(span, err)
				return fmt.Errorf("failed to delete species %q: %w", name, err)
			}
			report.SpeciesDeleted = append(report.SpeciesDeleted, name)
			count--
			slog.InfoContext(ctx, "Species deleted", "species", name)
		}
	}

	m.metrics.RecordSpeciesTotal(ctx, m.sourceName, int64(count))
	span.SetAttributes(otel.AttrResultCount.Int(count))
	return nil
}

// syncOccurrences runs the worker pipeline over every local species and
// advances the watermark when at least one write was attempted.
func (m *defaultManager) syncOccurrences(ctx context.Context, start time.Time, report *Report) error {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.syncOccurrences")
	defer span.End()

	source, err := m.source(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}

	species, err := m.repo.SelectAllSpecies(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to load local species: %w", err)
	}

	jobs := make([]SyncJob, 0, len(species))
	for _, sp := range species {
		jobs = append(jobs, SyncJob{
			SpeciesID:      sp.ID,
			ScientificName: sp.ScientificName,
			Since:          source.LastImportTime,
		})
	}

	if source.LastImportTime != nil {
		slog.InfoContext(ctx, "Incremental occurrence sync", "since", source.LastImportTime.Format(time.RFC3339))
	}

	m.setPhase(status.PhaseDispatching)
	p := &pipeline{
		strategy: m.strategy,
		lookup:   m.lookup,
		writer:   m.writer,
		width:    m.workers,
		sourceID: source.ID,
		tracer:   m.tracer,
		setPhase: m.setPhase,
		onWrite: func(ctx context.Context, outcome writer.Outcome) {
			m.metrics.RecordUpsert(ctx, m.sourceName, outcome.String())
		},
		notFound: func(ctx context.Context) {
			m.metrics.RecordSpeciesNotFound(ctx, m.sourceName)
		},
	}

	attempts, err := p.run(ctx, jobs, report)
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("occurrence sync aborted: %w", err)
	}

	m.setPhase(status.PhaseFinalizing)
	if attempts == 0 {
		slog.InfoContext(ctx, "No occurrences written, watermark unchanged", "source", m.sourceName)
		return nil
	}

	if err := m.repo.SetSourceWatermark(ctx, source.ID, start); err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to advance watermark: %w", err)
	}
	report.WatermarkAdvanced = true
	slog.InfoContext(ctx, "Watermark advanced", "source", m.sourceName, "watermark", start.Format(time.RFC3339))

	return nil
}

// source returns the provider row, creating it on first use
func (m *defaultManager) source(ctx context.Context) (*domain.Source, error) {
	src, err := m.repo.GetSource(ctx, m.sourceName)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get source %q: %w", m.sourceName, err)
	}

	slog.InfoContext(ctx, "Registering source", "source", m.sourceName)
	src, err = m.repo.InsertSource(ctx, m.sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create source %q: %w", m.sourceName, err)
	}
	return src, nil
}
