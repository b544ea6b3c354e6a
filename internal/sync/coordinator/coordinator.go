package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/jcu-ap03/birdsync/internal/config"
	"github.com/jcu-ap03/birdsync/internal/status"
	pkgsync "github.com/jcu-ap03/birdsync/internal/sync"
)

// maxJitter caps the random offset applied to the sync interval
const maxJitter = 30 * time.Second

// Coordinator schedules periodic sync runs for one source
//
//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks github.com/jcu-ap03/birdsync/internal/sync/coordinator Coordinator
type Coordinator interface {
	// Start begins background sync coordination.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator, waiting for a running sync to
	// observe cancellation.
	Stop() error

	// Status returns a snapshot of the scheduling state and the last report
	Status() Snapshot
}

// Snapshot is the coordinator state exposed to the status server
type Snapshot struct {
	Source     string            `json:"source"`
	Phase      status.Phase      `json:"phase"`
	Sync       status.SyncStatus `json:"sync"`
	LastReport *pkgsync.Report   `json:"lastReport,omitempty"`
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithStatusPersistence stores the scheduling status across restarts
func WithStatusPersistence(p status.StatusPersistence) Option {
	return func(c *defaultCoordinator) {
		c.persistence = p
	}
}

// WithInterval overrides the configured interval
func WithInterval(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.interval = d
	}
}

// WithInitialDelay overrides the configured initial delay
func WithInitialDelay(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.initialDelay = d
	}
}

type defaultCoordinator struct {
	manager      pkgsync.Manager
	persistence  status.StatusPersistence
	sourceName   string
	interval     time.Duration
	initialDelay time.Duration
	now          func() time.Time

	// Lifecycle management
	started    atomic.Bool
	cancelFunc context.CancelFunc
	done       chan struct{}

	mu         gosync.RWMutex
	syncStatus status.SyncStatus
	lastReport *pkgsync.Report
}

// New creates a coordinator for manager, scheduled from cfg
func New(manager pkgsync.Manager, cfg *config.Config, opts ...Option) (Coordinator, error) {
	if manager == nil {
		return nil, fmt.Errorf("sync manager is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	interval, err := cfg.Sync.GetInterval()
	if err != nil {
		return nil, err
	}
	initialDelay, err := cfg.Sync.GetInitialDelay()
	if err != nil {
		return nil, err
	}

	c := &defaultCoordinator{
		manager:      manager,
		sourceName:   cfg.Source.GetName(),
		interval:     interval,
		initialDelay: initialDelay,
		now:          time.Now,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.interval <= 0 {
		return nil, fmt.Errorf("sync interval must be > 0, got %s", c.interval)
	}
	c.syncStatus.SyncSchedule = c.interval.String()

	return c, nil
}

// nextInterval returns the interval with a random jitter of up to a tenth of
// it, capped at maxJitter, in either direction.
func (c *defaultCoordinator) nextInterval() time.Duration {
	jitter := min(c.interval/10, maxJitter)
	if jitter <= 0 {
		return c.interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for scheduling jitter
	offset := time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	return c.interval + offset
}

// Start begins background sync coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("coordinator already started")
	}

	slog.Info("Starting background sync coordinator",
		"source", c.sourceName,
		"interval", c.interval,
		"initial_delay", c.initialDelay)

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	c.loadStatus(coordCtx)

	if c.initialDelay > 0 {
		timer := time.NewTimer(c.initialDelay)
		select {
		case <-timer.C:
		case <-coordCtx.Done():
			timer.Stop()
			return nil
		}
	}

	c.runSync(coordCtx)

	ticker := time.NewTicker(c.nextInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runSync(coordCtx)
			ticker.Reset(c.nextInterval())
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.RLock()
	cancel := c.cancelFunc
	c.mu.RUnlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// Status returns a copy of the current state
func (c *defaultCoordinator) Status() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Source:     c.sourceName,
		Phase:      c.manager.Phase(),
		Sync:       c.syncStatus,
		LastReport: c.lastReport.Clone(),
	}
	snap.Sync.LastAttempt = copyTime(c.syncStatus.LastAttempt)
	snap.Sync.LastSyncTime = copyTime(c.syncStatus.LastSyncTime)
	return snap
}

// loadStatus restores the persisted status. A run that was still marked as
// syncing did not finish and is recorded as failed.
func (c *defaultCoordinator) loadStatus(ctx context.Context) {
	if c.persistence == nil {
		return
	}

	loaded, err := c.persistence.LoadStatus(ctx, c.sourceName)
	if err != nil {
		slog.Warn("Failed to load sync status, starting fresh", "source", c.sourceName, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	schedule := c.syncStatus.SyncSchedule
	c.syncStatus = *loaded
	c.syncStatus.SyncSchedule = schedule
	if c.syncStatus.Phase == status.SyncPhaseSyncing {
		c.syncStatus.Phase = status.SyncPhaseFailed
		c.syncStatus.Message = "Previous sync was interrupted"
		slog.Warn("Previous sync was interrupted", "source", c.sourceName)
	}
}

// runSync executes one sync and records its outcome
func (c *defaultCoordinator) runSync(ctx context.Context) {
	// the final status is saved even when ctx is cancelled mid-run
	saveCtx := context.WithoutCancel(ctx)

	c.mu.Lock()
	previous := c.syncStatus
	now := c.now()
	c.syncStatus.Phase = status.SyncPhaseSyncing
	c.syncStatus.Message = "Sync in progress"
	c.syncStatus.LastAttempt = &now
	c.syncStatus.AttemptCount++
	attempt := c.syncStatus.AttemptCount
	c.mu.Unlock()
	c.persist(saveCtx)

	slog.Info("Starting scheduled sync", "source", c.sourceName, "attempt", attempt)

	report, err := c.manager.PerformSync(ctx)

	c.mu.Lock()
	switch {
	case errors.Is(err, pkgsync.ErrSyncInProgress):
		c.syncStatus = previous
		c.syncStatus.Message = "Sync skipped: a run is already in progress"
		slog.Info("Sync skipped, a run is already in progress", "source", c.sourceName)
	case err != nil:
		c.syncStatus.Phase = status.SyncPhaseFailed
		c.syncStatus.Message = err.Error()
		if report != nil {
			c.lastReport = report
		}
		slog.Error("Scheduled sync failed", "source", c.sourceName, "attempt", attempt, "error", err)
	default:
		finished := report.FinishedAt
		totals := report.Totals()
		c.syncStatus.Phase = status.SyncPhaseComplete
		c.syncStatus.Message = "Sync completed successfully"
		c.syncStatus.LastSyncTime = &finished
		c.syncStatus.AttemptCount = 0
		c.syncStatus.SpeciesCount = len(report.Species)
		c.syncStatus.RecordCount = totals.Upserted()
		c.lastReport = report
		slog.Info("Scheduled sync completed",
			"source", c.sourceName,
			"species", len(report.Species),
			"records", totals.Upserted(),
			"duration", report.Duration())
	}
	c.mu.Unlock()

	c.persist(saveCtx)
}

func (c *defaultCoordinator) persist(ctx context.Context) {
	if c.persistence == nil {
		return
	}

	c.mu.RLock()
	snapshot := c.syncStatus
	c.mu.RUnlock()

	if err := c.persistence.SaveStatus(ctx, c.sourceName, &snapshot); err != nil {
		slog.Warn("Failed to persist sync status", "source", c.sourceName, "error", err)
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
