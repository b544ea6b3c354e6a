package status

import "time"

// Phase is the stage of a running sync. A manager cycles
// Idle → Dispatching → Draining → Finalizing → Idle.
type Phase string

const (
	// PhaseIdle means no run is in progress
	PhaseIdle Phase = "Idle"

	// PhaseDispatching means species jobs are still being handed to workers
	PhaseDispatching Phase = "Dispatching"

	// PhaseDraining means every job is dispatched and records are still arriving
	PhaseDraining Phase = "Draining"

	// PhaseFinalizing means the watermark and report are being written
	PhaseFinalizing Phase = "Finalizing"
)

// SyncPhase represents the outcome of the latest scheduled run
type SyncPhase string

const (
	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means sync completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means sync failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the scheduling state of a source
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of sync attempts since last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful sync
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// SpeciesCount is the number of species processed by the last successful sync
	SpeciesCount int `json:"speciesCount,omitempty"`

	// RecordCount is the number of occurrences written by the last successful sync
	RecordCount int `json:"recordCount,omitempty"`

	// SyncSchedule is the sync interval from configuration (e.g., "24h")
	SyncSchedule string `json:"syncSchedule,omitempty"`
}
