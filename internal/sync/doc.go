// Package sync reconciles the local species catalog and occurrence records
// with a remote biodiversity provider.
//
// A run has two parts. The species phase diffs local and remote scientific
// names (DiffSpecies) and applies the additions and deletions that are
// enabled. The occurrence phase builds one SyncJob per local species and runs
// them through a bounded worker pool:
//
//	jobs ──▶ workers (width N) ──▶ completion channel ──▶ consumer ──▶ writer
//
// Each worker resolves the species' provider identifier, streams its records
// and sends them on the shared channel, followed by exactly one done message.
// The consumer counts done messages down to zero and is the only goroutine
// that writes to the repository, which keeps the read-then-write upsert in
// package writer free of races.
//
// Phases are reported through Manager.Phase:
//
//	Idle → Dispatching → Draining → Finalizing → Idle
//
// A species that is unknown to the provider, or whose stream fails, is
// recorded in the Report and does not affect other jobs. A repository write
// failure aborts the run. The source watermark is advanced to the run start
// time only when at least one write was attempted.
//
// The coordinator subpackage runs the manager on a schedule.
package sync
