// Package coordinator schedules background sync runs for the serve command.
//
// It sits on top of sync.Manager and handles:
//
//   - an optional initial delay before the first run
//   - periodic runs on sync.interval with a small random jitter
//   - scheduling status (attempt count, last success, last report)
//   - status persistence across restarts
//   - graceful shutdown
//
// # Usage Example
//
//	manager, err := sync.NewManager(repo, strategy, lookup, sync.OptionsFromConfig(cfg)...)
//	...
//	coord, err := coordinator.New(manager, cfg,
//	    coordinator.WithStatusPersistence(status.NewFileStatusPersistence(dir)))
//	...
//	go coord.Start(ctx)
//
//	// ... run server ...
//
//	coord.Stop()
//
// # Overlapping Runs
//
// Runs are executed on the ticker goroutine, so a slow run delays the next
// tick instead of overlapping with it. A run started elsewhere on the same
// manager makes PerformSync return sync.ErrSyncInProgress; the coordinator
// then keeps its previous status and waits for the next tick.
//
// # Status Persistence
//
// When a StatusPersistence is configured the status is saved when a run
// starts and again when it ends. A status still marked Syncing on startup
// belongs to a run that never finished and is reported as Failed.
package coordinator
