package app

import (
	"github.com/jcu-ap03/birdsync/internal/httpclient"
	"github.com/jcu-ap03/birdsync/internal/sources"
	"github.com/jcu-ap03/birdsync/internal/storage"
	pkgsync "github.com/jcu-ap03/birdsync/internal/sync"
	"github.com/jcu-ap03/birdsync/internal/sync/coordinator"
	"github.com/jcu-ap03/birdsync/internal/telemetry"
)

// Components groups everything a sync run needs
type Components struct {
	// Repository persists species, occurrences and sources
	Repository storage.Repository

	// Client talks to the provider
	Client httpclient.Client

	// Strategy streams occurrence records for one species
	Strategy sources.Strategy

	// Species resolves names and lists the remote catalog
	Species sources.SpeciesLookup

	// Manager runs a single sync
	Manager pkgsync.Manager

	// Metrics is nil when no meter provider is configured
	Metrics *telemetry.SyncMetrics

	// Coordinator schedules runs. Only set by NewSyncApp.
	Coordinator coordinator.Coordinator
}

// Close releases the repository
func (c *Components) Close() error {
	if c.Repository == nil {
		return nil
	}
	return c.Repository.Close()
}
