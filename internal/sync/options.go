package sync

import "github.com/jcu-ap03/birdsync/internal/config"

// OptionsFromConfig maps the configuration onto manager options
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithSourceName(cfg.Source.GetName()),
		WithWorkers(cfg.Sync.GetWorkers()),
		WithPhases(Phases{
			AddSpecies:    cfg.Sync.Phases.AddSpeciesEnabled(),
			DeleteSpecies: cfg.Sync.Phases.DeleteSpeciesEnabled(),
			Occurrences:   cfg.Sync.Phases.OccurrencesEnabled(),
		}),
	}
}
