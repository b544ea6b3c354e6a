package sync

import (
	"slices"
	"time"

	"github.com/jcu-ap03/birdsync/internal/domain"
)

// SpeciesReport counts the records handled for one species
type SpeciesReport struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`

	// Skipped counts provider records dropped by the stream
	Skipped int `json:"skipped,omitempty"`
}

// Upserted returns the number of records written
func (s SpeciesReport) Upserted() int {
	return s.Inserted + s.Updated
}

// Report describes a single sync run
type Report struct {
	Source   string              `json:"source"`
	Strategy domain.StrategyType `json:"strategy"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	SpeciesAdded   []string `json:"speciesAdded"`
	SpeciesDeleted []string `json:"speciesDeleted"`

	// Species is keyed by scientific name
	Species map[string]*SpeciesReport `json:"species"`

	// NotFound lists local species the provider could not resolve
	NotFound []string `json:"notFound"`

	// Failed maps a scientific name to the error that ended its job
	Failed map[string]string `json:"failed"`

	WatermarkAdvanced bool `json:"watermarkAdvanced"`
}

func newReport(source string, strategy domain.StrategyType, start time.Time) *Report {
	return &Report{
		Source:         source,
		Strategy:       strategy,
		StartedAt:      start,
		SpeciesAdded:   []string{},
		SpeciesDeleted: []string{},
		Species:        make(map[string]*SpeciesReport),
		NotFound:       []string{},
		Failed:         make(map[string]string),
	}
}

func (r *Report) species(name string) *SpeciesReport {
	sr, ok := r.Species[name]
	if !ok {
		sr = &SpeciesReport{}
		r.Species[name] = sr
	}
	return sr
}

// Totals sums the per-species counters
func (r *Report) Totals() SpeciesReport {
	var total SpeciesReport
	for _, sr := range r.Species {
		total.Fetched += sr.Fetched
		total.Inserted += sr.Inserted
		total.Updated += sr.Updated
		total.Skipped += sr.Skipped
	}
	return total
}

// SpeciesNames returns the reported species in alphabetical order
func (r *Report) SpeciesNames() []string {
	names := make([]string, 0, len(r.Species))
	for name := range r.Species {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Clone returns a deep copy safe to hand to other goroutines
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := *r
	out.SpeciesAdded = slices.Clone(r.SpeciesAdded)
	out.SpeciesDeleted = slices.Clone(r.SpeciesDeleted)
	out.NotFound = slices.Clone(r.NotFound)
	out.Species = make(map[string]*SpeciesReport, len(r.Species))
	for name, sr := range r.Species {
		c := *sr
		out.Species[name] = &c
	}
	out.Failed = make(map[string]string, len(r.Failed))
	for name, msg := range r.Failed {
		out.Failed[name] = msg
	}
	return &out
}
