// Package domain contains the core types shared by the sync engine, the record
// sources and the storage backends.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rating is the quality rating attached to a stored occurrence.
type Rating string

const (
	// RatingGood marks an occurrence that is assumed valid
	RatingGood Rating = "good"

	// RatingSuspect marks an occurrence that needs review
	RatingSuspect Rating = "suspect"

	// RatingBad marks an occurrence known to be wrong
	RatingBad Rating = "bad"
)

// DefaultRating is applied to every newly imported occurrence.
const DefaultRating = RatingGood

// ParseRating converts a string into a Rating.
func ParseRating(s string) (Rating, error) {
	switch r := Rating(s); r {
	case RatingGood, RatingSuspect, RatingBad:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rating: %q", s)
	}
}

// Species is a row of the local species catalog.
type Species struct {
	ID             int64  `json:"id"`
	ScientificName string `json:"scientificName"`
	CommonName     string `json:"commonName,omitempty"`
}

// RemoteSpecies is a species as listed by the provider catalog.
type RemoteSpecies struct {
	ScientificName string `json:"scientificName"`
	CommonName     string `json:"commonName,omitempty"`
	RemoteID       string `json:"remoteId,omitempty"`
}

// OccurrenceRecord is a single observation streamed from the provider.
// RemoteID is empty for strategies that carry no record-level identifier.
type OccurrenceRecord struct {
	Latitude  float64
	Longitude float64
	RemoteID  string
	SpeciesID int64
}

// HasRemoteID reports whether the record can be de-duplicated.
func (r OccurrenceRecord) HasRemoteID() bool {
	_, ok := RecordKey(r.RemoteID)
	return ok
}

// Occurrence is the stored form of an OccurrenceRecord.
type Occurrence struct {
	ID        int64
	Latitude  float64
	Longitude float64
	Rating    Rating
	SpeciesID int64
	SourceID  int64
	// RecordKey is nil for append-only records.
	RecordKey *uuid.UUID
}

// Source is an external provider together with its sync watermark.
type Source struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	LastImportTime *time.Time `json:"lastImportTime,omitempty"`
}

// StrategyType selects how occurrence records are pulled from the provider.
type StrategyType string

const (
	// StrategySearch pages through the occurrence search endpoint
	StrategySearch StrategyType = "search"

	// StrategyDownload fetches a zipped CSV export
	StrategyDownload StrategyType = "download"

	// StrategyFacet expands a lat/long facet count table
	StrategyFacet StrategyType = "facet"
)

// StrategyTypes lists every supported strategy.
func StrategyTypes() []StrategyType {
	return []StrategyType{StrategySearch, StrategyDownload, StrategyFacet}
}

// ParseStrategyType converts a tag into a StrategyType. Unknown tags fail with
// a ConfigurationError.
func ParseStrategyType(s string) (StrategyType, error) {
	switch t := StrategyType(s); t {
	case StrategySearch, StrategyDownload, StrategyFacet:
		return t, nil
	default:
		return "", NewConfigurationError("sync.strategy", "invalid strategy: %q", s)
	}
}
