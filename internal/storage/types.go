// Package storage defines the repository the sync engine persists species,
// occurrences and sources through, together with a factory that builds the
// configured backend.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jcu-ap03/birdsync/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=types.go Repository

// Repository owns all persisted species, occurrence and source state.
//
// Implementations are safe for concurrent use, but the sync engine issues
// every write from a single goroutine. The read-then-write upsert relies on
// that.
type Repository interface {
	// SelectAllSpecies returns the local catalog ordered by scientific name
	SelectAllSpecies(ctx context.Context) ([]domain.Species, error)

	// InsertSpecies adds a species and returns its id
	InsertSpecies(ctx context.Context, scientificName, commonName string) (int64, error)

	// DeleteSpecies removes a species and its occurrences. Missing ids fail
	// with domain.ErrNotFound.
	DeleteSpecies(ctx context.Context, id int64) error

	// CountOccurrences counts occurrences with the given source and record key
	CountOccurrences(ctx context.Context, sourceID int64, recordKey uuid.UUID) (int64, error)

	// InsertOccurrence stores a new occurrence and returns its id
	InsertOccurrence(ctx context.Context, occ domain.Occurrence) (int64, error)

	// UpdateOccurrence overwrites coordinates, rating and species of the
	// occurrence matching occ.SourceID and occ.RecordKey
	UpdateOccurrence(ctx context.Context, occ domain.Occurrence) error

	// GetSource returns the named source or domain.ErrNotFound
	GetSource(ctx context.Context, name string) (*domain.Source, error)

	// InsertSource creates a source with no watermark
	InsertSource(ctx context.Context, name string) (*domain.Source, error)

	// SetSourceWatermark records the start time of the last successful sync
	SetSourceWatermark(ctx context.Context, sourceID int64, at time.Time) error

	// Wipe deletes every occurrence, species and source
	Wipe(ctx context.Context) error

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend's resources
	Close() error
}
