package sources

import (
	"context"
	"time"

	"github.com/jcu-ap03/birdsync/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_sources.go -package=mocks -source=types.go Strategy,RecordStream,SpeciesLookup

// Strategy turns one species identifier into a stream of occurrence records.
type Strategy interface {
	// Type returns the strategy tag
	Type() domain.StrategyType

	// Stream starts fetching records for the species identified by remoteID.
	// When since is set only records loaded after it are requested.
	Stream(ctx context.Context, remoteID string, since *time.Time) (RecordStream, error)
}

// RecordStream is a pull iterator over occurrence records. It is finite and
// cannot be restarted. Callers must Close it.
//
//	for stream.Next() {
//		rec := stream.Record()
//	}
//	if err := stream.Err(); err != nil { ... }
type RecordStream interface {
	// Next advances to the next record, returning false at the end or on error
	Next() bool

	// Record returns the current record
	Record() domain.OccurrenceRecord

	// Err returns the error that stopped the stream, if any
	Err() error

	// Close releases network and temporary storage resources
	Close() error
}

// SkipCounter is implemented by streams that drop provider records they
// cannot use, such as occurrences without coordinates.
type SkipCounter interface {
	// Skipped returns the number of records dropped so far
	Skipped() int
}

// SpeciesLookup resolves species between local names and provider identifiers.
type SpeciesLookup interface {
	// ResolveRemoteID returns the provider identifier for a scientific name, or
	// domain.ErrSpeciesNotFound.
	ResolveRemoteID(ctx context.Context, scientificName string) (string, error)

	// ScientificName returns the current scientific name for a provider
	// identifier, or domain.ErrSpeciesNotFound.
	ScientificName(ctx context.Context, remoteID string) (string, error)

	// ListRemoteSpecies returns the provider's species catalog.
	ListRemoteSpecies(ctx context.Context) ([]domain.RemoteSpecies, error)
}
