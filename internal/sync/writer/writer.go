// Package writer persists occurrence records, updating rows already known by
// their record key and appending everything else.
package writer

import (
	"context"
	"fmt"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/storage"
)

//go:generate mockgen -destination=mocks/mock_writer.go -package=mocks -source=writer.go Writer

// Outcome reports what an upsert did.
type Outcome int

const (
	// Inserted means a new occurrence row was created
	Inserted Outcome = iota

	// Updated means an existing row was overwritten
	Updated
)

// String returns the lower-case outcome name, also used as a metric attribute.
func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Writer persists a single occurrence record.
type Writer interface {
	// Upsert stores record for the given source and species.
	Upsert(ctx context.Context, record domain.OccurrenceRecord, sourceID, speciesID int64) (Outcome, error)
}

// OccurrenceWriter is the repository-backed Writer. It is not safe for
// concurrent use; the sync pipeline funnels every write through one goroutine.
type OccurrenceWriter struct {
	repo storage.Repository
}

// NewOccurrenceWriter creates a writer on top of repo.
func NewOccurrenceWriter(repo storage.Repository) (*OccurrenceWriter, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &OccurrenceWriter{repo: repo}, nil
}

// Upsert updates the occurrence stored under the record's key, or inserts a
// new one with the default rating. Records without a remote id are always
// inserted.
func (w *OccurrenceWriter) Upsert(
	ctx context.Context,
	record domain.OccurrenceRecord,
	sourceID, speciesID int64,
) (Outcome, error) {
	occ := domain.Occurrence{
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		Rating:    domain.DefaultRating,
		SpeciesID: speciesID,
		SourceID:  sourceID,
	}

	key, ok := domain.RecordKey(record.RemoteID)
	if !ok {
		if _, err := w.repo.InsertOccurrence(ctx, occ); err != nil {
			return Inserted, fmt.Errorf("failed to insert occurrence: %w", err)
		}
		return Inserted, nil
	}
	occ.RecordKey = &key

	count, err := w.repo.CountOccurrences(ctx, sourceID, key)
	if err != nil {
		return Inserted, fmt.Errorf("failed to look up occurrence %s: %w", record.RemoteID, err)
	}

	if count > 0 {
		if err := w.repo.UpdateOccurrence(ctx, occ); err != nil {
			return Updated, fmt.Errorf("failed to update occurrence %s: %w", record.RemoteID, err)
		}
		return Updated, nil
	}

	if _, err := w.repo.InsertOccurrence(ctx, occ); err != nil {
		return Inserted, fmt.Errorf("failed to insert occurrence %s: %w", record.RemoteID, err)
	}
	return Inserted, nil
}
