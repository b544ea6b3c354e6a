// Package memory provides an in-process repository backed by maps. It is used
// by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcu-ap03/birdsync/internal/domain"
)

type occurrenceKey struct {
	sourceID  int64
	recordKey uuid.UUID
}

// Store is a mutex-guarded in-memory repository
type Store struct {
	mu sync.RWMutex

	nextID      int64
	species     map[int64]domain.Species
	sources     map[int64]domain.Source
	occurrences map[int64]domain.Occurrence
	keyed       map[occurrenceKey]int64
}

// New creates an empty store
func New() *Store {
	return &Store{
		species:     make(map[int64]domain.Species),
		sources:     make(map[int64]domain.Source),
		occurrences: make(map[int64]domain.Occurrence),
		keyed:       make(map[occurrenceKey]int64),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// SelectAllSpecies returns the catalog ordered by scientific name
func (s *Store) SelectAllSpecies(_ context.Context) ([]domain.Species, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Species, 0, len(s.species))
	for _, sp := range s.species {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScientificName < out[j].ScientificName
	})
	return out, nil
}

// InsertSpecies adds a species. Scientific names are unique.
func (s *Store) InsertSpecies(_ context.Context, scientificName, commonName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range s.species {
		if sp.ScientificName == scientificName {
			return 0, fmt.Errorf("species %q already exists", scientificName)
		}
	}

	id := s.id()
	s.species[id] = domain.Species{ID: id, ScientificName: scientificName, CommonName: commonName}
	return id, nil
}

// DeleteSpecies removes a species and its occurrences
func (s *Store) DeleteSpecies(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.species[id]; !ok {
		return fmt.Errorf("species %d: %w", id, domain.ErrNotFound)
	}
	delete(s.species, id)

	for occID, occ := range s.occurrences {
		if occ.SpeciesID == id {
			s.removeOccurrence(occID, occ)
		}
	}
	return nil
}

func (s *Store) removeOccurrence(id int64, occ domain.Occurrence) {
	delete(s.occurrences, id)
	if occ.RecordKey != nil {
		delete(s.keyed, occurrenceKey{sourceID: occ.SourceID, recordKey: *occ.RecordKey})
	}
}

// CountOccurrences counts occurrences with the given source and record key
func (s *Store) CountOccurrences(_ context.Context, sourceID int64, recordKey uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.keyed[occurrenceKey{sourceID: sourceID, recordKey: recordKey}]; ok {
		return 1, nil
	}
	return 0, nil
}

// InsertOccurrence stores a new occurrence. A record key already present for
// the source is rejected.
func (s *Store) InsertOccurrence(_ context.Context, occ domain.Occurrence) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.species[occ.SpeciesID]; !ok {
		return 0, fmt.Errorf("species %d: %w", occ.SpeciesID, domain.ErrNotFound)
	}
	if _, ok := s.sources[occ.SourceID]; !ok {
		return 0, fmt.Errorf("source %d: %w", occ.SourceID, domain.ErrNotFound)
	}

	if occ.RecordKey != nil {
		key := occurrenceKey{sourceID: occ.SourceID, recordKey: *occ.RecordKey}
		if _, dup := s.keyed[key]; dup {
			return 0, fmt.Errorf("occurrence %s already exists for source %d", occ.RecordKey, occ.SourceID)
		}
		recordKey := *occ.RecordKey
		occ.RecordKey = &recordKey
		occ.ID = s.id()
		s.keyed[key] = occ.ID
	} else {
		occ.ID = s.id()
	}

	if occ.Rating == "" {
		occ.Rating = domain.DefaultRating
	}
	s.occurrences[occ.ID] = occ
	return occ.ID, nil
}

// UpdateOccurrence overwrites the matching occurrence
func (s *Store) UpdateOccurrence(_ context.Context, occ domain.Occurrence) error {
	if occ.RecordKey == nil {
		return fmt.Errorf("cannot update an occurrence without a record key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.keyed[occurrenceKey{sourceID: occ.SourceID, recordKey: *occ.RecordKey}]
	if !ok {
		return fmt.Errorf("occurrence %s: %w", occ.RecordKey, domain.ErrNotFound)
	}

	stored := s.occurrences[id]
	stored.Latitude = occ.Latitude
	stored.Longitude = occ.Longitude
	stored.Rating = occ.Rating
	stored.SpeciesID = occ.SpeciesID
	s.occurrences[id] = stored
	return nil
}

// Occurrences returns a copy of every stored occurrence ordered by id
func (s *Store) Occurrences() []domain.Occurrence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Occurrence, 0, len(s.occurrences))
	for _, occ := range s.occurrences {
		if occ.RecordKey != nil {
			key := *occ.RecordKey
			occ.RecordKey = &key
		}
		out = append(out, occ)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// GetSource returns the named source
func (s *Store) GetSource(_ context.Context, name string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, src := range s.sources {
		if src.Name == name {
			return copySource(src), nil
		}
	}
	return nil, fmt.Errorf("source %q: %w", name, domain.ErrNotFound)
}

// InsertSource creates a source
func (s *Store) InsertSource(_ context.Context, name string) (*domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range s.sources {
		if src.Name == name {
			return nil, fmt.Errorf("source %q already exists", name)
		}
	}

	src := domain.Source{ID: s.id(), Name: name}
	s.sources[src.ID] = src
	return copySource(src), nil
}

// SetSourceWatermark records the last successful sync time
func (s *Store) SetSourceWatermark(_ context.Context, sourceID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[sourceID]
	if !ok {
		return fmt.Errorf("source %d: %w", sourceID, domain.ErrNotFound)
	}
	at = at.UTC()
	src.LastImportTime = &at
	s.sources[sourceID] = src
	return nil
}

// Wipe deletes everything
func (s *Store) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.species)
	clear(s.sources)
	clear(s.occurrences)
	clear(s.keyed)
	return nil
}

// Ping always succeeds
func (*Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op
func (*Store) Close() error {
	return nil
}

func copySource(src domain.Source) *domain.Source {
	out := src
	if src.LastImportTime != nil {
		t := *src.LastImportTime
		out.LastImportTime = &t
	}
	return &out
}
