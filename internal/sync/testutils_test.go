package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/sources"
)

// fakeProvider serves both the species lookup and the record strategy
type fakeProvider struct {
	remoteIDs  map[string]string
	records    map[string][]domain.OccurrenceRecord
	streamErr  map[string]error
	skipped    map[string]int
	catalog    []domain.RemoteSpecies
	catalogErr error

	// started receives the remote id of every stream that begins; release
	// must be closed before such a stream yields records
	started chan string
	release chan struct{}

	mu          gosync.Mutex
	since       map[string]*time.Time
	catalogHits int
}

var (
	_ sources.Strategy      = (*fakeProvider)(nil)
	_ sources.SpeciesLookup = (*fakeProvider)(nil)
)

func (*fakeProvider) Type() domain.StrategyType {
	return domain.StrategySearch
}

func (f *fakeProvider) Stream(ctx context.Context, remoteID string, since *time.Time) (sources.RecordStream, error) {
	f.mu.Lock()
	if f.since == nil {
		f.since = make(map[string]*time.Time)
	}
	f.since[remoteID] = since
	f.mu.Unlock()

	if f.started != nil {
		f.started <- remoteID
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &sliceStream{records: f.records[remoteID], err: f.streamErr[remoteID], skipped: f.skipped[remoteID]}, nil
}

func (f *fakeProvider) ResolveRemoteID(_ context.Context, scientificName string) (string, error) {
	id, ok := f.remoteIDs[scientificName]
	if !ok {
		return "", fmt.Errorf("species %q: %w", scientificName, domain.ErrSpeciesNotFound)
	}
	return id, nil
}

func (f *fakeProvider) ScientificName(_ context.Context, remoteID string) (string, error) {
	for name, id := range f.remoteIDs {
		if id == remoteID {
			return name, nil
		}
	}
	return "", domain.ErrSpeciesNotFound
}

func (f *fakeProvider) ListRemoteSpecies(_ context.Context) ([]domain.RemoteSpecies, error) {
	f.mu.Lock()
	f.catalogHits++
	f.mu.Unlock()
	return f.catalog, f.catalogErr
}

func (f *fakeProvider) sinceFor(remoteID string) (*time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	since, ok := f.since[remoteID]
	return since, ok
}

func (f *fakeProvider) catalogCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalogHits
}

type sliceStream struct {
	records []domain.OccurrenceRecord
	err     error
	skipped int
	pos     int
	cur     domain.OccurrenceRecord
}

func (s *sliceStream) Next() bool {
	if s.pos >= len(s.records) {
		return false
	}
	s.cur = s.records[s.pos]
	s.pos++
	return true
}

func (s *sliceStream) Record() domain.OccurrenceRecord { return s.cur }
func (s *sliceStream) Err() error                      { return s.err }
func (*sliceStream) Close() error                      { return nil }
func (s *sliceStream) Skipped() int                    { return s.skipped }

// records builds n keyed records for a remote species id
func records(remoteID string, n int) []domain.OccurrenceRecord {
	out := make([]domain.OccurrenceRecord, 0, n)
	for i := range n {
		out = append(out, domain.OccurrenceRecord{
			Latitude:  -20 - float64(i),
			Longitude: 130 + float64(i),
			RemoteID:  fmt.Sprintf("%s-record-%d", remoteID, i),
		})
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
