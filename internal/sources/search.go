package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/httpclient"
)

// searchStrategy pages through the occurrence search endpoint
type searchStrategy struct {
	client   httpclient.Client
	endpoint string
	pageSize int
}

var (
	_ Strategy    = (*searchStrategy)(nil)
	_ SkipCounter = (*searchStream)(nil)
)

func (*searchStrategy) Type() domain.StrategyType {
	return domain.StrategySearch
}

func (s *searchStrategy) Stream(ctx context.Context, remoteID string, since *time.Time) (RecordStream, error) {
	return &searchStream{
		ctx:      ctx,
		strategy: s,
		params: url.Values{
			"q":        {BuildQuery(remoteID, since)},
			"fl":       {"id,latitude,longitude"},
			"facet":    {"off"},
			"pageSize": {strconv.Itoa(s.pageSize)},
		},
		remoteID: remoteID,
	}, nil
}

// searchStream fetches one page at a time, recomputing the page count from
// every response, and stops once currentPage reaches totalPages.
type searchStream struct {
	ctx      context.Context
	strategy *searchStrategy
	params   url.Values
	remoteID string

	currentPage int
	totalPages  int
	fetched     bool
	skipped     int

	page   []domain.OccurrenceRecord
	pos    int
	record domain.OccurrenceRecord
	err    error
	closed bool
}

func (it *searchStream) Next() bool {
	for {
		if it.err != nil || it.closed {
			return false
		}
		if it.pos < len(it.page) {
			it.record = it.page[it.pos]
			it.pos++
			return true
		}
		if it.fetched && it.currentPage >= it.totalPages {
			return false
		}
		if err := it.fetchPage(); err != nil {
			it.err = err
			return false
		}
	}
}

func (it *searchStream) fetchPage() error {
	if err := it.ctx.Err(); err != nil {
		return err
	}

	s := it.strategy
	it.params.Set("startIndex", strconv.Itoa(it.currentPage*s.pageSize))

	start := time.Now()
	doc, size, err := s.client.FetchJSON(it.ctx, http.MethodGet, s.endpoint, it.params)
	if err != nil {
		return fmt.Errorf("failed to fetch page %d for %s: %w", it.currentPage+1, it.remoteID, err)
	}
	elapsed := time.Since(start)

	slog.InfoContext(it.ctx, "Received page",
		"species", it.remoteID,
		"page", it.currentPage+1,
		"size", humanize.Bytes(uint64(size)), // #nosec G115 -- size is a byte count
		"seconds", fmt.Sprintf("%.2f", elapsed.Seconds()),
		"rate", humanize.Bytes(uint64(float64(size)/math.Max(elapsed.Seconds(), 1e-3)))+"/s")

	totalRecords := doc.Get("totalRecords")
	if !totalRecords.Exists() {
		return &domain.UnexpectedSchemaError{Detail: "search response has no totalRecords field"}
	}

	it.page = it.page[:0]
	it.pos = 0
	pageSkipped := 0
	doc.Get("occurrences").ForEach(func(_, occ gjson.Result) bool {
		lat, lng := occ.Get("decimalLatitude"), occ.Get("decimalLongitude")
		if !lat.Exists() || !lng.Exists() {
			pageSkipped++
			return true
		}
		it.page = append(it.page, domain.OccurrenceRecord{
			Latitude:  lat.Float(),
			Longitude: lng.Float(),
			RemoteID:  occ.Get("uuid").String(),
		})
		return true
	})

	if pageSkipped > 0 {
		it.skipped += pageSkipped
		slog.InfoContext(it.ctx, "Skipped occurrences without coordinates",
			"species", it.remoteID,
			"page", it.currentPage+1,
			"skipped", pageSkipped)
	}

	it.totalPages = int(math.Ceil(float64(totalRecords.Int()) / float64(s.pageSize)))
	it.currentPage++
	it.fetched = true

	return nil
}

// Skipped returns the number of occurrences dropped for missing coordinates
func (it *searchStream) Skipped() int {
	return it.skipped
}

func (it *searchStream) Record() domain.OccurrenceRecord {
	return it.record
}

func (it *searchStream) Err() error {
	return it.err
}

func (it *searchStream) Close() error {
	it.closed = true
	it.page = nil
	return nil
}
