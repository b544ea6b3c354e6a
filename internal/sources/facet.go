package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/httpclient"
)

// facetProgressInterval is how many expanded records pass between progress logs
const facetProgressInterval = 1000

// facetHeader is the exact header row of a lat_long facet table
var facetHeader = []string{"lat_long", "Count"}

// facetStrategy expands a lat_long facet count table
type facetStrategy struct {
	client   httpclient.Client
	endpoint string
}

var _ Strategy = (*facetStrategy)(nil)

func (*facetStrategy) Type() domain.StrategyType {
	return domain.StrategyFacet
}

func (s *facetStrategy) Stream(ctx context.Context, remoteID string, since *time.Time) (RecordStream, error) {
	params := url.Values{
		"q":      {BuildQuery(remoteID, since)},
		"facets": {"lat_long"},
		"count":  {"true"},
	}

	slog.InfoContext(ctx, "Requesting facet table", "species", remoteID)
	start := time.Now()
	body, err := s.client.FetchStream(ctx, http.MethodGet, s.endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to request facets for %s: %w", remoteID, err)
	}
	slog.InfoContext(ctx, "Response headers received",
		"species", remoteID,
		"seconds", fmt.Sprintf("%.2f", time.Since(start).Seconds()))

	stream, err := newFacetStream(ctx, body)
	if err != nil {
		_ = body.Close()
		return nil, err
	}
	stream.remoteID = remoteID
	return stream, nil
}

// newFacetStream validates the header row of body before any record is read.
func newFacetStream(ctx context.Context, body io.ReadCloser) (*facetStream, error) {
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.UnexpectedSchemaError{Expected: facetHeader, Detail: "facet table has no header row"}
		}
		return nil, fmt.Errorf("failed to read facet header: %w", err)
	}

	if len(header) != len(facetHeader) || header[0] != facetHeader[0] || header[1] != facetHeader[1] {
		return nil, &domain.UnexpectedSchemaError{Expected: facetHeader, Got: header}
	}

	return &facetStream{
		ctx:    ctx,
		body:   body,
		reader: reader,
	}, nil
}

// facetStream repeats each row's coordinates count times. The records carry no
// identifier, so every run appends.
type facetStream struct {
	ctx      context.Context
	remoteID string
	body     io.ReadCloser
	reader   *csv.Reader

	current   domain.OccurrenceRecord
	remaining int64
	emitted   int64
	err       error
	done      bool
}

func (it *facetStream) Next() bool {
	for !it.done && it.err == nil {
		if it.remaining > 0 {
			it.remaining--
			it.emitted++
			if it.emitted%facetProgressInterval == 0 {
				slog.InfoContext(it.ctx, "Records done", "species", it.remoteID, "records", it.emitted)
			}
			return true
		}

		if err := it.ctx.Err(); err != nil {
			it.err = err
			return false
		}

		row, err := it.reader.Read()
		if errors.Is(err, io.EOF) {
			it.done = true
			return false
		}
		if err != nil {
			it.err = fmt.Errorf("failed to read facet row: %w", err)
			return false
		}

		rec, count, err := parseFacetRow(row)
		if err != nil {
			it.err = err
			return false
		}
		it.current = rec
		it.remaining = count
	}
	return false
}

// parseFacetRow accepts "lat,lng,count" rows as well as rows whose first
// field is a quoted "lat,lng" pair.
func parseFacetRow(row []string) (domain.OccurrenceRecord, int64, error) {
	var latStr, lngStr, countStr string
	switch len(row) {
	case 3:
		latStr, lngStr, countStr = row[0], row[1], row[2]
	case 2:
		parts := strings.SplitN(row[0], ",", 2)
		if len(parts) != 2 {
			return domain.OccurrenceRecord{}, 0, fmt.Errorf("invalid lat_long value %q", row[0])
		}
		latStr, lngStr, countStr = parts[0], parts[1], row[1]
	default:
		return domain.OccurrenceRecord{}, 0, fmt.Errorf("invalid facet row with %d fields", len(row))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.OccurrenceRecord{}, 0, fmt.Errorf("invalid latitude %q: %w", latStr, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return domain.OccurrenceRecord{}, 0, fmt.Errorf("invalid longitude %q: %w", lngStr, err)
	}
	count, err := strconv.ParseInt(strings.TrimSpace(countStr), 10, 64)
	if err != nil || count < 0 {
		return domain.OccurrenceRecord{}, 0, fmt.Errorf("invalid count %q", countStr)
	}

	return domain.OccurrenceRecord{Latitude: lat, Longitude: lng}, count, nil
}

func (it *facetStream) Record() domain.OccurrenceRecord {
	return it.current
}

func (it *facetStream) Err() error {
	return it.err
}

func (it *facetStream) Close() error {
	it.done = true
	if it.body == nil {
		return nil
	}
	err := it.body.Close()
	it.body = nil
	return err
}
