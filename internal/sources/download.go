package sources

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/httpclient"
)

const (
	// downloadChunkSize is the read size used while spooling an archive to disk
	downloadChunkSize = 4096

	// downloadReportInterval is how often download throughput is logged
	downloadReportInterval = 5 * time.Second

	downloadFields = "decimalLatitude.p,decimalLongitude.p,scientificName.p"

	latitudeColumn  = "Latitude - processed"
	longitudeColumn = "Longitude - processed"
)

// downloadStrategy requests a zipped CSV export per species
type downloadStrategy struct {
	client   httpclient.Client
	endpoint string
	email    string
	reason   string
	fileName string
	tempDir  string
}

var _ Strategy = (*downloadStrategy)(nil)

func (*downloadStrategy) Type() domain.StrategyType {
	return domain.StrategyDownload
}

func (s *downloadStrategy) Stream(ctx context.Context, remoteID string, since *time.Time) (RecordStream, error) {
	params := url.Values{
		"q":      {BuildQuery(remoteID, since)},
		"fields": {downloadFields},
		"email":  {s.email},
		"reason": {s.reason},
		"file":   {s.fileName},
	}

	slog.InfoContext(ctx, "Requesting zip file", "species", remoteID)
	start := time.Now()
	body, err := s.client.FetchStream(ctx, http.MethodGet, s.endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("failed to request download for %s: %w", remoteID, err)
	}
	slog.InfoContext(ctx, "Response headers received",
		"species", remoteID,
		"seconds", fmt.Sprintf("%.2f", time.Since(start).Seconds()))

	tmp, err := os.CreateTemp(s.tempDir, "birdsync-*.zip")
	if err != nil {
		_ = body.Close()
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	start = time.Now()
	size, err := chunkedCopy(ctx, tmp, body, downloadReportInterval, func(total, sinceLast int64, elapsed time.Duration) {
		slog.InfoContext(ctx, "Downloading zip file",
			"species", remoteID,
			"total", humanize.Bytes(uint64(total)), // #nosec G115 -- byte counts are non-negative
			"rate", humanize.Bytes(uint64(float64(sinceLast)/elapsed.Seconds()))+"/s")
	})
	_ = body.Close()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to download archive for %s: %w", remoteID, err)
	}
	slog.InfoContext(ctx, "Fetched zip file",
		"species", remoteID,
		"size", humanize.Bytes(uint64(size)), // #nosec G115 -- byte counts are non-negative
		"seconds", fmt.Sprintf("%.2f", time.Since(start).Seconds()))

	stream, err := openArchiveCSV(tmp, size, s.fileName+".csv")
	if err != nil {
		cleanup()
		return nil, err
	}
	stream.ctx = ctx
	stream.remoteID = remoteID
	stream.cleanup = cleanup
	stream.started = time.Now()

	return stream, nil
}

// chunkedCopy copies src to dst in fixed-size chunks, calling report at most
// once per interval with the running total, the bytes read since the last
// report and the time since the last report.
func chunkedCopy(
	ctx context.Context,
	dst io.Writer,
	src io.Reader,
	interval time.Duration,
	report func(total, sinceLast int64, elapsed time.Duration),
) (int64, error) {
	buf := make([]byte, downloadChunkSize)
	var total, sinceLast int64
	lastReport := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return total, fmt.Errorf("failed to write chunk: %w", err)
			}
			total += int64(n)
			sinceLast += int64(n)
		}

		if now := time.Now(); now.Sub(lastReport) > interval {
			if report != nil {
				report(total, sinceLast, now.Sub(lastReport))
			}
			lastReport = now
			sinceLast = 0
		}

		if errors.Is(readErr, io.EOF) {
			return total, nil
		}
		if readErr != nil {
			return total, fmt.Errorf("failed to read chunk: %w", readErr)
		}
	}
}

// openArchiveCSV finds name inside the zip archive and prepares a row stream.
func openArchiveCSV(r io.ReaderAt, size int64, name string) (*csvRowStream, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == name {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, &domain.UnexpectedSchemaError{Detail: fmt.Sprintf("archive has no %s entry", name)}
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in archive: %w", name, err)
	}

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		_ = rc.Close()
		return nil, &domain.UnexpectedSchemaError{Detail: fmt.Sprintf("failed to read %s header: %v", name, err)}
	}

	latIdx, lngIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case latitudeColumn:
			latIdx = i
		case longitudeColumn:
			lngIdx = i
		}
	}
	if latIdx < 0 || lngIdx < 0 {
		got := append([]string(nil), header...)
		_ = rc.Close()
		return nil, &domain.UnexpectedSchemaError{
			Expected: []string{latitudeColumn, longitudeColumn},
			Got:      got,
		}
	}

	return &csvRowStream{
		entry:  rc,
		reader: reader,
		latIdx: latIdx,
		lngIdx: lngIdx,
	}, nil
}

// csvRowStream yields one record per row of the extracted CSV
type csvRowStream struct {
	ctx      context.Context
	remoteID string
	entry    io.ReadCloser
	reader   *csv.Reader
	latIdx   int
	lngIdx   int
	cleanup  func()
	started  time.Time

	count  int
	record domain.OccurrenceRecord
	err    error
	done   bool
}

func (it *csvRowStream) Next() bool {
	for !it.done && it.err == nil {
		if it.ctx != nil {
			if err := it.ctx.Err(); err != nil {
				it.err = err
				return false
			}
		}

		row, err := it.reader.Read()
		if errors.Is(err, io.EOF) {
			it.finish()
			return false
		}
		if err != nil {
			it.err = fmt.Errorf("failed to read CSV row: %w", err)
			return false
		}

		latStr, lngStr := field(row, it.latIdx), field(row, it.lngIdx)
		if latStr == "" || lngStr == "" {
			continue
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			it.err = fmt.Errorf("invalid latitude %q: %w", latStr, err)
			return false
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			it.err = fmt.Errorf("invalid longitude %q: %w", lngStr, err)
			return false
		}

		it.record = domain.OccurrenceRecord{Latitude: lat, Longitude: lng}
		it.count++
		return true
	}
	return false
}

func (it *csvRowStream) finish() {
	it.done = true
	elapsed := time.Since(it.started).Seconds()
	slog.Info("Read records from archive",
		"species", it.remoteID,
		"records", it.count,
		"seconds", fmt.Sprintf("%.2f", elapsed))
}

func (it *csvRowStream) Record() domain.OccurrenceRecord {
	return it.record
}

func (it *csvRowStream) Err() error {
	return it.err
}

func (it *csvRowStream) Close() error {
	it.done = true
	var err error
	if it.entry != nil {
		err = it.entry.Close()
		it.entry = nil
	}
	if it.cleanup != nil {
		it.cleanup()
		it.cleanup = nil
	}
	return err
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
