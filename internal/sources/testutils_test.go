package sources_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/httpclient"
	"github.com/jcu-ap03/birdsync/internal/sources"
)

// newTestServer creates a new test server with keep-alives disabled.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

// newTestClient returns a client that retries quickly.
func newTestClient(t *testing.T, attempts int) httpclient.Client {
	t.Helper()

	policy, err := httpclient.NewRetryPolicy(attempts, time.Millisecond, 2)
	require.NoError(t, err)

	client, err := httpclient.NewClient(httpclient.WithRetryPolicy(policy))
	require.NoError(t, err)
	return client
}

// drain reads every record from a stream and closes it.
func drain(t *testing.T, stream sources.RecordStream) ([]domain.OccurrenceRecord, error) {
	t.Helper()

	defer func() {
		require.NoError(t, stream.Close())
	}()

	var records []domain.OccurrenceRecord
	for stream.Next() {
		records = append(records, stream.Record())
	}
	return records, stream.Err()
}
