package sources_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/sources"
)

type fakeSearchProvider struct {
	mu           sync.Mutex
	totalRecords int
	offsets      []int
	queries      []string
}

func (p *fakeSearchProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/occurrences/search" {
		http.NotFound(w, r)
		return
	}

	start, _ := strconv.Atoi(r.URL.Query().Get("startIndex"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	p.mu.Lock()
	p.offsets = append(p.offsets, start)
	p.queries = append(p.queries, r.URL.Query().Get("q"))
	p.mu.Unlock()

	occurrences := []map[string]any{}
	for i := start; i < start+size && i < p.totalRecords; i++ {
		occurrences = append(occurrences, map[string]any{
			"uuid":             fmt.Sprintf("%08x-0000-4000-8000-000000000000", i),
			"decimalLatitude":  -10 - float64(i)/10000,
			"decimalLongitude": 130 + float64(i)/10000,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"totalRecords": p.totalRecords,
		"pageSize":     size,
		"startIndex":   start,
		"occurrences":  occurrences,
	})
}

func (p *fakeSearchProvider) snapshot() ([]int, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.offsets...), append([]string(nil), p.queries...)
}

func TestSearchStrategy_Pagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		totalRecords int
		pageSize     int
		wantOffsets  []int
	}{
		{name: "2500 records in pages of 1000", totalRecords: 2500, pageSize: 1000, wantOffsets: []int{0, 1000, 2000}},
		{name: "exact multiple of the page size", totalRecords: 2000, pageSize: 1000, wantOffsets: []int{0, 1000}},
		{name: "single partial page", totalRecords: 7, pageSize: 1000, wantOffsets: []int{0}},
		{name: "no records", totalRecords: 0, pageSize: 1000, wantOffsets: []int{0}},
		{name: "small pages", totalRecords: 5, pageSize: 2, wantOffsets: []int{0, 2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := &fakeSearchProvider{totalRecords: tt.totalRecords}
			server := newTestServer(provider)
			defer server.Close()

			strategy, err := sources.NewStrategy(domain.StrategySearch, newTestClient(t, 1),
				sources.WithBiocacheURL(server.URL),
				sources.WithPageSize(tt.pageSize))
			require.NoError(t, err)
			assert.Equal(t, domain.StrategySearch, strategy.Type())

			stream, err := strategy.Stream(context.Background(), "urn:lsid:test", nil)
			require.NoError(t, err)

			records, err := drain(t, stream)
			require.NoError(t, err)

			offsets, queries := provider.snapshot()
			assert.Equal(t, tt.wantOffsets, offsets)
			require.Len(t, records, tt.totalRecords)
			for i, rec := range records {
				assert.Equal(t, fmt.Sprintf("%08x-0000-4000-8000-000000000000", i), rec.RemoteID)
				assert.InDelta(t, -10-float64(i)/10000, rec.Latitude, 1e-9)
				assert.InDelta(t, 130+float64(i)/10000, rec.Longitude, 1e-9)
			}
			for _, q := range queries {
				assert.Equal(t, sources.BuildQuery("urn:lsid:test", nil), q)
			}
		})
	}
}

func TestSearchStrategy_FetchFailureStopsStream(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	strategy, err := sources.NewStrategy(domain.StrategySearch, newTestClient(t, 2), sources.WithBiocacheURL(server.URL))
	require.NoError(t, err)

	stream, err := strategy.Stream(context.Background(), "X", nil)
	require.NoError(t, err)

	records, err := drain(t, stream)
	assert.Empty(t, records)

	var netErr *domain.TransientNetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestSearchStrategy_MissingTotalRecords(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"occurrences": [{"uuid": "a", "decimalLatitude": 1, "decimalLongitude": 2}]}`))
	}))
	defer server.Close()

	strategy, err := sources.NewStrategy(domain.StrategySearch, newTestClient(t, 1), sources.WithBiocacheURL(server.URL))
	require.NoError(t, err)

	stream, err := strategy.Stream(context.Background(), "X", nil)
	require.NoError(t, err)

	_, err = drain(t, stream)
	var schemaErr *domain.UnexpectedSchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestSearchStrategy_CountsRecordsWithoutCoordinates(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"0": `{"totalRecords": 3, "occurrences": [
			{"uuid": "00000000-0000-4000-8000-000000000001", "decimalLatitude": -12.4, "decimalLongitude": 130.8},
			{"uuid": "00000000-0000-4000-8000-000000000002", "decimalLongitude": 130.9}]}`,
		"2": `{"totalRecords": 3, "occurrences": [
			{"uuid": "00000000-0000-4000-8000-000000000003", "decimalLatitude": -12.6}]}`,
	}
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pages[r.URL.Query().Get("startIndex")]))
	}))
	defer server.Close()

	strategy, err := sources.NewStrategy(domain.StrategySearch, newTestClient(t, 1),
		sources.WithBiocacheURL(server.URL), sources.WithPageSize(2))
	require.NoError(t, err)

	stream, err := strategy.Stream(context.Background(), "X", nil)
	require.NoError(t, err)

	records, err := drain(t, stream)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "00000000-0000-4000-8000-000000000001", records[0].RemoteID)

	counter, ok := stream.(sources.SkipCounter)
	require.True(t, ok, "search streams report dropped records")
	assert.Equal(t, 2, counter.Skipped())
}

func TestSearchStrategy_Cancelled(t *testing.T) {
	t.Parallel()

	provider := &fakeSearchProvider{totalRecords: 10}
	server := newTestServer(provider)
	defer server.Close()

	strategy, err := sources.NewStrategy(domain.StrategySearch, newTestClient(t, 1),
		sources.WithBiocacheURL(server.URL), sources.WithPageSize(5))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := strategy.Stream(ctx, "X", nil)
	require.NoError(t, err)

	require.True(t, stream.Next())
	cancel()

	count := 1
	for stream.Next() {
		count++
	}
	assert.Equal(t, 5, count)
	assert.ErrorIs(t, stream.Err(), context.Canceled)
	assert.NoError(t, stream.Close())
	offsets, _ := provider.snapshot()
	assert.Equal(t, []int{0}, offsets)
}
