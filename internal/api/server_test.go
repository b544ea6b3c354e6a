package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jcu-ap03/birdsync/internal/api"
	"github.com/jcu-ap03/birdsync/internal/status"
	storagemocks "github.com/jcu-ap03/birdsync/internal/storage/mocks"
	"github.com/jcu-ap03/birdsync/internal/sync"
	"github.com/jcu-ap03/birdsync/internal/sync/coordinator"
	coordmocks "github.com/jcu-ap03/birdsync/internal/sync/coordinator/mocks"
)

func newServer(t *testing.T, opts ...api.ServerOption) (http.Handler, *storagemocks.MockRepository, *coordmocks.MockCoordinator) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := storagemocks.NewMockRepository(ctrl)
	coord := coordmocks.NewMockCoordinator(ctrl)
	return api.NewServer(repo, coord, opts...), repo, coord
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	// No expectations needed - health check doesn't touch storage
	server, _, _ := newServer(t)

	rr := get(t, server, "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedKey    string
	}{
		{
			name:           "storage ready",
			expectedStatus: http.StatusOK,
			expectedKey:    "status",
		},
		{
			name:           "storage not ready",
			pingErr:        fmt.Errorf("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedKey:    "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, repo, _ := newServer(t)
			repo.EXPECT().Ping(gomock.Any()).Return(tt.pingErr)

			rr := get(t, server, "/readiness")

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var response map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Contains(t, response, tt.expectedKey)
			if tt.pingErr != nil {
				assert.Contains(t, response["error"], "connection refused")
			}
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()

	server, _, _ := newServer(t)
	rr := get(t, server, "/version")

	assert.Equal(t, http.StatusOK, rr.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	for _, key := range []string{"version", "commit", "build_date", "go_version", "platform"} {
		assert.Contains(t, response, key)
	}
}

func TestSyncStatusEndpoint(t *testing.T) {
	t.Parallel()

	lastSync := time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)
	snapshot := coordinator.Snapshot{
		Source: "ALA",
		Phase:  status.PhaseDraining,
		Sync: status.SyncStatus{
			Phase:        status.SyncPhaseSyncing,
			LastSyncTime: &lastSync,
			SpeciesCount: 2,
			RecordCount:  11,
			SyncSchedule: "24h0m0s",
		},
		LastReport: &sync.Report{
			Source:   "ALA",
			Species:  map[string]*sync.SpeciesReport{"Aquila audax": {Fetched: 11, Inserted: 9, Updated: 2}},
			NotFound: []string{"Ninox strenua"},
			Failed:   map[string]string{"Tyto alba": "record stream failed"},
		},
	}

	server, _, coord := newServer(t)
	coord.EXPECT().Status().Return(snapshot).AnyTimes()

	t.Run("status", func(t *testing.T) {
		t.Parallel()

		rr := get(t, server, "/v1/sync/status")
		require.Equal(t, http.StatusOK, rr.Code)

		var got coordinator.Snapshot
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, status.PhaseDraining, got.Phase)
		assert.Equal(t, 11, got.Sync.RecordCount)
		require.NotNil(t, got.LastReport)
		assert.Equal(t, 9, got.LastReport.Species["Aquila audax"].Inserted)
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "species with counts",
			path:       "/v1/sync/status/species/Aquila%20audax",
			wantStatus: http.StatusOK,
			wantBody:   `{"species":"Aquila audax","counts":{"fetched":11,"inserted":9,"updated":2}}`,
		},
		{
			name:       "species not found at provider",
			path:       "/v1/sync/status/species/Ninox%20strenua",
			wantStatus: http.StatusOK,
			wantBody:   `{"species":"Ninox strenua","notFound":true}`,
		},
		{
			name:       "failed species",
			path:       "/v1/sync/status/species/Tyto%20alba",
			wantStatus: http.StatusOK,
			wantBody:   `{"species":"Tyto alba","error":"record stream failed"}`,
		},
		{
			name:       "unknown species",
			path:       "/v1/sync/status/species/Dromaius%20novaehollandiae",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "control characters rejected",
			path:       "/v1/sync/status/species/Tyto%09alba",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := get(t, server, tt.path)
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestSpeciesStatus_NoReportYet(t *testing.T) {
	t.Parallel()

	server, _, coord := newServer(t)
	coord.EXPECT().Status().Return(coordinator.Snapshot{Source: "ALA", Phase: status.PhaseIdle})

	rr := get(t, server, "/v1/sync/status/species/Aquila%20audax")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "no sync has completed yet")
}

func TestWithMiddlewares(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	server, _, _ := newServer(t,
		api.WithMiddlewares(middleware.RequestID, mark("first")),
		api.WithMiddlewares(mark("second"), api.LoggingMiddleware),
	)

	rr := get(t, server, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	server, _, _ := newServer(t)
	rr := get(t, server, "/v1/registry")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
