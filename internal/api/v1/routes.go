// Package v1 provides the handlers of the sync status API.
package v1

import (
	"context"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/jcu-ap03/birdsync/internal/api/common"
	pkgsync "github.com/jcu-ap03/birdsync/internal/sync"
	"github.com/jcu-ap03/birdsync/internal/sync/coordinator"
	"github.com/jcu-ap03/birdsync/internal/versions"
)

// ReadinessChecker reports whether the backing store is reachable.
// storage.Repository satisfies it.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// StatusProvider exposes the scheduler state. coordinator.Coordinator
// satisfies it.
type StatusProvider interface {
	Status() coordinator.Snapshot
}

// SpeciesStatusResponse describes one species in the last report
type SpeciesStatusResponse struct {
	Species  string                 `json:"species"`
	Counts   *pkgsync.SpeciesReport `json:"counts,omitempty"`
	NotFound bool                   `json:"notFound,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(checker ReadinessChecker) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(checker))
	r.Get("/version", versionHandler)

	return r
}

// Router creates the router for the sync status API
func Router(provider StatusProvider) http.Handler {
	r := chi.NewRouter()

	r.Get("/sync/status", statusHandler(provider))
	r.Get("/sync/status/species/{species}", speciesStatusHandler(provider))

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.Ping(r.Context()); err != nil {
			common.WriteErrorResponse(w, "storage not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.Get(), http.StatusOK)
}

// statusHandler serves GET /v1/sync/status: the running phase, the schedule
// state and the last report.
func statusHandler(provider StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSONResponse(w, provider.Status(), http.StatusOK)
	}
}

// speciesStatusHandler serves GET /v1/sync/status/species/{species}
func speciesStatusHandler(provider StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := common.GetAndValidateURLParam(r, "species")
		if err != nil {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}

		report := provider.Status().LastReport
		if report == nil {
			common.WriteErrorResponse(w, "no sync has completed yet", http.StatusNotFound)
			return
		}

		resp := SpeciesStatusResponse{
			Species:  name,
			Counts:   report.Species[name],
			NotFound: slices.Contains(report.NotFound, name),
			Error:    report.Failed[name],
		}
		if resp.Counts == nil && !resp.NotFound && resp.Error == "" {
			common.WriteErrorResponse(w, "species not in last report: "+name, http.StatusNotFound)
			return
		}

		common.WriteJSONResponse(w, resp, http.StatusOK)
	}
}
