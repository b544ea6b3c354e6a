package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jcu-ap03/birdsync/internal/config"
	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/httpclient"
)

const (
	guidPath         = "/ws/guid/"
	shortProfilePath = "/species/shortProfile/"
	speciesSearch    = "/ws/search.json"
	speciesRankQuery = "rank:species"
)

// SpeciesService implements SpeciesLookup against the species index web service
type SpeciesService struct {
	client       httpclient.Client
	baseURL      string
	catalogQuery string
	pageSize     int
}

var _ SpeciesLookup = (*SpeciesService)(nil)

// NewSpeciesService creates a species lookup client
func NewSpeciesService(client httpclient.Client, baseURL, catalogQuery string, pageSize int) *SpeciesService {
	if baseURL == "" {
		baseURL = config.DefaultBieURL
	}
	if catalogQuery == "" {
		catalogQuery = config.DefaultCatalogQuery
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &SpeciesService{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		catalogQuery: catalogQuery,
		pageSize:     pageSize,
	}
}

// ResolveRemoteID returns the provider identifier for a scientific name.
//
// The provider maps outdated names onto their current taxon, so the name
// returned by ScientificName for this identifier may differ from the input.
func (s *SpeciesService) ResolveRemoteID(ctx context.Context, scientificName string) (string, error) {
	endpoint := s.baseURL + guidPath + url.PathEscape(scientificName)
	doc, _, err := s.client.FetchJSON(ctx, http.MethodGet, endpoint, nil, httpclient.AllowEmpty())
	if err != nil {
		return "", fmt.Errorf("failed to look up %q: %w", scientificName, err)
	}

	if !doc.IsArray() || len(doc.Array()) == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrSpeciesNotFound, scientificName)
	}

	id := doc.Array()[0].Get("identifier").String()
	if id == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrSpeciesNotFound, scientificName)
	}
	return id, nil
}

// ScientificName returns the scientific name registered for a provider identifier.
func (s *SpeciesService) ScientificName(ctx context.Context, remoteID string) (string, error) {
	endpoint := s.baseURL + shortProfilePath + url.PathEscape(remoteID) + ".json"
	doc, _, err := s.client.FetchJSON(ctx, http.MethodGet, endpoint, nil, httpclient.AllowEmpty())
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile for %q: %w", remoteID, err)
	}

	name := doc.Get("scientificName").String()
	if name == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrSpeciesNotFound, remoteID)
	}
	return name, nil
}

// ListRemoteSpecies pages through the species search for the configured
// catalog query. Duplicate names keep their first entry.
func (s *SpeciesService) ListRemoteSpecies(ctx context.Context) ([]domain.RemoteSpecies, error) {
	endpoint := s.baseURL + speciesSearch
	params := url.Values{
		"q":        {NormalizeQuery(s.catalogQuery)},
		"fq":       {speciesRankQuery},
		"pageSize": {strconv.Itoa(s.pageSize)},
	}

	var species []domain.RemoteSpecies
	seen := make(map[string]struct{})

	totalPages := 0
	for page := 0; page == 0 || page < totalPages; page++ {
		params.Set("start", strconv.Itoa(page*s.pageSize))

		doc, _, err := s.client.FetchJSON(ctx, http.MethodGet, endpoint, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch species catalog page %d: %w", page+1, err)
		}

		results := doc.Get("searchResults")
		totalRecords := results.Get("totalRecords")
		if !totalRecords.Exists() {
			return nil, &domain.UnexpectedSchemaError{
				Detail: fmt.Sprintf("species catalog page %d has no searchResults.totalRecords field", page+1),
			}
		}
		totalPages = int(math.Ceil(float64(totalRecords.Int()) / float64(s.pageSize)))

		results.Get("results").ForEach(func(_, r gjson.Result) bool {
			name := strings.TrimSpace(r.Get("name").String())
			if name == "" {
				return true
			}
			if _, dup := seen[name]; dup {
				return true
			}
			seen[name] = struct{}{}
			species = append(species, domain.RemoteSpecies{
				ScientificName: name,
				CommonName:     r.Get("commonNameSingle").String(),
				RemoteID:       r.Get("guid").String(),
			})
			return true
		})

		slog.DebugContext(ctx, "Fetched species catalog page",
			"page", page+1,
			"total_pages", totalPages,
			"species", len(species))
	}

	return species, nil
}
