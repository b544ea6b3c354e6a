package sources

import (
	"fmt"

	"github.com/jcu-ap03/birdsync/internal/config"
	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/httpclient"
)

const (
	// DefaultPageSize is the number of occurrences requested per search page
	DefaultPageSize = 1000

	searchPath   = "/occurrences/search"
	downloadPath = "/occurrences/download"
	facetPath    = "/occurrences/facets/download"
)

// Option configures a Strategy
type Option func(*options)

type options struct {
	biocacheURL  string
	pageSize     int
	contactEmail string
	reason       string
	downloadFile string
	tempDir      string
}

// WithBiocacheURL sets the occurrence web service base URL
func WithBiocacheURL(u string) Option {
	return func(o *options) {
		o.biocacheURL = u
	}
}

// WithPageSize sets the page size used by the search strategy
func WithPageSize(n int) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// WithDownloadRequest sets the contact metadata and archive base name sent
// with bulk download requests
func WithDownloadRequest(email, reason, file string) Option {
	return func(o *options) {
		o.contactEmail = email
		o.reason = reason
		o.downloadFile = file
	}
}

// WithTempDir sets where the download strategy stores archives
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// NewStrategy creates the strategy for the given tag. Unknown tags and bad
// options fail with a domain.ConfigurationError.
func NewStrategy(strategyType domain.StrategyType, client httpclient.Client, opts ...Option) (Strategy, error) {
	o := &options{
		biocacheURL:  config.DefaultBiocacheURL,
		pageSize:     DefaultPageSize,
		downloadFile: config.DefaultDownloadFile,
	}
	for _, opt := range opts {
		opt(o)
	}

	if client == nil {
		return nil, fmt.Errorf("http client cannot be nil")
	}
	if o.pageSize < 1 {
		return nil, domain.NewConfigurationError("sync.pageSize", "must be >= 1, got %d", o.pageSize)
	}

	switch strategyType {
	case domain.StrategySearch:
		return &searchStrategy{
			client:   client,
			endpoint: o.biocacheURL + searchPath,
			pageSize: o.pageSize,
		}, nil
	case domain.StrategyDownload:
		if o.downloadFile == "" {
			return nil, domain.NewConfigurationError("provider.downloadFile", "is required for the download strategy")
		}
		return &downloadStrategy{
			client:   client,
			endpoint: o.biocacheURL + downloadPath,
			email:    o.contactEmail,
			reason:   o.reason,
			fileName: o.downloadFile,
			tempDir:  o.tempDir,
		}, nil
	case domain.StrategyFacet:
		return &facetStrategy{
			client:   client,
			endpoint: o.biocacheURL + facetPath,
		}, nil
	default:
		return nil, domain.NewConfigurationError("sync.strategy", "unsupported strategy: %q", strategyType)
	}
}

// NewStrategyFromConfig creates the configured strategy.
func NewStrategyFromConfig(cfg *config.Config, client httpclient.Client) (Strategy, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	strategyType, err := domain.ParseStrategyType(cfg.Sync.GetStrategy())
	if err != nil {
		return nil, err
	}

	return NewStrategy(strategyType, client,
		WithBiocacheURL(cfg.Provider.GetBiocacheURL()),
		WithPageSize(cfg.Sync.GetPageSize()),
		WithDownloadRequest(cfg.Provider.ContactEmail, cfg.Provider.GetReason(), cfg.Provider.GetDownloadFile()),
		WithTempDir(cfg.Provider.TempDir),
	)
}
