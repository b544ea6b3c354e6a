// Package config provides configuration loading and management for birdsync.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/httpclient"
	"github.com/jcu-ap03/birdsync/internal/telemetry"
)

const (
	// EnvPrefix is the prefix of environment variables read by birdsync
	EnvPrefix = "BIRDSYNC"

	// DefaultSourceName is the name of the source row occurrences are attributed to
	DefaultSourceName = "ALA"

	// DefaultBiocacheURL is the occurrence web service base URL
	DefaultBiocacheURL = "https://biocache.ala.org.au/ws"

	// DefaultBieURL is the species index base URL
	DefaultBieURL = "https://bie.ala.org.au"

	// DefaultDownloadFile is the base name of the CSV inside download archives
	DefaultDownloadFile = "data"

	// DefaultReason is sent with bulk download requests
	DefaultReason = "birdsync occurrence synchronisation"

	// DefaultCatalogQuery selects the remote species catalog
	DefaultCatalogQuery = "class:AVES AND country:Australia"

	// DefaultWorkers is the width of the occurrence worker pool
	DefaultWorkers = 8

	// DefaultPageSize is the page size for paged provider endpoints
	DefaultPageSize = 1000

	// DefaultSyncInterval is the period between runs in serve mode
	DefaultSyncInterval = "24h"
)

const (
	// StorageTypeMemory keeps everything in process memory
	StorageTypeMemory = "memory"

	// StorageTypeSQLite stores data in a local SQLite file
	StorageTypeSQLite = "sqlite"

	// StorageTypeDatabase stores data in PostgreSQL
	StorageTypeDatabase = "database"

	// DefaultSQLitePath is the database file used when none is configured
	DefaultSQLitePath = "birdsync.db"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Source    SourceConfig      `yaml:"source"`
	Provider  ProviderConfig    `yaml:"provider"`
	Sync      SyncConfig        `yaml:"sync"`
	Retry     RetryConfig       `yaml:"retry"`
	Storage   StorageConfig     `yaml:"storage"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// SourceConfig names the provider row that owns synchronised occurrences
type SourceConfig struct {
	// Name is the source name stored alongside each occurrence
	// Defaults to "ALA" if not specified
	Name string `yaml:"name,omitempty"`
}

// ProviderConfig defines how the remote provider is reached
type ProviderConfig struct {
	// BiocacheURL is the occurrence web service base URL
	BiocacheURL string `yaml:"biocacheURL,omitempty"`

	// BieURL is the species index base URL
	BieURL string `yaml:"bieURL,omitempty"`

	// ContactEmail and Reason are sent with bulk download requests
	ContactEmail string `yaml:"contactEmail,omitempty"`
	Reason       string `yaml:"reason,omitempty"`

	// DownloadFile is the base name of the CSV inside download archives
	DownloadFile string `yaml:"downloadFile,omitempty"`

	// TempDir holds downloaded archives. Empty means the system default.
	TempDir string `yaml:"tempDir,omitempty"`

	// RateLimit caps requests per second, 0 means unlimited
	RateLimit float64 `yaml:"rateLimit,omitempty"`

	// Timeout bounds a single buffered request (e.g., "60s")
	Timeout string `yaml:"timeout,omitempty"`
}

// SyncConfig defines how a run is executed
type SyncConfig struct {
	// Strategy selects the record source: search, download or facet
	Strategy string `yaml:"strategy,omitempty"`

	// Workers is the width of the occurrence worker pool
	Workers int `yaml:"workers,omitempty"`

	// PageSize is the page size for paged endpoints
	PageSize int `yaml:"pageSize,omitempty"`

	// Interval is the period between runs in serve mode (e.g., "24h")
	Interval string `yaml:"interval,omitempty"`

	// InitialDelay postpones the first run in serve mode (e.g., "30s")
	InitialDelay string `yaml:"initialDelay,omitempty"`

	// CatalogQuery selects the remote species catalog
	CatalogQuery string `yaml:"catalogQuery,omitempty"`

	// StatusDir is where serve mode persists the coordinator status.
	// Empty keeps the status in memory only.
	StatusDir string `yaml:"statusDir,omitempty"`

	Phases PhasesConfig `yaml:"phases,omitempty"`
}

// PhasesConfig toggles the phases of a run. Unset phases are enabled.
type PhasesConfig struct {
	AddSpecies    *bool `yaml:"addSpecies,omitempty"`
	DeleteSpecies *bool `yaml:"deleteSpecies,omitempty"`
	Occurrences   *bool `yaml:"occurrences,omitempty"`
}

// RetryConfig tunes the fetch retry policy
type RetryConfig struct {
	Attempts      int     `yaml:"attempts,omitempty"`
	InitialDelay  string  `yaml:"initialDelay,omitempty"`
	BackoffFactor float64 `yaml:"backoffFactor,omitempty"`
}

// StorageConfig selects the repository backend
type StorageConfig struct {
	// Type is one of memory, sqlite or database
	// Defaults to "sqlite" if not specified
	Type string `yaml:"type,omitempty"`

	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
}

// SQLiteConfig defines the SQLite backend settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from BIRDSYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable", EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every field at its default value
func Default() *Config {
	return &Config{}
}

// Validate checks the configuration, returning every problem found. Overrides
// applied after loading (command line flags) should be followed by another
// call.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if _, err := domain.ParseStrategyType(c.Sync.GetStrategy()); err != nil {
		errs = append(errs, err)
	}
	if c.Sync.Workers < 0 {
		errs = append(errs, domain.NewConfigurationError("sync.workers", "must be >= 1, got %d", c.Sync.Workers))
	}
	if c.Sync.PageSize < 0 {
		errs = append(errs, domain.NewConfigurationError("sync.pageSize", "must be >= 1, got %d", c.Sync.PageSize))
	}
	if _, err := c.Sync.GetInitialDelay(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Sync.GetInterval(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Retry.Policy(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Provider.GetTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Provider.RateLimit < 0 {
		errs = append(errs, domain.NewConfigurationError("provider.rateLimit", "must be >= 0, got %g", c.Provider.RateLimit))
	}
	if c.Sync.GetStrategy() == string(domain.StrategyDownload) && c.Provider.ContactEmail == "" {
		errs = append(errs, domain.NewConfigurationError("provider.contactEmail", "is required for the download strategy"))
	}

	switch c.Storage.GetType() {
	case StorageTypeMemory, StorageTypeSQLite:
	case StorageTypeDatabase:
		if c.Database == nil {
			errs = append(errs, domain.NewConfigurationError("database", "is required when storage.type is %q", StorageTypeDatabase))
		}
	default:
		errs = append(errs, domain.NewConfigurationError("storage.type", "unsupported storage type: %q", c.Storage.Type))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

// GetName returns the source name, using "ALA" if not specified
func (s *SourceConfig) GetName() string {
	if s.Name == "" {
		return DefaultSourceName
	}
	return s.Name
}

// GetBiocacheURL returns the occurrence service URL without a trailing slash
func (p *ProviderConfig) GetBiocacheURL() string {
	if p.BiocacheURL == "" {
		return DefaultBiocacheURL
	}
	return strings.TrimRight(p.BiocacheURL, "/")
}

// GetBieURL returns the species index URL without a trailing slash
func (p *ProviderConfig) GetBieURL() string {
	if p.BieURL == "" {
		return DefaultBieURL
	}
	return strings.TrimRight(p.BieURL, "/")
}

// GetReason returns the download reason
func (p *ProviderConfig) GetReason() string {
	if p.Reason == "" {
		return DefaultReason
	}
	return p.Reason
}

// GetDownloadFile returns the archive CSV base name
func (p *ProviderConfig) GetDownloadFile() string {
	if p.DownloadFile == "" {
		return DefaultDownloadFile
	}
	return p.DownloadFile
}

// GetTimeout returns the request timeout, using httpclient.DefaultTimeout if not specified
func (p *ProviderConfig) GetTimeout() (time.Duration, error) {
	if p.Timeout == "" {
		return httpclient.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0, domain.NewConfigurationError("provider.timeout", "must be a valid duration (e.g., '60s'): %v", err)
	}
	if d <= 0 {
		return 0, domain.NewConfigurationError("provider.timeout", "must be > 0, got %s", d)
	}
	return d, nil
}

// GetStrategy returns the strategy tag, using "search" if not specified
func (s *SyncConfig) GetStrategy() string {
	if s.Strategy == "" {
		return string(domain.StrategySearch)
	}
	return s.Strategy
}

// GetWorkers returns the worker pool width
func (s *SyncConfig) GetWorkers() int {
	if s.Workers <= 0 {
		return DefaultWorkers
	}
	return s.Workers
}

// GetPageSize returns the page size for paged endpoints
func (s *SyncConfig) GetPageSize() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}

// GetCatalogQuery returns the remote species catalog query
func (s *SyncConfig) GetCatalogQuery() string {
	if s.CatalogQuery == "" {
		return DefaultCatalogQuery
	}
	return s.CatalogQuery
}

// GetInterval returns the period between runs in serve mode
func (s *SyncConfig) GetInterval() (time.Duration, error) {
	raw := s.Interval
	if raw == "" {
		raw = DefaultSyncInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, domain.NewConfigurationError("sync.interval", "must be a valid duration (e.g., '30m', '24h'): %v", err)
	}
	if d <= 0 {
		return 0, domain.NewConfigurationError("sync.interval", "must be > 0, got %s", d)
	}
	return d, nil
}

// GetInitialDelay returns the wait before the first run in serve mode
func (s *SyncConfig) GetInitialDelay() (time.Duration, error) {
	if s.InitialDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.InitialDelay)
	if err != nil {
		return 0, domain.NewConfigurationError("sync.initialDelay", "must be a valid duration (e.g., '30s'): %v", err)
	}
	if d < 0 {
		return 0, domain.NewConfigurationError("sync.initialDelay", "must be >= 0, got %s", d)
	}
	return d, nil
}

// AddSpeciesEnabled reports whether new remote species are inserted
func (p *PhasesConfig) AddSpeciesEnabled() bool {
	return enabled(p.AddSpecies)
}

// DeleteSpeciesEnabled reports whether species missing remotely are deleted
func (p *PhasesConfig) DeleteSpeciesEnabled() bool {
	return enabled(p.DeleteSpecies)
}

// OccurrencesEnabled reports whether the occurrence phase runs
func (p *PhasesConfig) OccurrencesEnabled() bool {
	return enabled(p.Occurrences)
}

func enabled(b *bool) bool {
	return b == nil || *b
}

// Policy builds the retry policy, applying defaults to unset fields
func (r *RetryConfig) Policy() (httpclient.RetryPolicy, error) {
	policy := httpclient.DefaultRetryPolicy()

	if r.Attempts != 0 {
		policy.Attempts = r.Attempts
	}
	if r.BackoffFactor != 0 {
		policy.BackoffFactor = r.BackoffFactor
	}
	if r.InitialDelay != "" {
		d, err := time.ParseDuration(r.InitialDelay)
		if err != nil {
			return httpclient.RetryPolicy{}, domain.NewConfigurationError(
				"retry.initialDelay", "must be a valid duration (e.g., '2s'): %v", err)
		}
		policy.InitialDelay = d
	}

	if err := policy.Validate(); err != nil {
		return httpclient.RetryPolicy{}, err
	}
	return policy, nil
}

// GetType returns the storage type, using "sqlite" if not specified
func (s *StorageConfig) GetType() string {
	if s.Type == "" {
		return StorageTypeSQLite
	}
	return s.Type
}

// GetSQLitePath returns the SQLite database file
func (s *StorageConfig) GetSQLitePath() string {
	if s.SQLite == nil || s.SQLite.Path == "" {
		return DefaultSQLitePath
	}
	return s.SQLite.Path
}
