package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcu-ap03/birdsync/internal/api"
	"github.com/jcu-ap03/birdsync/internal/config"
	"github.com/jcu-ap03/birdsync/internal/httpclient"
	"github.com/jcu-ap03/birdsync/internal/sources"
	"github.com/jcu-ap03/birdsync/internal/status"
	"github.com/jcu-ap03/birdsync/internal/storage"
	"github.com/jcu-ap03/birdsync/internal/storage/postgres"
	pkgsync "github.com/jcu-ap03/birdsync/internal/sync"
	"github.com/jcu-ap03/birdsync/internal/sync/coordinator"
	"github.com/jcu-ap03/birdsync/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// Option configures the application builder
type Option func(*appConfig) error

// appConfig collects the builder inputs. Injected components take precedence
// over the ones built from config.
type appConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	repository      storage.Repository
	client          httpclient.Client
	syncManager     pkgsync.Manager
	managerOpts     []pkgsync.Option
	coordinatorOpts []coordinator.Option

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

func baseConfig(opts ...Option) (*appConfig, error) {
	cfg := &appConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return cfg, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) Option {
	return func(cfg *appConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) Option {
	return func(cfg *appConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("address is not a valid host:port: %w", err)
		}
		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *appConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRepository allows injecting a repository instead of the configured one
func WithRepository(r storage.Repository) Option {
	return func(cfg *appConfig) error {
		cfg.repository = r
		return nil
	}
}

// WithHTTPClient allows injecting the provider client
func WithHTTPClient(c httpclient.Client) Option {
	return func(cfg *appConfig) error {
		cfg.client = c
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) Option {
	return func(cfg *appConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithManagerOptions adds manager options applied after the ones derived
// from config
func WithManagerOptions(opts ...pkgsync.Option) Option {
	return func(cfg *appConfig) error {
		cfg.managerOpts = append(cfg.managerOpts, opts...)
		return nil
	}
}

// WithCoordinatorOptions adds coordinator options
func WithCoordinatorOptions(opts ...coordinator.Option) Option {
	return func(cfg *appConfig) error {
		cfg.coordinatorOpts = append(cfg.coordinatorOpts, opts...)
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *appConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *appConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// NewHTTPClient builds the provider client from config. Retries are counted
// on metrics by host; metrics may be nil.
func NewHTTPClient(cfg *config.Config, metrics *telemetry.SyncMetrics) (*httpclient.DefaultClient, error) {
	policy, err := cfg.Retry.Policy()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Provider.GetTimeout()
	if err != nil {
		return nil, err
	}

	return httpclient.NewClient(
		httpclient.WithTimeout(timeout),
		httpclient.WithRetryPolicy(policy),
		httpclient.WithRateLimit(cfg.Provider.RateLimit),
		httpclient.WithRetryObserver(retryCounter(metrics)),
	)
}

func retryCounter(metrics *telemetry.SyncMetrics) httpclient.RetryObserver {
	return func(ctx context.Context, endpoint string, _ int, _ error, _ time.Duration) {
		host := endpoint
		if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
			host = u.Host
		}
		metrics.RecordFetchRetry(ctx, host)
	}
}

// BuildComponents builds the repository, provider client, strategy, species
// lookup and sync manager. The caller owns the result and must Close it.
func BuildComponents(ctx context.Context, opts ...Option) (*Components, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	return buildComponents(ctx, b)
}

func buildComponents(ctx context.Context, b *appConfig) (*Components, error) {
	slog.Info("Initializing sync components")
	cfg := b.config

	metrics, err := telemetry.NewSyncMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	if metrics != nil {
		slog.Info("Sync metrics enabled")
	}

	repo := b.repository
	if repo == nil {
		var storageOpts []storage.Option
		if b.tracerProvider != nil {
			storageOpts = append(storageOpts, storage.WithTracer(b.tracerProvider.Tracer(postgres.TracerName)))
		}
		repo, err = storage.NewRepository(ctx, cfg, storageOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create repository: %w", err)
		}
	}

	comps := &Components{Repository: repo, Metrics: metrics}
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded && b.repository == nil {
			if err := repo.Close(); err != nil {
				slog.Warn("Failed to close repository", "error", err)
			}
		}
	}()

	comps.Client = b.client
	if comps.Client == nil {
		client, err := NewHTTPClient(cfg, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create http client: %w", err)
		}
		comps.Client = client
	}

	comps.Strategy, err = sources.NewStrategyFromConfig(cfg, comps.Client)
	if err != nil {
		return nil, fmt.Errorf("failed to create record strategy: %w", err)
	}

	comps.Species = sources.NewSpeciesService(
		comps.Client,
		cfg.Provider.GetBieURL(),
		cfg.Sync.GetCatalogQuery(),
		cfg.Sync.GetPageSize(),
	)

	comps.Manager = b.syncManager
	if comps.Manager == nil {
		managerOpts := pkgsync.OptionsFromConfig(cfg)
		managerOpts = append(managerOpts, pkgsync.WithSyncMetrics(metrics))
		if b.tracerProvider != nil {
			managerOpts = append(managerOpts, pkgsync.WithTracer(b.tracerProvider.Tracer(pkgsync.TracerName)))
		}
		managerOpts = append(managerOpts, b.managerOpts...)

		comps.Manager, err = pkgsync.NewManager(repo, comps.Strategy, comps.Species, managerOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync manager: %w", err)
		}
	}

	cleanupNeeded = false
	slog.Info("Sync components initialized successfully",
		"source", cfg.Source.GetName(),
		"strategy", comps.Strategy.Type(),
		"storage", cfg.Storage.GetType())
	return comps, nil
}

// NewSyncApp builds the components, the coordinator and the status server
func NewSyncApp(ctx context.Context, opts ...Option) (*SyncApp, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	comps, err := buildComponents(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			if err := comps.Close(); err != nil {
				slog.Warn("Failed to close components", "error", err)
			}
		}
	}()

	comps.Coordinator, err = buildCoordinator(b, comps.Manager)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync coordinator: %w", err)
	}

	httpServer, err := buildHTTPServer(b, comps)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	cancelFunc := func() {
		cancel()
		if err := comps.Close(); err != nil {
			slog.Warn("Failed to close components", "error", err)
		}
	}

	return &SyncApp{
		config:     b.config,
		components: comps,
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancelFunc,
	}, nil
}

func buildCoordinator(b *appConfig, manager pkgsync.Manager) (coordinator.Coordinator, error) {
	var coordOpts []coordinator.Option
	if dir := b.config.Sync.StatusDir; dir != "" {
		coordOpts = append(coordOpts, coordinator.WithStatusPersistence(status.NewFileStatusPersistence(dir)))
		slog.Info("Sync status persistence enabled", "dir", dir)
	}
	coordOpts = append(coordOpts, b.coordinatorOpts...)

	return coordinator.New(manager, b.config, coordOpts...)
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *appConfig, comps *Components) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	middlewares := b.middlewares
	if middlewares == nil {
		middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	if b.tracerProvider != nil {
		middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, middlewares...)
	}

	// metrics go first so every request is counted
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, middlewares...)
		slog.Info("HTTP metrics middleware enabled")
	}

	router := api.NewServer(comps.Repository, comps.Coordinator, api.WithMiddlewares(middlewares...))

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
