package storage

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcu-ap03/birdsync/internal/config"
	"github.com/jcu-ap03/birdsync/internal/storage/memory"
	"github.com/jcu-ap03/birdsync/internal/storage/postgres"
	"github.com/jcu-ap03/birdsync/internal/storage/sqlite"
)

var (
	_ Repository = (*memory.Store)(nil)
	_ Repository = (*sqlite.Store)(nil)
	_ Repository = (*postgres.Store)(nil)
)

// Option configures repository construction
type Option func(*options)

type options struct {
	tracer trace.Tracer
}

// WithTracer sets the OpenTelemetry tracer for backends that emit spans.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// NewRepository creates the repository selected by storage.type.
func NewRepository(ctx context.Context, cfg *config.Config, opts ...Option) (Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch storageType := cfg.Storage.GetType(); storageType {
	case config.StorageTypeMemory:
		slog.Info("Using in-memory storage")
		return memory.New(), nil
	case config.StorageTypeSQLite:
		path := cfg.Storage.GetSQLitePath()
		slog.Info("Using SQLite storage", "path", path)
		return sqlite.Open(ctx, path)
	case config.StorageTypeDatabase:
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required for database storage type")
		}
		slog.Info("Using database storage",
			"host", cfg.Database.Host,
			"database", cfg.Database.Database)
		return postgres.New(ctx, cfg.Database, postgres.WithTracer(o.tracer))
	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}
