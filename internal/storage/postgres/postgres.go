// Package postgres provides a repository backed by PostgreSQL through a pgx
// connection pool. The schema is managed by the database package migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcu-ap03/birdsync/internal/config"
	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/otel"
)

// TracerName is the name used for the Postgres store tracer
const TracerName = "github.com/jcu-ap03/birdsync/storage/postgres"

// Option configures the Postgres store
type Option func(*Store)

// WithTracer sets the OpenTelemetry tracer for the store.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = tracer
	}
}

// Store is a PostgreSQL-backed repository
type Store struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	owned  bool
}

// New connects to the configured database. The pool is closed by Close.
func New(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := NewWithPool(pool, opts...)
	s.owned = true
	return s, nil
}

// NewWithPool wraps an existing pool. The caller remains responsible for
// closing it.
func NewWithPool(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{trace.WithAttributes(semconv.DBSystemPostgreSQL)}, opts...)
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}

// SelectAllSpecies returns the catalog ordered by scientific name
func (s *Store) SelectAllSpecies(ctx context.Context) ([]domain.Species, error) {
	ctx, span := s.startSpan(ctx, "postgres.SelectAllSpecies")
	defer span.End()

	rows, err := s.pool.Query(ctx,
		"SELECT id, scientific_name, common_name FROM species ORDER BY scientific_name")
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to select species: %w", err)
	}

	species, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Species, error) {
		var sp domain.Species
		err := row.Scan(&sp.ID, &sp.ScientificName, &sp.CommonName)
		return sp, err
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to scan species: %w", err)
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(species)))
	return species, nil
}

// InsertSpecies adds a species
func (s *Store) InsertSpecies(ctx context.Context, scientificName, commonName string) (int64, error) {
	ctx, span := s.startSpan(ctx, "postgres.InsertSpecies",
		trace.WithAttributes(otel.AttrSpeciesName.String(scientificName)))
	defer span.End()

	var id int64
	err := s.pool.QueryRow(ctx,
		"INSERT INTO species (scientific_name, common_name) VALUES ($1, $2) RETURNING id",
		scientificName, commonName).Scan(&id)
	if err != nil {
		otel.RecordError(span, err)
		return 0, fmt.Errorf("failed to insert species %q: %w", scientificName, err)
	}
	return id, nil
}

// DeleteSpecies removes a species; occurrences cascade
func (s *Store) DeleteSpecies(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "postgres.DeleteSpecies",
		trace.WithAttributes(otel.AttrSpeciesID.Int64(id)))
	defer span.End()

	tag, err := s.pool.Exec(ctx, "DELETE FROM species WHERE id = $1", id)
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to delete species %d: %w", id, err)
	}
	return expectRow(tag, fmt.Sprintf("species %d", id))
}

// CountOccurrences counts occurrences with the given source and record key
func (s *Store) CountOccurrences(ctx context.Context, sourceID int64, recordKey uuid.UUID) (int64, error) {
	ctx, span := s.startSpan(ctx, "postgres.CountOccurrences")
	defer span.End()

	var count int64
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM occurrences WHERE source_id = $1 AND source_record_id = $2",
		sourceID, pgUUID(&recordKey)).Scan(&count)
	if err != nil {
		otel.RecordError(span, err)
		return 0, fmt.Errorf("failed to count occurrences: %w", err)
	}
	return count, nil
}

// InsertOccurrence stores a new occurrence
func (s *Store) InsertOccurrence(ctx context.Context, occ domain.Occurrence) (int64, error) {
	ctx, span := s.startSpan(ctx, "postgres.InsertOccurrence")
	defer span.End()

	rating := occ.Rating
	if rating == "" {
		rating = domain.DefaultRating
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO occurrences (latitude, longitude, rating, species_id, source_id, source_record_id)
		VALUES ($1, $2, $3::rating, $4, $5, $6)
		RETURNING id`,
		occ.Latitude, occ.Longitude, string(rating), occ.SpeciesID, occ.SourceID, pgUUID(occ.RecordKey)).Scan(&id)
	if err != nil {
		otel.RecordError(span, err)
		return 0, fmt.Errorf("failed to insert occurrence: %w", err)
	}
	return id, nil
}

// UpdateOccurrence overwrites the occurrence matching source and record key
func (s *Store) UpdateOccurrence(ctx context.Context, occ domain.Occurrence) error {
	if occ.RecordKey == nil {
		return fmt.Errorf("cannot update an occurrence without a record key")
	}

	ctx, span := s.startSpan(ctx, "postgres.UpdateOccurrence")
	defer span.End()

	tag, err := s.pool.Exec(ctx, `
		UPDATE occurrences SET latitude = $1, longitude = $2, rating = $3::rating, species_id = $4
		WHERE source_id = $5 AND source_record_id = $6`,
		occ.Latitude, occ.Longitude, string(occ.Rating), occ.SpeciesID, occ.SourceID, pgUUID(occ.RecordKey))
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to update occurrence %s: %w", occ.RecordKey, err)
	}
	return expectRow(tag, "occurrence "+occ.RecordKey.String())
}

// GetSource returns the named source
func (s *Store) GetSource(ctx context.Context, name string) (*domain.Source, error) {
	ctx, span := s.startSpan(ctx, "postgres.GetSource",
		trace.WithAttributes(otel.AttrSourceName.String(name)))
	defer span.End()

	var src domain.Source
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, last_import_time FROM sources WHERE name = $1", name).
		Scan(&src.ID, &src.Name, &src.LastImportTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("source %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to get source %q: %w", name, err)
	}
	return &src, nil
}

// InsertSource creates a source
func (s *Store) InsertSource(ctx context.Context, name string) (*domain.Source, error) {
	ctx, span := s.startSpan(ctx, "postgres.InsertSource",
		trace.WithAttributes(otel.AttrSourceName.String(name)))
	defer span.End()

	src := &domain.Source{Name: name}
	err := s.pool.QueryRow(ctx, "INSERT INTO sources (name) VALUES ($1) RETURNING id", name).Scan(&src.ID)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to insert source %q: %w", name, err)
	}
	return src, nil
}

// SetSourceWatermark records the last successful sync time
func (s *Store) SetSourceWatermark(ctx context.Context, sourceID int64, at time.Time) error {
	ctx, span := s.startSpan(ctx, "postgres.SetSourceWatermark")
	defer span.End()

	tag, err := s.pool.Exec(ctx, "UPDATE sources SET last_import_time = $1 WHERE id = $2", at.UTC(), sourceID)
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to set watermark for source %d: %w", sourceID, err)
	}
	return expectRow(tag, fmt.Sprintf("source %d", sourceID))
}

// Wipe deletes every row and resets identities
func (s *Store) Wipe(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "postgres.Wipe")
	defer span.End()

	_, err := s.pool.Exec(ctx, "TRUNCATE occurrences, species, sources RESTART IDENTITY CASCADE")
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to wipe tables: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close closes the pool when the store created it
func (s *Store) Close() error {
	if s.owned && s.pool != nil {
		slog.Info("Closing database connection pool")
		s.pool.Close()
	}
	return nil
}

func pgUUID(key *uuid.UUID) pgtype.UUID {
	if key == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *key, Valid: true}
}

func expectRow(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
