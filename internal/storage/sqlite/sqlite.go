// Package sqlite provides a repository stored in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/storage/sqlite/migrations"
)

const pragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Store is a SQLite-backed repository
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serialises writers and keeps per-connection pragmas in force.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("SQLite database ready", "path", path)
	return s, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// migrate applies every NNN_name.up.sql file newer than the recorded version.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}
		slog.Debug("Applied migration", "name", name)
	}

	return nil
}

// SelectAllSpecies returns the catalog ordered by scientific name
func (s *Store) SelectAllSpecies(ctx context.Context) ([]domain.Species, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, scientific_name, common_name FROM species ORDER BY scientific_name")
	if err != nil {
		return nil, fmt.Errorf("failed to select species: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []domain.Species
	for rows.Next() {
		var sp domain.Species
		if err := rows.Scan(&sp.ID, &sp.ScientificName, &sp.CommonName); err != nil {
			return nil, fmt.Errorf("failed to scan species: %w", err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate species: %w", err)
	}
	if out == nil {
		out = []domain.Species{}
	}
	return out, nil
}

// InsertSpecies adds a species
func (s *Store) InsertSpecies(ctx context.Context, scientificName, commonName string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO species (scientific_name, common_name) VALUES (?, ?)", scientificName, commonName)
	if err != nil {
		return 0, fmt.Errorf("failed to insert species %q: %w", scientificName, err)
	}
	return res.LastInsertId()
}

// DeleteSpecies removes a species; occurrences cascade
func (s *Store) DeleteSpecies(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM species WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete species %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("species %d", id))
}

// CountOccurrences counts occurrences with the given source and record key
func (s *Store) CountOccurrences(ctx context.Context, sourceID int64, recordKey uuid.UUID) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM occurrences WHERE source_id = ? AND source_record_id = ?",
		sourceID, recordKey[:]).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count occurrences: %w", err)
	}
	return count, nil
}

// InsertOccurrence stores a new occurrence
func (s *Store) InsertOccurrence(ctx context.Context, occ domain.Occurrence) (int64, error) {
	rating := occ.Rating
	if rating == "" {
		rating = domain.DefaultRating
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO occurrences (latitude, longitude, rating, species_id, source_id, source_record_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		occ.Latitude, occ.Longitude, string(rating), occ.SpeciesID, occ.SourceID, keyBytes(occ.RecordKey))
	if err != nil {
		return 0, fmt.Errorf("failed to insert occurrence: %w", err)
	}
	return res.LastInsertId()
}

// UpdateOccurrence overwrites the occurrence matching source and record key
func (s *Store) UpdateOccurrence(ctx context.Context, occ domain.Occurrence) error {
	if occ.RecordKey == nil {
		return fmt.Errorf("cannot update an occurrence without a record key")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE occurrences SET latitude = ?, longitude = ?, rating = ?, species_id = ?
		WHERE source_id = ? AND source_record_id = ?`,
		occ.Latitude, occ.Longitude, string(occ.Rating), occ.SpeciesID, occ.SourceID, keyBytes(occ.RecordKey))
	if err != nil {
		return fmt.Errorf("failed to update occurrence %s: %w", occ.RecordKey, err)
	}
	return expectRow(res, "occurrence "+occ.RecordKey.String())
}

// GetSource returns the named source
func (s *Store) GetSource(ctx context.Context, name string) (*domain.Source, error) {
	var (
		src  domain.Source
		last sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, last_import_time FROM sources WHERE name = ?", name).
		Scan(&src.ID, &src.Name, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %q: %w", name, err)
	}

	if last.Valid {
		t, err := time.Parse(time.RFC3339Nano, last.String)
		if err != nil {
			return nil, fmt.Errorf("invalid watermark for source %q: %w", name, err)
		}
		src.LastImportTime = &t
	}
	return &src, nil
}

// InsertSource creates a source
func (s *Store) InsertSource(ctx context.Context, name string) (*domain.Source, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO sources (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert source %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.Source{ID: id, Name: name}, nil
}

// SetSourceWatermark records the last successful sync time
func (s *Store) SetSourceWatermark(ctx context.Context, sourceID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sources SET last_import_time = ? WHERE id = ?",
		at.UTC().Format(time.RFC3339Nano), sourceID)
	if err != nil {
		return fmt.Errorf("failed to set watermark for source %d: %w", sourceID, err)
	}
	return expectRow(res, fmt.Sprintf("source %d", sourceID))
}

// Wipe deletes every row
func (s *Store) Wipe(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, table := range []string{"occurrences", "species", "sources"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil { // #nosec G202 -- fixed table names
			_ = tx.Rollback()
			return fmt.Errorf("failed to wipe %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func keyBytes(key *uuid.UUID) any {
	if key == nil {
		return nil
	}
	return key[:]
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
