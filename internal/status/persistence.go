// Package status provides sync phase and status tracking for scheduled runs,
// with optional persistence so serve mode survives restarts.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for sync status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status for a source
	SaveStatus(ctx context.Context, sourceName string, status *SyncStatus) error

	// LoadStatus loads the sync status for a source.
	// Returns an empty SyncStatus if nothing was saved yet (first run)
	LoadStatus(ctx context.Context, sourceName string) (*SyncStatus, error)
}

// fileStatusPersistence implements StatusPersistence using local filesystem
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence.
// basePath is the base directory where per-source status files are stored
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

// SaveStatus writes the status as JSON to a source-specific directory
func (f *fileStatusPersistence) SaveStatus(_ context.Context, sourceName string, status *SyncStatus) error {
	if err := validSourceName(sourceName); err != nil {
		return err
	}

	sourceDir := filepath.Join(f.basePath, sourceName)
	if err := os.MkdirAll(sourceDir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory for source '%s': %w", sourceName, err)
	}

	filePath := filepath.Join(sourceDir, StatusFileName)

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data for source '%s': %w", sourceName, err)
	}

	// Write to temporary file first for atomic operation
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file for source '%s': %w", sourceName, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file for source '%s': %w", sourceName, err)
	}

	return nil
}

// LoadStatus reads the status for a source.
// Returns an empty SyncStatus if the file doesn't exist
func (f *fileStatusPersistence) LoadStatus(_ context.Context, sourceName string) (*SyncStatus, error) {
	if err := validSourceName(sourceName); err != nil {
		return nil, err
	}

	filePath := filepath.Join(f.basePath, sourceName, StatusFileName)

	// #nosec G304 -- filePath is basePath plus a validated source name
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &SyncStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for source '%s': %w", sourceName, err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for source '%s': %w", sourceName, err)
	}

	return &status, nil
}

func validSourceName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid source name: %q", name)
	}
	return nil
}
