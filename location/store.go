package location

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"tripcast/internal/logger"
)

const snapshotSchemaVersion = 1

// snapshotFile is the on-disk shape of the persisted snapshot.
type snapshotFile struct {
	SchemaVersion int             `json:"schema_version"`
	SavedAt       time.Time       `json:"saved_at"`
	Snapshot      WeatherSnapshot `json:"snapshot"`
}

// SnapshotStore persists the last resolved snapshot to a single local JSON
// file so the UI can paint immediately on the next start.
type SnapshotStore struct {
	filePath string
	mu       sync.Mutex
}

// NewSnapshotStore creates a store writing to filePath.
func NewSnapshotStore(filePath string) *SnapshotStore {
	return &SnapshotStore{filePath: filePath}
}

// Read loads the persisted snapshot and the instant it was saved. A missing
// file is a plain miss (os.ErrNotExist); an unparseable or wrong-version file
// is treated the same by callers, logged, never fatal.
func (s *SnapshotStore) Read() (*WeatherSnapshot, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, err
		}
		return nil, time.Time{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		logger.Warn("Snapshot file corrupt, treating as cache miss: %v", err)
		return nil, time.Time{}, fmt.Errorf("failed to parse snapshot file: %w", err)
	}
	if file.SchemaVersion != snapshotSchemaVersion {
		logger.Warn("Snapshot schema version %d unsupported, treating as cache miss", file.SchemaVersion)
		return nil, time.Time{}, fmt.Errorf("unsupported snapshot schema version: %d", file.SchemaVersion)
	}

	return &file.Snapshot, file.SavedAt, nil
}

// Write persists the snapshot atomically (temp file + rename).
func (s *SnapshotStore) Write(snap *WeatherSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := snapshotFile{
		SchemaVersion: snapshotSchemaVersion,
		SavedAt:       time.Now(),
		Snapshot:      *snap,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to finalize snapshot file: %w", err)
	}

	logger.Debug("Snapshot persisted: location=%s source=%s", snap.LocationName, snap.Source)
	return nil
}

// Delete removes the snapshot file (used by tests and manual resets).
func (s *SnapshotStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}
