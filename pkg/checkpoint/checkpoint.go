// Package checkpoint persists the pagination state of a direct follower
// walk. The follower store itself is checkpointed after every page; this
// package keeps the matching cursor so a second invocation resumes at the
// last unprocessed page instead of walking the list from the start.
//
// Checkpoint files live under <data-dir>/checkpoints/, one per target,
// and are written atomically.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"igcollect/pkg/logger"
)

// Walk is the persisted state of one follower walk
type Walk struct {
	Target    string    `json:"target"`
	UserID    string    `json:"user_id"`
	Cursor    string    `json:"cursor"`
	Pages     int       `json:"pages"`
	Collected int       `json:"collected"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Manager reads and writes the checkpoint file for one target
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a manager for the target's checkpoint file under
// dataDir
func NewManager(dataDir, target string) (*Manager, error) {
	dir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		path:   filepath.Join(dir, fmt.Sprintf("%s.walk.json", target)),
		logger: logger.GetLogger(),
	}, nil
}

// Create starts a fresh walk checkpoint for the resolved target
func (m *Manager) Create(target, userID string) (*Walk, error) {
	walk := &Walk{
		Target:    target,
		UserID:    userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Version:   1,
	}

	if err := m.Save(walk); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}
	return walk, nil
}

// Load reads an existing checkpoint; (nil, nil) means there is none
func (m *Manager) Load() (*Walk, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var walk Walk
	if err := json.NewDecoder(file).Decode(&walk); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	m.logger.InfoWithFields("walk checkpoint loaded", map[string]interface{}{
		"target":    walk.Target,
		"pages":     walk.Pages,
		"collected": walk.Collected,
	})
	return &walk, nil
}

// Save writes the checkpoint atomically via a temp file and rename
func (m *Manager) Save(walk *Walk) error {
	walk.UpdatedAt = time.Now()

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(walk); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}
	return nil
}

// Advance records one collected page and persists the next-page cursor
func (m *Manager) Advance(walk *Walk, nextCursor string, pageRecords int) error {
	walk.Cursor = nextCursor
	walk.Pages++
	walk.Collected += pageRecords
	return m.Save(walk)
}

// Delete removes the checkpoint file; a finished walk needs no cursor
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Exists reports whether a checkpoint file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
