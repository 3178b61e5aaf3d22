// Package checkpoint persists scan progress to durable storage and
// rehydrates an interrupted scan from it. Writes are atomic; a write
// failure never aborts a scan, a read failure at resume time always does.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// ErrCorrupt marks a checkpoint file that exists but cannot be decoded.
var ErrCorrupt = errors.New("checkpoint file is corrupt")

// Manager writes scan state snapshots to one destination path.
type Manager struct {
	path   string
	logger *zap.Logger
}

// NewManager creates a checkpoint manager writing to path.
func NewManager(path string, logger *zap.Logger) *Manager {
	return &Manager{path: path, logger: logger}
}

// Save writes the state atomically: the snapshot goes to a temp file in the
// destination directory, then renames over the destination. A partially
// written temp file can therefore never be mistaken for a checkpoint.
func (m *Manager) Save(state *models.ScanState) error {
	state.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename checkpoint into place: %w", err)
	}

	return nil
}

// SaveOrWarn saves the state and downgrades any failure to a warning.
// Checkpointing is a durability aid, not a correctness requirement, so a
// failed write must not stop the scan.
func (m *Manager) SaveOrWarn(state *models.ScanState) {
	if err := m.Save(state); err != nil {
		m.logger.Warn("checkpoint write failed, scan continues",
			zap.String("path", m.path), zap.Error(err))
		return
	}
	m.logger.Debug("checkpoint written",
		zap.String("path", m.path),
		zap.Int("completed", len(state.CompletedResults)),
		zap.Int("remaining_networks", len(state.RemainingNetworks)),
	)
}

// Path returns the checkpoint destination.
func (m *Manager) Path() string {
	return m.path
}

// Remove deletes the checkpoint file, typically after a scan completed and
// the checkpoint is obsolete. A missing file is not an error.
func (m *Manager) Remove() error {
	err := os.Remove(m.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Load reads a checkpoint file. An unreadable or undecodable file returns
// an error wrapping ErrCorrupt with the path; callers must surface it to
// the operator rather than silently starting a fresh scan.
func Load(path string) (*models.ScanState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", path, err)
	}

	var state models.ScanState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if state.Parameters.PingsPerHost <= 0 && len(state.CompletedResults) == 0 && len(state.RemainingNetworks) == 0 {
		return nil, fmt.Errorf("%w: %s: no scan state present", ErrCorrupt, path)
	}

	return &state, nil
}
