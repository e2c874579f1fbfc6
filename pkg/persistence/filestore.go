// Package persistence provides the daemon shell's on-disk implementation of
// the core's wm.PersistenceStore: one JSON file per monitor id.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/frostplexx/yuki/internal/wm"
	"github.com/frostplexx/yuki/pkg/models"
)

// FileStore persists each monitor's workspace list as its own JSON file
// under dir, named by a filesystem-safe encoding of the monitor id.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore returns a store rooted at dir, creating it if necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persistence: create state dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir returns $XDG_STATE_HOME/yuki, falling back to
// $HOME/.local/state/yuki when XDG_STATE_HOME is unset.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "yuki")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "yuki")
	}
	return filepath.Join(home, ".local", "state", "yuki")
}

func (s *FileStore) path(monitorID models.MonitorID) string {
	return filepath.Join(s.dir, fmt.Sprintf("monitor-%s.json", sanitize(string(monitorID))))
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "unknown"
	}
	return string(out)
}

// Load returns the monitor's saved workspace records, or an empty slice if
// no file exists yet.
func (s *FileStore) Load(ctx context.Context, monitorID models.MonitorID) ([]wm.WorkspaceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(monitorID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persistence: read %s: %w", monitorID, err)
	}
	var records []wm.WorkspaceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("persistence: decode %s: %w", monitorID, err)
	}
	return records, nil
}

// Save writes the monitor's workspace records, replacing any prior file.
func (s *FileStore) Save(ctx context.Context, monitorID models.MonitorID, records []wm.WorkspaceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: encode %s: %w", monitorID, err)
	}
	tmp := s.path(monitorID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persistence: write %s: %w", monitorID, err)
	}
	if err := os.Rename(tmp, s.path(monitorID)); err != nil {
		return fmt.Errorf("persistence: rename %s: %w", monitorID, err)
	}
	return nil
}

var _ wm.PersistenceStore = (*FileStore)(nil)
