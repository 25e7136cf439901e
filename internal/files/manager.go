package files

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Manager provides operations on the session directories under root
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a new file manager rooted at the output directory
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{root: root, logger: logger}
}

// Root returns the directory holding the session directories
func (m *Manager) Root() string {
	return m.root
}

// SessionDir returns the report directory of a session
func (m *Manager) SessionDir(id string) string {
	return filepath.Join(m.root, id)
}

// EnsureSessionDir creates the report directory of a session if needed
func (m *Manager) EnsureSessionDir(id string) (string, error) {
	if !isSessionID(id) {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	dir := m.SessionDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create session directory %s: %w", dir, err)
	}
	return dir, nil
}

// RemoveSessionDir deletes the report directory of a session. Removing a
// directory that does not exist is not an error.
func (m *Manager) RemoveSessionDir(id string) error {
	if !isSessionID(id) {
		return fmt.Errorf("invalid session id %q", id)
	}
	dir := m.SessionDir(id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove session directory %s: %w", dir, err)
	}
	m.logger.Debug("Session directory removed", slog.String("dir", dir))
	return nil
}

// ListSessionIDs returns the ids of the session directories under root.
// Entries whose name is not a session id are ignored.
func (m *Manager) ListSessionIDs() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", m.root, err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && isSessionID(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

// SweepSessionDirs removes every session directory for which keep returns
// false and returns how many were removed
func (m *Manager) SweepSessionDirs(ctx context.Context, keep func(id string) bool) (int, error) {
	ids, err := m.ListSessionIDs()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if keep != nil && keep(id) {
			continue
		}
		if err := m.RemoveSessionDir(id); err != nil {
			m.logger.WarnContext(ctx, "Failed to sweep session directory",
				slog.String("session_id", id),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	if removed > 0 {
		m.logger.InfoContext(ctx, "Swept stale session directories",
			slog.String("root", m.root),
			slog.Int("removed", removed))
	}
	return removed, nil
}

// isSessionID reports whether name is a canonical session id. It keeps
// path separators and ".." out of the directories the Manager touches.
func isSessionID(name string) bool {
	id, err := uuid.Parse(name)
	return err == nil && id.String() == name
}
