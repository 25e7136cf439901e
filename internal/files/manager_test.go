package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelflow/internal/shared/testutil"
)

func TestSessionDirLifecycle(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil)
	id := uuid.New().String()

	dir, err := m.EnsureSessionDir(id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, id), dir)
	assert.DirExists(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary_report.xlsx"), []byte("x"), 0644))

	ids, err := m.ListSessionIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	require.NoError(t, m.RemoveSessionDir(id))
	assert.NoDirExists(t, dir)

	// removing twice is fine
	assert.NoError(t, m.RemoveSessionDir(id))
}

func TestRejectsNonSessionNames(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	for _, name := range []string{"", "..", "../etc", "report", "a/b"} {
		_, err := m.EnsureSessionDir(name)
		assert.Error(t, err, name)
		assert.Error(t, m.RemoveSessionDir(name), name)
	}
}

func TestListSessionIDsIgnoresOtherEntries(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil)

	id := uuid.New().String()
	require.NoError(t, os.MkdirAll(filepath.Join(root, id), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "archive"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, uuid.New().String()), []byte("file"), 0644))

	ids, err := m.ListSessionIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestListSessionIDsMissingRoot(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"), nil)
	ids, err := m.ListSessionIDs()
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSweepSessionDirs(t *testing.T) {
	root := t.TempDir()
	logger, handler := testutil.NewTestLogger(t)
	m := NewManager(root, logger)

	live := uuid.New().String()
	stale := uuid.New().String()
	for _, id := range []string{live, stale} {
		_, err := m.EnsureSessionDir(id)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "automation.log"), []byte("{}"), 0644))

	removed, err := m.SweepSessionDirs(context.Background(), func(id string) bool { return id == live })
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.DirExists(t, filepath.Join(root, live))
	assert.NoDirExists(t, filepath.Join(root, stale))
	assert.FileExists(t, filepath.Join(root, "automation.log"))
	assert.True(t, handler.ContainsMessage("Swept stale session directories"))
}

func TestSweepSessionDirsCancelled(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil)
	_, err := m.EnsureSessionDir(uuid.New().String())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	removed, err := m.SweepSessionDirs(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, removed)
}
