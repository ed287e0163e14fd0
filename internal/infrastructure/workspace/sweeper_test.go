package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersynth/papersynth/pkg/logger"
)

func newTestSweeper(t *testing.T, ttl time.Duration, sizeCap int64) (*Manager, *Sweeper) {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	s := NewSweeper(m, ttl, sizeCap, time.Hour, logger.NewNoopLogger(), nil)
	return m, s
}

func makeWorkspace(t *testing.T, m *Manager, id string, size int, age time.Duration) {
	t.Helper()
	ws, err := m.Create(id)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "paper.pdf"), make([]byte, size), 0o644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(ws.Dir(), old, old))
}

func TestSweepRemovesExpiredWorkspaces(t *testing.T) {
	m, s := newTestSweeper(t, time.Hour, 0)

	makeWorkspace(t, m, "stale", 600, 2*time.Hour)
	makeWorkspace(t, m, "fresh", 100, time.Minute)

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TTLEvicted)
	assert.Equal(t, int64(600), report.ReclaimedBytes)
	assert.NoDirExists(t, filepath.Join(m.Root(), "stale"))
	assert.DirExists(t, filepath.Join(m.Root(), "fresh"))
}

func TestSweepKeepsYoungWorkspaces(t *testing.T) {
	m, s := newTestSweeper(t, 24*time.Hour, 0)

	makeWorkspace(t, m, "a", 100, time.Hour)
	makeWorkspace(t, m, "b", 100, 2*time.Hour)

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.TTLEvicted)
	assert.Zero(t, report.SizeEvicted)
	assert.Equal(t, int64(200), report.RemainingBytes)
}

func TestSweepEnforcesSizeCapOldestFirst(t *testing.T) {
	m, s := newTestSweeper(t, 24*time.Hour, 500)

	makeWorkspace(t, m, "oldest", 300, 3*time.Hour)
	makeWorkspace(t, m, "middle", 300, 2*time.Hour)
	makeWorkspace(t, m, "newest", 300, time.Hour)

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)

	// 900 bytes total, cap 500: remove oldest (600 left), then middle (300
	// left), then stop.
	assert.Equal(t, 2, report.SizeEvicted)
	assert.NoDirExists(t, filepath.Join(m.Root(), "oldest"))
	assert.NoDirExists(t, filepath.Join(m.Root(), "middle"))
	assert.DirExists(t, filepath.Join(m.Root(), "newest"))
	assert.Equal(t, int64(300), report.RemainingBytes)
}

func TestSweepSizeCapStopsAtBoundary(t *testing.T) {
	m, s := newTestSweeper(t, 24*time.Hour, 600)

	makeWorkspace(t, m, "old", 300, 2*time.Hour)
	makeWorkspace(t, m, "new", 300, time.Hour)

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)

	// Exactly at the cap: nothing removed.
	assert.Zero(t, report.SizeEvicted)
	assert.Equal(t, int64(600), report.RemainingBytes)
}

func TestSweepTTLPassRunsBeforeSizePass(t *testing.T) {
	m, s := newTestSweeper(t, time.Hour, 500)

	makeWorkspace(t, m, "expired", 400, 2*time.Hour)
	makeWorkspace(t, m, "a", 300, 30*time.Minute)
	makeWorkspace(t, m, "b", 200, 10*time.Minute)

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)

	// TTL pass reclaims 400 bytes, leaving 500 which fits the cap.
	assert.Equal(t, 1, report.TTLEvicted)
	assert.Zero(t, report.SizeEvicted)
	assert.DirExists(t, filepath.Join(m.Root(), "a"))
	assert.DirExists(t, filepath.Join(m.Root(), "b"))
}

func TestSweepIgnoresStrayFilesInRoot(t *testing.T) {
	m, s := newTestSweeper(t, time.Hour, 0)

	require.NoError(t, os.WriteFile(filepath.Join(m.Root(), "stray.txt"), []byte("x"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(m.Root(), "stray.txt"), old, old))

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.TTLEvicted)
	assert.FileExists(t, filepath.Join(m.Root(), "stray.txt"))
}

func TestSweeperStartStop(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	makeWorkspace(t, m, "stale", 10, 2*time.Hour)

	s := NewSweeper(m, time.Hour, 0, 50*time.Millisecond, logger.NewNoopLogger(), nil)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(m.Root(), "stale"))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}
