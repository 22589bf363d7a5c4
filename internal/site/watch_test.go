package site

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, configPath, outputDir string) *atomic.Int32 {
	t.Helper()
	var builds atomic.Int32
	w, err := NewWatcher(configPath, outputDir, func(context.Context) error {
		builds.Add(1)
		return nil
	}, 20*time.Millisecond, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	return &builds
}

func TestWatcherRebuildsOnConfigChange(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "bobdocs.yaml")
	outputDir := filepath.Join(root, "build")
	require.NoError(t, os.WriteFile(configPath, []byte("site: {}\n"), 0o644))
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	builds := startWatcher(t, configPath, outputDir)

	require.NoError(t, os.WriteFile(configPath, []byte("site: {title: Bob}\n"), 0o644))
	assert.Eventually(t, func() bool { return builds.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherRebuildsOnNewPage(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "bobdocs.yaml")
	outputDir := filepath.Join(root, "build")
	require.NoError(t, os.WriteFile(configPath, []byte("site: {}\n"), 0o644))
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	builds := startWatcher(t, configPath, outputDir)

	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "index.html"), []byte(samplePage), 0o644))
	assert.Eventually(t, func() bool { return builds.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "bobdocs.yaml")
	outputDir := filepath.Join(root, "build")
	require.NoError(t, os.WriteFile(configPath, []byte("site: {}\n"), 0o644))
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	builds := startWatcher(t, configPath, outputDir)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, ReportFile), []byte("{}"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), builds.Load())
}

func TestWatcherWaitsForMissingOutputDir(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, "config")
	configPath := filepath.Join(configDir, "bobdocs.yaml")
	outputDir := filepath.Join(root, "site", "build")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte("site: {}\n"), 0o644))

	builds := startWatcher(t, configPath, outputDir)

	// Created one level at a time so each new level must be picked up.
	require.NoError(t, os.Mkdir(filepath.Join(root, "site"), 0o755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.Mkdir(outputDir, 0o755))
	assert.Eventually(t, func() bool { return builds.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	// Pages rendered into the new directory are watched too.
	time.Sleep(100 * time.Millisecond)
	before := builds.Load()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "index.html"), []byte(samplePage), 0o644))
	assert.Eventually(t, func() bool { return builds.Load() > before }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresUnrelatedSiblingOfMissingOutput(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, "config")
	configPath := filepath.Join(configDir, "bobdocs.yaml")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte("site: {}\n"), 0o644))

	builds := startWatcher(t, configPath, filepath.Join(root, "site", "build"))

	require.NoError(t, os.Mkdir(filepath.Join(root, "other"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "page.html"), []byte(samplePage), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), builds.Load())
}
