package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/pronto/internal/logging"
	"github.com/Tiliavir/pronto/internal/watch"
)

func startWatcher(t *testing.T, paths ...string) (*atomic.Int32, chan struct{}) {
	t.Helper()
	var calls atomic.Int32
	changed := make(chan struct{}, 16)
	w := &watch.Watcher{
		Paths:    paths,
		Interval: 100 * time.Millisecond,
		Log:      logging.Nop(),
		OnChange: func() {
			calls.Add(1)
			changed <- struct{}{}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	// Give the watcher time to register before the test writes.
	time.Sleep(100 * time.Millisecond)
	return &calls, changed
}

func waitChange(t *testing.T, changed chan struct{}) {
	t.Helper()
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "27.json"), []byte("{}"), 0o600))
	waitChange(t, changed)
}

func TestWatcherFoldsBursts(t *testing.T) {
	dir := t.TempDir()
	calls, changed := startWatcher(t, dir)

	path := filepath.Join(dir, "27.json")
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(`{"date":"2026-02-27"}`), 0o600))
	require.NoError(t, os.Rename(tmp, path))
	waitChange(t, changed)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	month := filepath.Join(dir, "2026", "02")
	require.NoError(t, os.MkdirAll(month, 0o700))
	waitChange(t, changed)

	// The new directory is now watched as well.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(month, "27.json"), []byte("{}"), 0o600))
	waitChange(t, changed)
}

func TestWatcherFollowsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("language: en\n"), 0o600))
	calls, changed := startWatcher(t, cfg)

	replace := func(content string) {
		tmp := cfg + ".tmp"
		require.NoError(t, os.WriteFile(tmp, []byte(content), 0o600))
		require.NoError(t, os.Rename(tmp, cfg))
	}

	replace("language: pt\n")
	waitChange(t, changed)
	time.Sleep(300 * time.Millisecond)

	replace("language: en\n")
	waitChange(t, changed)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load(), "siblings of a watched file are ignored")
}

func TestWatcherMissingPath(t *testing.T) {
	w := &watch.Watcher{
		Paths:    []string{filepath.Join(t.TempDir(), "missing")},
		Log:      logging.Nop(),
		OnChange: func() {},
	}
	assert.Error(t, w.Run(context.Background()))
}
