package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fialia9363/fialiaoi-cpp/internal/watcher"
)

func startWatcher(t *testing.T, path string) (*watcher.Watcher, <-chan string) {
	t.Helper()
	w, err := watcher.New(watcher.Config{
		Path:        path,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return w, onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cpp")
	require.NoError(t, os.WriteFile(path, []byte("int x;"), 0644))

	_, onChange := startWatcher(t, path)

	// Rapid writes should coalesce into single notification
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("int x%d;", i)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case got := <-onChange:
		assert.Equal(t, path, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cpp")
	otherPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(otherPath, []byte("initial"), 0644))

	_, onChange := startWatcher(t, path)

	require.NoError(t, os.WriteFile(otherPath, []byte("other content"), 0644))

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_RenameOverTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.py")
	require.NoError(t, os.WriteFile(path, []byte("a = 1\n"), 0644))

	_, onChange := startWatcher(t, path)

	tmp := filepath.Join(dir, ".script.py.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("a = 2\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case got := <-onChange:
		assert.Equal(t, path, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for rename over target")
	}
}

func TestWatcher_Retarget(t *testing.T) {
	first := filepath.Join(t.TempDir(), "a.cpp")
	secondDir := t.TempDir()
	second := filepath.Join(secondDir, "b.cpp")
	require.NoError(t, os.WriteFile(first, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("y"), 0644))

	w, onChange := startWatcher(t, first)
	require.NoError(t, w.Retarget(second))
	assert.Equal(t, second, w.Path())

	require.NoError(t, os.WriteFile(second, []byte("yy"), 0644))

	select {
	case got := <-onChange:
		assert.Equal(t, second, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for retargeted file")
	}
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.cpp")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	w, err := watcher.New(watcher.DefaultConfig(path))
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		assert.NoError(t, w.Stop(), "second Stop is a no-op")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/src/main.cpp")

	assert.Equal(t, "/src/main.cpp", cfg.Path)
	assert.Equal(t, 200*time.Millisecond, cfg.DebounceDur)
}
