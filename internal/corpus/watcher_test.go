package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatcherCreation(t *testing.T) {
	watcher, err := NewWatcher(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	if watcher.watcher == nil {
		t.Error("expected non-nil fsnotify watcher")
	}

	watcher.watcher.Close()
}

func TestWatcherIgnoresNonSliceFiles(t *testing.T) {
	watcher, err := NewWatcher(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer watcher.watcher.Close()

	watcher.handleEvent(fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write})
	watcher.handleEvent(fsnotify.Event{Name: "slice.json", Op: fsnotify.Chmod})

	watcher.mu.Lock()
	pending := len(watcher.pending)
	watcher.mu.Unlock()
	if pending != 0 {
		t.Errorf("pending = %d, want 0 for irrelevant events", pending)
	}

	watcher.handleEvent(fsnotify.Event{Name: "slice.json", Op: fsnotify.Write})
	watcher.mu.Lock()
	pending = len(watcher.pending)
	watcher.mu.Unlock()
	if pending != 1 {
		t.Errorf("pending = %d, want 1 after a slice write", pending)
	}
}

func TestWatcherBatchesSettledFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slice.0-999.json")
	if err := os.WriteFile(path, []byte(`{"playlists":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	var got []string
	watcher, err := NewWatcher(dir, func(ctx context.Context, paths []string) error {
		got = paths
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer watcher.watcher.Close()
	watcher.debounceTime = time.Millisecond

	watcher.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
	time.Sleep(5 * time.Millisecond)
	watcher.processPending(context.Background())

	if len(got) != 1 || got[0] != path {
		t.Errorf("callback got %v, want the settled slice file", got)
	}
}

func TestWatcherSkipsVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.json")

	called := false
	watcher, err := NewWatcher(dir, func(ctx context.Context, paths []string) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer watcher.watcher.Close()
	watcher.debounceTime = time.Millisecond

	watcher.handleEvent(fsnotify.Event{Name: gone, Op: fsnotify.Create})
	time.Sleep(5 * time.Millisecond)
	watcher.processPending(context.Background())

	if called {
		t.Error("callback invoked for a file that no longer exists")
	}
}
