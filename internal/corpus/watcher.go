package corpus

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// UpdateFunc receives slice files that have settled after a change. The
// watcher never calls it concurrently with itself.
type UpdateFunc func(ctx context.Context, paths []string) error

// Watcher monitors a corpus directory for new or changed slice files and
// hands settled batches to an update callback.
type Watcher struct {
	dir          string
	fn           UpdateFunc
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	mu           sync.Mutex
	pending      map[string]time.Time
	done         chan struct{}
}

// NewWatcher creates a watcher over the corpus directory.
func NewWatcher(dir string, fn UpdateFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:          dir,
		fn:           fn,
		watcher:      fsWatcher,
		debounceTime: 500 * time.Millisecond,
		pending:      make(map[string]time.Time),
		done:         make(chan struct{}),
	}, nil
}

// Start begins watching for slice file changes. Blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	go w.debounceLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			close(w.done)
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

// handleEvent queues a slice file for processing with debounce.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if !strings.HasSuffix(event.Name, ".json") {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// debounceLoop periodically processes pending files.
func (w *Watcher) debounceLoop(ctx context.Context) {
	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending hands files that have settled (no changes within the
// debounce window) to the update callback as one batch.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string

	for path, lastChange := range w.pending {
		if now.Sub(lastChange) >= w.debounceTime {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	var existing []string
	for _, path := range ready {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return
	}

	if err := w.fn(ctx, existing); err != nil {
		log.Printf("updating from %d slice files: %v", len(existing), err)
	}
}
