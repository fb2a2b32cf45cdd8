package index

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codepilot/internal/logging"
)

// osStat is a package-level var to allow test injection.
var osStat = os.Stat

// Watcher keeps the index current by re-indexing files as they change on
// disk. Events for the same path are debounced so editor save bursts
// trigger a single re-index.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	index    *Index
	extSet   map[string]bool
	ignores  []string
	debounce time.Duration
	pending  map[string]*time.Timer
	running  bool
	done     chan struct{}
}

// NewWatcher creates a watcher for the index's root directory.
func NewWatcher(ix *Index, extensions, ignorePatterns []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if len(ignorePatterns) == 0 {
		ignorePatterns = DefaultIgnorePatterns
	}
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[strings.ToLower(e)] = true
	}
	return &Watcher{
		fsw:      fsw,
		index:    ix,
		extSet:   extSet,
		ignores:  ignorePatterns,
		debounce: 300 * time.Millisecond,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins processing events. It is
// non-blocking; Stop or context cancellation ends the event loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	err := filepath.WalkDir(w.index.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if isIgnored(path, w.ignores) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return err
	}

	go w.loop(ctx)
	logging.Watcher("watching %s", w.index.Root())
	return nil
}

// Stop ends the event loop and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Watcher("watch error: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if isIgnored(path, w.ignores) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if w.extSet[strings.ToLower(filepath.Ext(path))] {
			logging.WatcherDebug("removed: %s", path)
			w.index.Remove(ctx, path)
		}

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		// New directories must be registered to see their files.
		if event.Has(fsnotify.Create) {
			if info, err := fsInfo(path); err == nil && info {
				_ = w.fsw.Add(path)
				return
			}
		}
		if !w.extSet[strings.ToLower(filepath.Ext(path))] {
			return
		}
		w.schedule(ctx, path)
	}
}

// schedule arms (or re-arms) the debounce timer for a path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if _, err := w.index.IndexFile(ctx, path); err != nil {
			logging.WatcherDebug("re-index failed for %s: %v", path, err)
			return
		}
		logging.WatcherDebug("re-indexed: %s", path)
	})
}

func fsInfo(path string) (isDir bool, err error) {
	info, err := osStat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
