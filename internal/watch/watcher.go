// Package watch monitors icon source directories for new or changed files.
// Events are debounced: a file is reported only after its size and mtime
// stop changing, so half-written SVGs and archives are never picked up.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long a file must stay unchanged before it is reported.
const DefaultSettleDelay = 2 * time.Second

// Event describes a settled file.
type Event struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Options configures a Watcher.
type Options struct {
	// SettleDelay overrides DefaultSettleDelay.
	SettleDelay time.Duration
	// Extensions limits events to the given lowercase extensions
	// (with dot, e.g. ".svg"). Empty means all files.
	Extensions []string
}

// pendingFile tracks a file that may still be changing.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// Watcher watches directories recursively and emits settled file events.
type Watcher struct {
	opts    Options
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	pending map[string]*pendingFile
	mu      sync.Mutex

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// New creates a watcher. Call Watch to add directories, then Start.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		opts:    opts,
		logger:  logger,
		watcher: fsw,
		pending: make(map[string]*pendingFile),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a directory tree to be monitored.
func (w *Watcher) Watch(root string) error {
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path is not a directory: %s", root)
	}

	return w.watchDir(root)
}

func (w *Watcher) watchDir(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.Error("failed to add watch", "path", p, "error", err)
			return nil
		}
		w.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start processes filesystem events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.processEvents(ctx)

	<-ctx.Done()
	return nil
}

// Events returns the channel of settled file events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	w.once.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		w.watcher.Close()
		w.wg.Wait()

		close(w.events)
		close(w.errors)
	})
	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// New directories get watched; new files get debounced.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = w.watchDir(path)
			return
		}
	}

	if event.Op&fsnotify.Remove != 0 {
		w.cancelPending(path)
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		if !w.wantsFile(path) {
			return
		}
		w.startSettling(path)
	}
}

func (w *Watcher) wantsFile(path string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.opts.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, exists := w.pending[path]; exists {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		return
	}
	if info.IsDir() {
		return
	}

	p := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		w.checkSettled(path)
	})
	w.pending[path] = p
}

func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, exists := w.pending[path]
	if !exists {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Deleted while settling.
		delete(w.pending, path)
		return
	}

	if info.Size() != p.size || info.ModTime() != p.modTime {
		// Still changing, restart the clock.
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		})
		return
	}

	delete(w.pending, path)

	event := Event{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	select {
	case w.events <- event:
	case <-w.done:
	}
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, exists := w.pending[path]; exists {
		p.timer.Stop()
		delete(w.pending, path)
	}
}
