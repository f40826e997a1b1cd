// Package watch monitors directories of SQL scripts and reports changed
// files so callers can retranslate them.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/transqlate/transqlate/pkg/log"
)

// Watcher monitors one or more script directories for changes.
type Watcher struct {
	mu sync.RWMutex

	roots  []string
	logger *log.Logger

	fsWatcher *fsnotify.Watcher

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Debouncing: collect events and process in batches
	debounceDelay time.Duration
	pendingEvents map[string]fsnotify.Op
	eventTimer    *time.Timer

	// Callbacks
	onChange func(changed, removed []string)
	onError  func(err error)
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounceDelay sets the debounce delay for batching file events.
// Default is 100ms.
func WithDebounceDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithOnError sets a callback for error events.
func WithOnError(fn func(err error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a watcher over roots. onChange receives the batched paths of
// created or modified .sql files and the paths of removed ones.
func New(roots []string, logger *log.Logger, onChange func(changed, removed []string), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{
		roots:         roots,
		logger:        logger,
		fsWatcher:     fsw,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		debounceDelay: 100 * time.Millisecond,
		pendingEvents: make(map[string]fsnotify.Op),
		onChange:      onChange,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, root := range w.roots {
		if err := w.addWatchesRecursive(root); err != nil {
			return err
		}
	}

	w.logger.System().Info("script watcher started",
		"roots", strings.Join(w.roots, ","),
	)

	go w.processEvents()

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.logger.System().Info("script watcher stopped")

	return w.fsWatcher.Close()
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// addWatchesRecursive adds watches for a directory and all subdirectories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		// Skip hidden directories
		if strings.HasPrefix(info.Name(), ".") && path != root {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.System().Warn("failed to watch directory",
				"path", path,
				"error", err.Error(),
			)
			return nil
		}

		w.logger.System().Debug("watching directory",
			"path", path,
		)

		return nil
	})
}

// processEvents handles fsnotify events.
func (w *Watcher) processEvents() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			if w.eventTimer != nil {
				w.eventTimer.Stop()
			}
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.System().Error("watcher error", err)
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// handleEvent processes a single fsnotify event with debouncing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Only care about SQL files
	if !strings.HasSuffix(strings.ToLower(event.Name), ".sql") {
		// But handle new directories
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				w.fsWatcher.Add(event.Name)
				w.logger.System().Debug("added watch for new directory",
					"path", event.Name,
				)
			}
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Accumulate events (last operation wins for same file)
	w.pendingEvents[event.Name] = event.Op

	if w.eventTimer != nil {
		w.eventTimer.Stop()
	}
	w.eventTimer = time.AfterFunc(w.debounceDelay, w.flushPendingEvents)
}

// flushPendingEvents hands all accumulated events to the callback.
func (w *Watcher) flushPendingEvents() {
	w.mu.Lock()
	events := w.pendingEvents
	w.pendingEvents = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	var changed, removed []string
	for path, op := range events {
		switch {
		case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
			removed = append(removed, path)
		case op.Has(fsnotify.Create) || op.Has(fsnotify.Write):
			changed = append(changed, path)
		}
	}
	if len(changed) == 0 && len(removed) == 0 {
		return
	}

	w.logger.System().Debug("script changes detected",
		"changed", len(changed),
		"removed", len(removed),
	)

	if w.onChange != nil {
		w.onChange(changed, removed)
	}
}
