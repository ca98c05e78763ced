// Package watcher monitors the data directory for external changes to the
// backing files, with debouncing so half-written files are not reported.
package watcher

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

// EventType classifies a file system event.
type EventType int

const (
	// EventAdded is emitted when a new file appears (after settling).
	EventAdded EventType = iota
	// EventModified is emitted when an existing file changes (after settling).
	EventModified
	// EventRemoved is emitted when a file is deleted.
	EventRemoved
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one settled file system change.
type Event struct {
	Type    EventType
	Path    string
	Size    int64
	ModTime time.Time
}

// Options configures the watcher.
type Options struct {
	// IgnorePatterns are filepath.Match patterns applied to base names.
	// The store saves via temp files next to the target, so "*.tmp" belongs
	// here to keep the watcher from reporting our own writes.
	IgnorePatterns []string
	// SettleDelay is how long a file must stay quiet before an event fires.
	SettleDelay time.Duration
	// IgnoreHidden skips dotfiles.
	IgnoreHidden bool
}

func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 200 * time.Millisecond
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{"*.tmp", ".DS_Store", "Thumbs.db"}
		o.IgnoreHidden = true
	}
}

// shouldIgnore checks a path against the hidden rule and ignore patterns.
func (o *Options) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	if o.IgnoreHidden && strings.HasPrefix(base, ".") && base != "." && base != ".." {
		return true
	}

	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// Watcher watches one directory, non-recursively, and emits debounced events.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	known   map[string]bool

	events chan Event
	errors chan error
}

// New creates a watcher. Call Watch to add the directory, then Start.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fsw,
		pending: make(map[string]*time.Timer),
		known:   make(map[string]bool),
		events:  make(chan Event, 64),
		errors:  make(chan error, 8),
	}, nil
}

// Watch adds a directory to be monitored.
func (w *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat watch path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %q is not a directory", dir)
	}

	// Remember what already exists so later writes report as modified.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read watch path: %w", err)
	}
	w.mu.Lock()
	for _, e := range entries {
		if !e.IsDir() {
			w.known[filepath.Join(dir, e.Name())] = true
		}
	}
	w.mu.Unlock()

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add watch: %w", err)
	}
	w.logger.Debug("watching directory", "path", dir)
	return nil
}

// Events returns the channel of settled events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start processes events until the context is cancelled. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("dropping watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if w.opts.shouldIgnore(path) {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.mu.Lock()
		if timer, ok := w.pending[path]; ok {
			timer.Stop()
			delete(w.pending, path)
		}
		wasKnown := w.known[path]
		delete(w.known, path)
		w.mu.Unlock()

		if wasKnown {
			w.emit(Event{Type: EventRemoved, Path: path})
		}

	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		w.debounce(path)
	}
}

// debounce (re)arms the settle timer for path. The event only fires once the
// file has been quiet for the full settle delay.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.opts.SettleDelay)
		return
	}

	w.pending[path] = time.AfterFunc(w.opts.SettleDelay, func() {
		w.settled(path)
	})
}

// settled fires after the settle delay with no further writes.
func (w *Watcher) settled(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	wasKnown := w.known[path]
	w.known[path] = true
	w.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		// Deleted (or renamed away) before settling; the Remove event covers it.
		return
	}

	eventType := EventAdded
	if wasKnown {
		eventType = EventModified
	}
	w.emit(Event{Type: eventType, Path: path, Size: info.Size(), ModTime: info.ModTime()})
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
		w.logger.Debug("file event", "type", ev.Type.String(), "path", ev.Path)
	default:
		w.logger.Warn("dropping file event, channel full", "path", ev.Path)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
