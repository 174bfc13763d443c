// Package watch reports debounced file changes below a project root.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// DefaultDelay groups bursts of writes, such as an editor's save sequence.
const DefaultDelay = 100 * time.Millisecond

// Op is the kind of change.
type Op int

const (
	Created Op = iota
	Modified
	Removed
	Renamed
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event is one debounced change.
type Event struct {
	Op   Op
	Path string
}

// Filter reports whether a file path is of interest.
type Filter func(path string) bool

// SkipDir reports whether a directory and its contents are ignored.
type SkipDir func(path string) bool

// Handler receives the changes of one debounce window, sorted by path.
type Handler func(ctx context.Context, events []Event) error

// Watcher watches a directory tree.
type Watcher struct {
	root    string
	delay   time.Duration
	filter  Filter
	skipDir SkipDir
	log     *zap.Logger

	mu      sync.Mutex
	pending map[string]Event
	timer   *time.Timer
	flush   chan []Event
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce window.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithFilter restricts the reported files.
func WithFilter(f Filter) Option {
	return func(w *Watcher) { w.filter = f }
}

// WithSkipDir excludes directories from watching.
func WithSkipDir(f SkipDir) Option {
	return func(w *Watcher) { w.skipDir = f }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log.Named("watch")
		}
	}
}

// New creates a Watcher for root.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:    root,
		delay:   DefaultDelay,
		filter:  func(string) bool { return true },
		skipDir: func(string) bool { return false },
		log:     zap.NewNop(),
		pending: make(map[string]Event),
		flush:   make(chan []Event, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. Handler errors are logged and do not stop
// the watcher.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	w.log.Debug("watching", zap.String("root", w.root))

	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case events := <-w.flush:
			if err := handle(ctx, events); err != nil {
				w.log.Error("change handler failed", zap.Int("events", len(events)), zap.Error(err))
			}
		}
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	var op Op
	switch {
	case ev.Has(fsnotify.Create):
		op = Created
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.skipDir(ev.Name) {
				if err := w.addTree(fsw, ev.Name); err != nil {
					w.log.Warn("watching new directory", zap.String("path", ev.Name), zap.Error(err))
				}
			}
			return
		}
	case ev.Has(fsnotify.Write):
		op = Modified
	case ev.Has(fsnotify.Remove):
		op = Removed
	case ev.Has(fsnotify.Rename):
		op = Renamed
	default:
		return
	}
	if !w.filter(ev.Name) {
		return
	}
	w.add(Event{Op: op, Path: ev.Name})
}

// add records an event and restarts the debounce window. The last event for
// a path wins.
func (w *Watcher) add(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[ev.Path] = ev
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.emit)
}

func (w *Watcher) emit() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	events := make([]Event, 0, len(w.pending))
	for _, ev := range w.pending {
		events = append(events, ev)
	}
	w.pending = make(map[string]Event)
	w.mu.Unlock()

	sort.Slice(events, func(i, j int) bool {
		return natural.Less(events[i].Path, events[j].Path)
	})
	select {
	case w.flush <- events:
	default:
		w.log.Warn("dropping change batch, handler is behind", zap.Int("events", len(events)))
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
