// Package watch re-runs a build whenever files under the template or
// configuration directories change. Bursts of events are debounced into one
// trigger carrying every path that changed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more events before
// triggering.
const DefaultDebounce = 200 * time.Millisecond

// DefaultIgnore lists base-name patterns that never trigger a build.
var DefaultIgnore = []string{".git", "*.swp", "*.tmp", "*~", ".textgen.hashes*"}

// Trigger runs one build for the changed paths.
type Trigger func(ctx context.Context, changed []string) error

// Option customises a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a trigger.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFiles watches individual files, such as the project file, without
// watching the rest of their directory.
func WithFiles(files ...string) Option {
	return func(w *Watcher) {
		for _, file := range files {
			if file != "" {
				w.files[clean(file)] = true
			}
		}
	}
}

// WithIgnore adds base-name glob patterns to ignore.
func WithIgnore(patterns ...string) Option {
	return func(w *Watcher) {
		w.ignore = append(w.ignore, patterns...)
	}
}

// WithIgnorePaths ignores exact paths, typically the outputs the build writes.
func WithIgnorePaths(paths ...string) Option {
	return func(w *Watcher) {
		for _, path := range paths {
			if path != "" {
				w.ignorePaths[clean(path)] = true
			}
		}
	}
}

// WithErrorHandler receives trigger and watcher errors. Without one they
// are logged and watching continues.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher owns an fsnotify watcher. Paths are registered by New, so events
// that happen after New returns are never missed.
type Watcher struct {
	fsw         *fsnotify.Watcher
	roots       []string
	files       map[string]bool
	ignore      []string
	ignorePaths map[string]bool
	debounce    time.Duration
	trigger     Trigger
	onError     func(error)
	logger      *slog.Logger
	closeOnce   sync.Once
}

// New watches dirs recursively and calls trigger after each debounced burst.
// Missing dirs are skipped.
func New(dirs []string, trigger Trigger, opts ...Option) (*Watcher, error) {
	if trigger == nil {
		return nil, errors.New("watch: trigger is required")
	}

	w := &Watcher{
		files:       make(map[string]bool),
		ignore:      append([]string(nil), DefaultIgnore...),
		ignorePaths: make(map[string]bool),
		debounce:    DefaultDebounce,
		trigger:     trigger,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w.fsw = fsw

	for _, dir := range dirs {
		if !isDir(dir) {
			w.logger.Debug("watch dir skipped", "dir", dir)
			continue
		}
		root := clean(dir)
		w.roots = append(w.roots, root)
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	for file := range w.files {
		if err := fsw.Add(filepath.Dir(file)); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch: add %s: %w", file, err)
		}
	}
	return w, nil
}

// Roots returns the directories watched recursively.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// Run processes events until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		timerC  <-chan time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) && w.underRoot(clean(event.Name)) {
				if err := w.addRecursive(clean(event.Name)); err != nil {
					w.report(err)
				}
			}
			pending[clean(event.Name)] = struct{}{}
			stopTimer()
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.report(fmt.Errorf("watch: %w", err))

		case <-timerC:
			timer, timerC = nil, nil
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = make(map[string]struct{})

			w.logger.Info("change detected", "paths", len(changed))
			if err := w.trigger(ctx, changed); err != nil {
				w.report(err)
			}
		}
	}
}

// Close stops the underlying watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	path := clean(event.Name)
	if w.ignorePaths[path] || w.ignored(path) {
		return false
	}
	if w.files[path] {
		return true
	}
	return w.underRoot(path)
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.ignore {
		if base == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
		return
	}
	w.logger.Warn("watch", "error", err)
}

func clean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
