// Package watch reruns a check when source files under a root change.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must be quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// Filter decides whether a root-relative slash path is of interest.
type Filter func(rel string) bool

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Files selects the files whose changes are reported. Nil selects all.
	Files Filter
	// SkipDir selects directories that are not watched. .git is never
	// watched.
	SkipDir Filter
	// Out receives status lines. Nil discards them.
	Out     io.Writer
	Colored bool
}

// Watcher monitors a directory tree and reports batches of changed files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	opts      Options
	callback  func(changed []string)
	mu        sync.Mutex
	pending   map[string]time.Time
}

// NewWatcher creates a watcher for the tree at root.
func NewWatcher(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		root:      abs,
		opts:      opts,
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function called with the sorted root-relative paths
// that changed since the last call.
func (w *Watcher) SetCallback(cb func(changed []string)) {
	w.mu.Lock()
	w.callback = cb
	w.mu.Unlock()
}

// Start watches until ctx is done. It returns ctx.Err() on cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	cyan := w.color(color.FgCyan)
	fmt.Fprintln(w.opts.Out, cyan("Watching for changes in "+w.root+"..."))
	fmt.Fprintln(w.opts.Out, cyan("Press Ctrl+C to stop"))

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(w.opts.Out, w.color(color.FgRed)(fmt.Sprintf("Watch error: %v", err)))
		}
	}
}

// addTree watches dir and the directories below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && rel != "." && w.skipDir(rel, d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) skipDir(rel, name string) bool {
	if name == ".git" {
		return true
	}
	return w.opts.SkipDir != nil && w.opts.SkipDir(rel)
}

// rel returns path relative to the root with forward slashes.
func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// handleEvent records a change. Removed and renamed files count, since a
// deleted caller can leave definitions unused.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, ok := w.rel(event.Name)
	if !ok || rel == "." {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(rel, info.Name()) {
				_ = w.addTree(event.Name)
			}
			return
		}
	}

	if w.opts.Files != nil && !w.opts.Files(rel) {
		return
	}

	w.mu.Lock()
	w.pending[rel] = time.Now()
	w.mu.Unlock()
}

// processDebounced flushes pending changes until ctx is done.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending reports the pending paths once all of them have been
// quiet for the debounce period.
func (w *Watcher) processPending() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, last := range w.pending {
		if now.Sub(last) < w.opts.Debounce {
			w.mu.Unlock()
			return
		}
	}

	changed := make([]string, 0, len(w.pending))
	for rel := range w.pending {
		changed = append(changed, rel)
	}
	clear(w.pending)
	cb := w.callback
	w.mu.Unlock()

	sort.Strings(changed)
	if cb != nil {
		cb(changed)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the watched directories.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}

func (w *Watcher) color(attr color.Attribute) func(a ...any) string {
	if !w.opts.Colored {
		return fmt.Sprint
	}
	c := color.New(attr)
	c.EnableColor()
	return c.SprintFunc()
}
