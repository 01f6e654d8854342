// Package watch re-runs a script folder whenever one of its source files
// changes.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after a change before the folder is re-run.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Dir is watched recursively. Hidden directories are skipped.
	Dir string

	// Debounce is how long changes must settle before Run is called.
	Debounce time.Duration

	// Extensions limits which files trigger a run. Empty means ".funky".
	Extensions []string

	// Run is called once at start and again after each settled change.
	// Calls never overlap.
	Run func()

	Stdout io.Writer
	Stderr io.Writer
}

// Watcher monitors a folder for changes and re-runs it
type Watcher struct {
	watcher *fsnotify.Watcher
	opts    Options

	mu      sync.Mutex
	runs    uint64
	pending []string
}

// New creates a watcher for opts.Dir.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".funky"}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Run == nil {
		opts.Run = func() {}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: fsWatcher, opts: opts}, nil
}

// Run watches until ctx is cancelled. It runs the folder once before
// waiting for changes.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.watchDirRecursive(w.opts.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Dir, err)
	}
	w.logInfo("watching %s", w.opts.Dir)

	w.run()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchDirRecursive(event.Name); err != nil {
						w.logError("failed to watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !w.relevant(event) {
				continue
			}

			w.mu.Lock()
			w.pending = append(w.pending, event.Name)
			w.mu.Unlock()

			// Restart the quiet period on every change
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			for _, path := range w.takePending() {
				w.logInfo("changed: %s", path)
			}
			w.run()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *Watcher) run() {
	w.mu.Lock()
	w.runs++
	w.mu.Unlock()
	w.opts.Run()
}

// Runs returns how many times the folder has been run.
func (w *Watcher) Runs() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// takePending returns the distinct paths changed since the last run.
func (w *Watcher) takePending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]bool, len(w.pending))
	var paths []string
	for _, p := range w.pending {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	w.pending = nil
	return paths
}

// relevant reports whether event should trigger a run.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range w.opts.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// watchDirRecursive adds a directory and its subdirectories to the watch list
func (w *Watcher) watchDirRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.opts.Stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.opts.Stderr, "[WATCH ERROR] "+format+"\n", args...)
}
