// Package watch re-runs a callback when saved HTML pages change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Zuo-Peng/convman/internal/logging"
	"github.com/Zuo-Peng/convman/internal/scan"
)

var watchLog = logging.ForComponent(logging.CompWatch)

const DefaultDebounce = 250 * time.Millisecond

// Watcher coalesces bursts of writes to snapshot files and reports each
// changed path once per burst.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// files maps every watched directory to the snapshot names wanted in it.
	// A nil set means the whole directory, subdirectories included, is
	// watched. Only touched by New and the Run loop.
	files map[string]map[string]bool

	onChange func(ctx context.Context, path string)
}

// New watches each path, a directory tree or a single snapshot file. Single
// files are watched through their directory so editors that replace the file
// on save are still seen. Directories skipped by scan.IgnoreDir are not
// watched.
func New(paths []string, debounce time.Duration, onChange func(ctx context.Context, path string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		files:    make(map[string]map[string]bool),
		onChange: onChange,
	}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if info.IsDir() {
		return w.addTree(abs)
	}

	dir := filepath.Dir(abs)
	names, ok := w.files[dir]
	if ok && names == nil {
		return nil // already watched in full
	}
	if !ok {
		names = make(map[string]bool)
		w.files[dir] = names
	}
	names[filepath.Base(abs)] = true
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// addTree watches root and every directory below it that scans descend into.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable subdirectory
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && scan.IgnoreDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.files[path] = nil
		return nil
	})
}

func (w *Watcher) wanted(path string) bool {
	if !scan.IsSnapshot(path) {
		return false
	}
	names, ok := w.files[filepath.Dir(path)]
	if !ok {
		return false
	}
	return names == nil || names[filepath.Base(path)]
}

// newDir starts watching a directory created inside a tree watched in full
// and returns the snapshots already in it, which were written before the
// watch existed.
func (w *Watcher) newDir(path string) []string {
	names, ok := w.files[filepath.Dir(path)]
	if !ok || names != nil || scan.IgnoreDir(filepath.Base(path)) {
		return nil
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return nil
	}
	if err := w.addTree(path); err != nil {
		watchLog.Warn("watch_dir_failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	found, err := scan.ScanRoots(path)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(found))
	for _, fi := range found {
		out = append(out, fi.Path)
	}
	return out
}

// Run delivers changes until ctx is cancelled, then closes the watcher.
// Callbacks run one at a time on a single goroutine; Run returns only after
// the last one has finished.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	batches := make(chan []string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for files := range batches {
			for _, f := range files {
				if ctx.Err() != nil {
					break
				}
				watchLog.Debug("snapshot_changed", slog.String("path", f))
				w.onChange(ctx, f)
			}
		}
	}()
	defer func() {
		close(batches)
		<-done
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var (
		pending = make(map[string]bool)
		quiet   <-chan time.Time // armed while a burst is settling
		ready   bool             // burst settled, waiting for the worker
	)

	for {
		// hand the batch over only once the worker is free
		var out chan<- []string
		var batch []string
		if ready {
			out = batches
			batch = sortedKeys(pending)
		}

		select {
		case <-ctx.Done():
			return nil

		case out <- batch:
			pending = make(map[string]bool)
			ready = false

		case <-quiet:
			quiet = nil
			ready = len(pending) > 0

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changed := w.changed(event)
			if len(changed) == 0 {
				continue
			}
			for _, p := range changed {
				pending[p] = true
			}
			ready = false
			timer.Reset(w.debounce)
			quiet = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			watchLog.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}

// changed returns the snapshot paths an event touches.
func (w *Watcher) changed(event fsnotify.Event) []string {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return nil
	}
	if w.wanted(event.Name) {
		return []string{event.Name}
	}
	if event.Op&fsnotify.Create != 0 {
		return w.newDir(event.Name)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
