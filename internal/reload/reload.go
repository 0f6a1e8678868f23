// Package reload watches files the running editor depends on (its own
// binary, its config file) and reports when they change on disk.
package reload

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher tracks the modification times of a set of files. Change events
// come from fsnotify on the files' directories, so files replaced by a
// rename (as `go build` does) are still seen.
type Watcher struct {
	mu       sync.Mutex
	baseline map[string]time.Time
	onChange func(path string)
	logger   *slog.Logger
}

// New creates a watcher for paths. Symlinks are resolved; paths that do not
// exist yet are watched from a zero baseline.
func New(logger *slog.Logger, paths ...string) *Watcher {
	w := &Watcher{baseline: make(map[string]time.Time), logger: logger}
	for _, p := range paths {
		if real, err := filepath.EvalSymlinks(p); err == nil {
			p = real
		}
		w.baseline[p] = modTime(p)
	}
	return w
}

// Executable returns the resolved path of the running binary.
func Executable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	return path, nil
}

// OnChange sets the callback invoked with each changed path. It runs on the
// watcher's goroutine.
func (w *Watcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Paths returns the watched paths.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.baseline))
	for p := range w.baseline {
		out = append(out, p)
	}
	return out
}

// Check returns the paths modified since their baseline and advances the
// baseline for each, so a change is reported once.
func (w *Watcher) Check() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var changed []string
	for p, base := range w.baseline {
		mt := modTime(p)
		if mt.After(base) {
			w.baseline[p] = mt
			changed = append(changed, p)
		}
	}
	return changed
}

// Run watches until ctx is done. Events are coalesced for settle so a file
// written in several steps is reported once.
func (w *Watcher) Run(ctx context.Context, settle time.Duration) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dirs := make(map[string]bool)
	for _, p := range w.Paths() {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", "dir", dir, "err", err)
		}
	}

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(settle)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-timer.C:
			w.fire(w.Check())
		}
	}
}

func (w *Watcher) fire(changed []string) {
	w.mu.Lock()
	cb := w.onChange
	w.mu.Unlock()
	for _, p := range changed {
		w.logger.Info("file changed", "path", p)
		if cb != nil {
			cb(p)
		}
	}
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Restart replaces the current process with a new instance of execPath,
// preserving arguments and environment. It does not return on success.
func Restart(execPath string) error {
	return syscall.Exec(execPath, os.Args, os.Environ())
}
