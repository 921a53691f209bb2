package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LayoutWatcher reloads a layout file whenever it changes on disk.
//
// The containing directory is watched rather than the file itself so editors
// that save by renaming a temporary file over the original are still seen.
type LayoutWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	// Debounce is how long the file must stay quiet before it is reloaded.
	Debounce time.Duration
}

// NewLayoutWatcher starts watching path. Call Run to receive reloads and
// Close when done.
func NewLayoutWatcher(path string) (*LayoutWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &LayoutWatcher{path: abs, watcher: w, Debounce: 300 * time.Millisecond}, nil
}

// Run delivers each successfully reloaded layout to onChange until ctx is
// cancelled or the watcher is closed. A layout that fails to load is passed to
// onError and the caller keeps its previous layout.
func (lw *LayoutWatcher) Run(ctx context.Context, onChange func(*Layout), onError func(error)) error {
	debounce := lw.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-lw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != lw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.Now()
			}
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounce {
				continue
			}
			pending = time.Time{}
			l, err := LoadLayout(lw.path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(l)
		}
	}
}

// Close stops watching.
func (lw *LayoutWatcher) Close() error {
	return lw.watcher.Close()
}
