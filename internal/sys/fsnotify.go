package sys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/logger"
	"github.com/fsnotify/fsnotify"
)

// Watcher represents an fsnotify watcher.
type Watcher struct {
	*fsnotify.Watcher

	mu sync.Mutex

	watching map[string]func(string, fsnotify.Op) error
	root     string
	done     chan struct{}
}

// NewWatcher returns a watcher listening for fsnotify events down the given dir.
// The watcher is closed when the context is cancelled.
func NewWatcher(ctx context.Context, root string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("Failed to create filesystem watcher: %w", err)
	}

	watcher := &Watcher{
		Watcher:  fsWatcher,
		watching: map[string]func(string, fsnotify.Op) error{},
		root:     root,
		done:     make(chan struct{}),
	}

	// Listen for events across the given root dir.
	err = watcher.watchDir(root)
	if err != nil {
		_ = watcher.Watcher.Close()
		return nil, err
	}

	go watcher.handleEvents(ctx)

	return watcher, nil
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// watchDir walks through the path and adds each dir to fsnotify's watchlist.
func (w *Watcher) watchDir(path string) error {
	if !shared.PathExists(path) {
		return fmt.Errorf("Path %q does not exist", path)
	}

	return filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("Error visiting path %q: %w", path, err)
		}

		if !info.IsDir() {
			return nil
		}

		err = w.Add(path)
		if err != nil {
			return fmt.Errorf("Failed to watch path %q: %w", path, err)
		}

		return nil
	})
}

func (w *Watcher) handleEvents(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Closing filesystem watcher", logger.Ctx{"root": w.root})
			_ = w.Watcher.Close()
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}

			logger.Warn("Filesystem watcher error", logger.Ctx{"root": w.root, "err": err})
		case event, ok := <-w.Events:
			if !ok {
				return
			}

			// Only handle write/create/remove events.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Create) {
				continue
			}

			w.mu.Lock()
			for path, f := range w.watching {
				// Only handle watched events.
				if !strings.HasPrefix(event.Name, path) {
					continue
				}

				// Ignore matching directories.
				stat, err := os.Lstat(event.Name)
				if err == nil && stat.IsDir() {
					continue
				}

				// Event hook.
				err = f(event.Name, event.Op)
				if err != nil {
					logger.Error("Failed to handle filesystem event", logger.Ctx{"op": event.Op.String(), "path": event.Name, "err": err})
				}
			}

			w.mu.Unlock()
		}
	}
}

// Watch adds a hook to be executed on write, create and remove events on files with the given
// suffix under the given path.
func (w *Watcher) Watch(path string, suffix string, f func(path string, event fsnotify.Op) error) error {
	if !strings.HasPrefix(path, w.root) {
		return fmt.Errorf("Path %q is not under watcher root %q", path, w.root)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.watching[path] = func(path string, event fsnotify.Op) error {
		if strings.HasSuffix(path, suffix) {
			return f(path, event)
		}

		return nil
	}

	return nil
}
