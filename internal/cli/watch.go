package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/macropower/dictamen/pkg/log"
)

const defaultWatchDelay = 100 * time.Millisecond

// Watcher calls a function whenever one of a set of files changes.
// Directories are watched rather than files, so that files replaced on save
// keep being watched.
type Watcher struct {
	watcher      *fsnotify.Watcher
	watchedDirs  map[string]struct{}
	watchedFiles map[string]struct{}
	delay        time.Duration
}

// NewWatcher watches paths. Events for the same burst of writes are
// coalesced when they arrive within delay of each other.
func NewWatcher(paths []string, delay time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:      watcher,
		watchedDirs:  map[string]struct{}{},
		watchedFiles: map[string]struct{}{},
		delay:        delay,
	}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			w.Close()

			return nil, fmt.Errorf("resolve %q: %w", path, err)
		}

		dir := filepath.Dir(absPath)
		if _, ok := w.watchedDirs[dir]; !ok {
			err = w.watcher.Add(dir)
			if err != nil {
				w.Close()

				return nil, fmt.Errorf("add path to watcher: %w", err)
			}

			w.watchedDirs[dir] = struct{}{}
		}

		w.watchedFiles[absPath] = struct{}{}
	}

	slog.Debug("added file watchers",
		slog.Int("files", len(w.watchedFiles)),
		slog.Int("dirs", len(w.watchedDirs)),
	)

	return w, nil
}

// Run calls fn once, then again after every change to a watched file, until
// ctx is done. Errors from fn are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	logger := log.WithContext(ctx)

	call := func() {
		err := fn(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "watch", slog.Any("err", err))
		}
	}

	call()

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if !w.isFileWatched(evt.Name) || evt.Has(fsnotify.Chmod) {
				continue
			}

			logger.DebugContext(ctx, "file changed", slog.String("event", evt.String()))

			pending = time.After(w.delay)

		case <-pending:
			pending = nil

			call()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnContext(ctx, "watch files", slog.Any("err", err))
		}
	}
}

func (w *Watcher) isFileWatched(name string) bool {
	absPath, err := filepath.Abs(name)
	if err != nil {
		return false
	}

	_, ok := w.watchedFiles[absPath]

	return ok
}

func (w *Watcher) Close() {
	err := w.watcher.Close()
	if err != nil {
		slog.Error("close watcher", slog.Any("err", err))
	}
}
