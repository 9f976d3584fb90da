// Package watcher delivers debounced, recursive filesystem change events for
// a directory tree as a single serialized channel.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"sync"

	"github.com/rakaly/rakaly-uploader/internal/errors"
)

// Watcher monitors a directory tree and coalesces bursts of changes.
//
// Backend selection with Options.Backend set to auto:
//   - Linux: inotify, reporting writes on IN_CLOSE_WRITE
//   - Others: fsnotify
type Watcher struct {
	backend  Backend
	logger   *slog.Logger
	debounce *debouncer

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// New creates a new file watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	backend, err := newBackend(logger, opts)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		backend:  backend,
		logger:   logger,
		debounce: newDebouncer(opts.Debounce, 100),
	}, nil
}

func newBackend(logger *slog.Logger, opts Options) (Backend, error) {
	name := opts.Backend
	if name == BackendAuto {
		name = BackendFsnotify
		if runtime.GOOS == "linux" {
			name = BackendInotify
		}
	}

	switch name {
	case BackendInotify:
		logger.Debug("using inotify backend")
		return newInotifyBackend(logger, opts)
	case BackendFsnotify:
		logger.Debug("using fsnotify backend", "platform", runtime.GOOS)
		return newFsnotifyBackend(logger, opts)
	default:
		return nil, errors.Newf(errors.CodeValidation, "unknown watch backend %q", opts.Backend)
	}
}

// Watch adds a directory to be monitored recursively.
func (w *Watcher) Watch(path string) error {
	return w.backend.Watch(path)
}

// Start launches the backend and the debounce pump. It returns immediately;
// events flow until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.startOnce.Do(func() {
		if err = w.backend.Start(ctx); err != nil {
			err = fmt.Errorf("start backend: %w", err)
			return
		}
		w.wg.Add(1)
		go w.pump(ctx)
	})
	return err
}

// pump feeds backend output into the debouncer until the backend closes.
func (w *Watcher) pump(ctx context.Context) {
	defer w.wg.Done()

	events, errs := w.backend.Events(), w.backend.Errors()
	for events != nil || errs != nil {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			w.debounce.add(ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.debounce.add(errorEvent(err))
		}
	}
}

func errorEvent(err error) Event {
	ev := Event{Type: EventError, Err: err}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		ev.Path = pathErr.Path
	}
	return ev
}

// Events returns the debounced event stream. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.debounce.out
}

// Stop stops the watcher and releases resources. Pending events are dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.backend.Stop()
		w.debounce.stop()
		w.wg.Wait()
	})
	return err
}
