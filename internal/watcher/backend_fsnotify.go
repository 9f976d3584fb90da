package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyBackend implements Backend on top of fsnotify. It is available on
// every platform and is the default outside Linux.
type fsnotifyBackend struct {
	logger  *slog.Logger
	filter  *pathFilter
	watcher *fsnotify.Watcher

	events chan Event
	errors chan error
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func newFsnotifyBackend(logger *slog.Logger, opts Options) (*fsnotifyBackend, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &fsnotifyBackend{
		logger:  logger,
		filter:  newPathFilter(opts),
		watcher: watcher,
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a path to be monitored.
func (b *fsnotifyBackend) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		b.filter.addRoot(filepath.Dir(path))
		return b.watcher.Add(filepath.Dir(path))
	}
	b.filter.addRoot(path)
	return b.watchDir(path)
}

// watchDir recursively watches a directory. Only a failure on root itself
// is returned.
func (b *fsnotifyBackend) watchDir(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			b.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		if p != root && b.filter.ignored(p) {
			return filepath.SkipDir
		}

		if err := b.watcher.Add(p); err != nil {
			if p == root {
				return err
			}
			b.logger.Warn("failed to add watch", "path", p, "error", err)
			return nil
		}

		b.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start launches the event reader.
func (b *fsnotifyBackend) Start(ctx context.Context) error {
	b.wg.Add(1)
	go b.processEvents(ctx)
	return nil
}

func (b *fsnotifyBackend) processEvents(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			b.handle(event)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.emitError(err)
		}
	}
}

// handle translates one fsnotify event. Chmod-only events are dropped.
func (b *fsnotifyBackend) handle(event fsnotify.Event) {
	path := event.Name
	if b.filter.ignored(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := b.watchDir(path); err != nil {
				b.emitError(&fs.PathError{Op: "watch", Path: path, Err: err})
			}
			return
		}
		b.emit(Event{Type: EventCreated, Path: path})
	case event.Has(fsnotify.Write):
		b.emit(Event{Type: EventModified, Path: path})
	case event.Has(fsnotify.Remove):
		b.emit(Event{Type: EventRemoved, Path: path})
	case event.Has(fsnotify.Rename):
		b.emit(Event{Type: EventRenamed, Path: path})
	}
}

func (b *fsnotifyBackend) emit(event Event) {
	select {
	case b.events <- event:
	case <-b.done:
	}
}

func (b *fsnotifyBackend) emitError(err error) {
	select {
	case b.errors <- err:
	case <-b.done:
	}
}

// Events returns the events channel.
func (b *fsnotifyBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
func (b *fsnotifyBackend) Errors() <-chan error {
	return b.errors
}

// Stop stops the watcher. It is safe to call more than once.
func (b *fsnotifyBackend) Stop() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.watcher.Close()
		b.wg.Wait()
		close(b.events)
		close(b.errors)
	})
	return err
}
