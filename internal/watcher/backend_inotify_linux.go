//go:build linux

package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// pollTimeoutMillis bounds how long the reader blocks before rechecking for shutdown.
const pollTimeoutMillis = 250

// IN_MODIFY keeps restarting the debounce window while a file is still
// being written; IN_CLOSE_WRITE restarts it once more when the writer closes.
const inotifyMask = unix.IN_MODIFY | unix.IN_CLOSE_WRITE | unix.IN_CREATE | unix.IN_MOVED_TO |
	unix.IN_DELETE | unix.IN_DELETE_SELF | unix.IN_MOVED_FROM

// inotifyBackend implements Backend using Linux inotify. Every write and the
// final close are reported as modifications, so the debouncer only settles
// once the game has stopped writing.
type inotifyBackend struct {
	logger  *slog.Logger
	filter  *pathFilter
	fd      int
	watches map[string]int
	wdPaths map[int]string
	mu      sync.RWMutex

	events chan Event
	errors chan error
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func newInotifyBackend(logger *slog.Logger, opts Options) (Backend, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("initialize inotify: %w", err)
	}

	return &inotifyBackend{
		logger:  logger,
		filter:  newPathFilter(opts),
		fd:      fd,
		watches: make(map[string]int),
		wdPaths: make(map[int]string),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a path to be monitored.
func (b *inotifyBackend) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		b.filter.addRoot(filepath.Dir(path))
		return b.addWatch(filepath.Dir(path))
	}
	b.filter.addRoot(path)
	return b.watchDir(path)
}

// watchDir recursively watches a directory. Only a failure on root itself
// is returned.
func (b *inotifyBackend) watchDir(root string) error {
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

		if err := b.addWatch(p); err != nil {
			if p == root {
				return err
			}
			b.logger.Warn("failed to add watch", "path", p, "error", err)
		}
		return nil
	})
}

func (b *inotifyBackend) addWatch(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.watches[path]; exists {
		return nil
	}

	wd, err := unix.InotifyAddWatch(b.fd, path, inotifyMask)
	if err != nil {
		return &fs.PathError{Op: "inotify_add_watch", Path: path, Err: err}
	}

	b.watches[path] = wd
	b.wdPaths[wd] = path
	b.logger.Debug("added watch", "path", path, "wd", wd)
	return nil
}

// forget drops bookkeeping for a watch the kernel already removed.
func (b *inotifyBackend) forget(wd int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if path, ok := b.wdPaths[wd]; ok {
		delete(b.watches, path)
		delete(b.wdPaths, wd)
	}
}

// Start launches the event reader.
func (b *inotifyBackend) Start(ctx context.Context) error {
	b.wg.Add(1)
	go b.readEvents(ctx)
	return nil
}

func (b *inotifyBackend) readEvents(ctx context.Context) {
	defer b.wg.Done()

	buf := make([]byte, (unix.SizeofInotifyEvent+unix.NAME_MAX+1)*64)
	fds := []unix.PollFd{{Fd: int32(b.fd), Events: unix.POLLIN}} //nolint:gosec // G115: fd fits in int32

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		default:
		}

		n, err := unix.Poll(fds, pollTimeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			b.emitError(fmt.Errorf("poll inotify: %w", err))
			return
		}
		if n == 0 {
			continue
		}

		n, err = unix.Read(b.fd, buf)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			b.emitError(fmt.Errorf("read inotify events: %w", err))
			return
		}

		b.parseEvents(buf[:n])
	}
}

func (b *inotifyBackend) parseEvents(buf []byte) {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		//nolint:gosec // G103: inotify records are decoded in place
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameStart := offset + unix.SizeofInotifyEvent
		offset = nameStart + int(raw.Len)
		if offset > len(buf) {
			return
		}

		if raw.Mask&unix.IN_Q_OVERFLOW != 0 {
			b.emitError(fmt.Errorf("inotify queue overflow, events were dropped"))
			continue
		}

		b.mu.RLock()
		dir, ok := b.wdPaths[int(raw.Wd)]
		b.mu.RUnlock()
		if !ok {
			continue
		}

		path := dir
		if raw.Len > 0 {
			name := buf[nameStart:offset]
			path = filepath.Join(dir, string(name[:clen(name)]))
		}

		b.handle(path, int(raw.Wd), raw.Mask)
	}
}

func (b *inotifyBackend) handle(path string, wd int, mask uint32) {
	if mask&unix.IN_IGNORED != 0 {
		b.forget(wd)
		return
	}
	if b.filter.ignored(path) {
		return
	}

	isDir := mask&unix.IN_ISDIR != 0

	switch {
	case mask&unix.IN_DELETE_SELF != 0:
		b.emit(Event{Type: EventRemoved, Path: path})
	case mask&unix.IN_DELETE != 0:
		b.emit(Event{Type: EventRemoved, Path: path})
	case mask&unix.IN_MOVED_FROM != 0:
		b.emit(Event{Type: EventRenamed, Path: path})
	case mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 && isDir:
		if err := b.watchDir(path); err != nil {
			b.emitError(&fs.PathError{Op: "watch", Path: path, Err: err})
		}
	case mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0:
		b.emit(Event{Type: EventCreated, Path: path})
	case mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) != 0:
		b.emit(Event{Type: EventModified, Path: path})
	}
}

func (b *inotifyBackend) emit(event Event) {
	select {
	case b.events <- event:
	case <-b.done:
	}
}

func (b *inotifyBackend) emitError(err error) {
	select {
	case b.errors <- err:
	case <-b.done:
	}
}

// Events returns the events channel.
func (b *inotifyBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
func (b *inotifyBackend) Errors() <-chan error {
	return b.errors
}

// Stop stops the watcher. It is safe to call more than once.
func (b *inotifyBackend) Stop() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		b.wg.Wait()
		err = unix.Close(b.fd)
		close(b.events)
		close(b.errors)
	})
	return err
}

// clen returns the length of a null-terminated byte slice.
func clen(n []byte) int {
	for i := range n {
		if n[i] == 0 {
			return i
		}
	}
	return len(n)
}
