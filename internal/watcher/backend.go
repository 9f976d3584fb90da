package watcher

import "context"

// Backend is the platform-specific source of raw filesystem notifications.
// Backends do not debounce; the Watcher coalesces their output.
type Backend interface {
	// Watch adds a path to be monitored. Directories are watched recursively
	// and new subdirectories are subscribed as they appear. A failure to
	// attach to path itself is returned; failures below it are logged.
	Watch(path string) error

	// Start launches the reader goroutine and returns immediately.
	Start(ctx context.Context) error

	// Stop stops the backend, releases resources and closes both channels.
	Stop() error

	// Events returns the channel of raw, undebounced events.
	Events() <-chan Event

	// Errors returns the channel of non-fatal watch errors.
	Errors() <-chan error
}
