// Package service runs the uploader under the operating system's service
// manager. Only Windows is supported; elsewhere every operation fails with
// an UNSUPPORTED error.
package service

import "context"

const (
	// Name is the service key registered with the service manager.
	Name        = "rakaly-uploader"
	DisplayName = "Rakaly Save Uploader"
	Description = "Uploads new EU4 save files to rakaly.com"

	// RunArg is passed to the executable when the service manager starts it.
	RunArg = "run-service"
)

// RunFunc is the watch loop. It must return once ctx is cancelled.
type RunFunc func(ctx context.Context) error

// supervise runs fn and cancels its context when stop is closed. It returns
// fn's error.
func supervise(fn RunFunc, stop <-chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-stop:
		cancel()
		return <-done
	}
}
