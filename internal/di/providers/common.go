package providers

import "time"

const (
	// shutdownTimeout bounds the graceful stop of the status server.
	shutdownTimeout = 5 * time.Second
)
