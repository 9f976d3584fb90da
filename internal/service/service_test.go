package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSupervise_StopCancelsContext(t *testing.T) {
	stop := make(chan struct{})
	cancelled := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- supervise(func(ctx context.Context) error {
			<-ctx.Done()
			close(cancelled)
			return nil
		}, stop)
	}()

	close(stop)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervise did not return after stop")
	}
	assert.True(t, isClosed(cancelled))
}

func TestSupervise_ReturnsRunError(t *testing.T) {
	err := supervise(func(context.Context) error {
		return assert.AnError
	}, make(chan struct{}))

	assert.ErrorIs(t, err, assert.AnError)
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
