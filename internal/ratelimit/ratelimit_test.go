package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// waitBriefly reports whether a request for key is admitted within a short
// deadline. A limiter that would need longer fails immediately.
func waitBriefly(l *Limiter, key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, key) == nil
}

func TestLimiter_Wait(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		calls    int
		wantPass int
	}{
		{"burst admits initial requests", 3, 3, 3},
		{"exceeding burst waits", 2, 5, 2},
		{"zero burst is treated as one", 0, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(rate.Limit(0.001), tt.burst)

			passed := 0
			for range tt.calls {
				if waitBriefly(l, "rakaly.com") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(rate.Limit(0.001), 1)

	assert.True(t, waitBriefly(l, "a.example"))
	assert.False(t, waitBriefly(l, "a.example"))
	assert.True(t, waitBriefly(l, "b.example"))
}

func TestLimiter_WaitHonoursCancel(t *testing.T) {
	l := New(rate.Limit(0.001), 1)
	require.NoError(t, l.Wait(context.Background(), "rakaly.com"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, l.Wait(ctx, "rakaly.com"))
}

func TestPerMinute(t *testing.T) {
	assert.Nil(t, PerMinute(0))
	assert.Nil(t, PerMinute(-5))

	l := PerMinute(6)
	require.NotNil(t, l)
	assert.InDelta(t, 0.1, float64(l.limit), 1e-9)
	assert.Equal(t, 1, l.burst)
}

func TestLimiter_NilNeverLimits(t *testing.T) {
	var l *Limiter

	for range 10 {
		assert.NoError(t, l.Wait(context.Background(), "rakaly.com"))
	}
}
