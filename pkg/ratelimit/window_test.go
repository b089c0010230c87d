package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimiter_Allow(t *testing.T) {
	current := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	limiter := NewWindowLimiter(3, time.Minute)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow()
		assert.True(t, allowed, "request %d should fit the budget", i+1)
	}

	allowed, resetAt := limiter.Allow()
	assert.False(t, allowed, "budget should be exhausted")
	assert.Equal(t, current.Add(time.Minute), resetAt)

	// Advancing past the window opens a fresh budget
	current = current.Add(61 * time.Second)
	allowed, _ = limiter.Allow()
	assert.True(t, allowed)
	assert.Equal(t, 2, limiter.Remaining())
}

func TestWindowLimiter_Remaining(t *testing.T) {
	current := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	limiter := NewWindowLimiter(5, time.Minute)
	limiter.now = func() time.Time { return current }

	assert.Equal(t, 5, limiter.Remaining())

	limiter.Allow()
	limiter.Allow()
	assert.Equal(t, 3, limiter.Remaining())

	current = current.Add(2 * time.Minute)
	assert.Equal(t, 5, limiter.Remaining())
}

func TestWindowLimiter_WaitCancelled(t *testing.T) {
	limiter := NewWindowLimiter(1, time.Hour)

	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWindowLimiter_WaitUnblocksAfterReset(t *testing.T) {
	limiter := NewWindowLimiter(1, 30*time.Millisecond)

	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
