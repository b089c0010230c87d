package ratelimit

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter caps the number of requests in a rolling window.
// It is a single counter plus a window-start time guarded by one mutex,
// shared by reference across every worker in a run. When the budget is
// exhausted, Wait blocks until the window resets.
type WindowLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time

	// now is swappable for tests
	now func() time.Time
}

// NewWindowLimiter creates a limiter allowing limit requests per window
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether a request fits in the current window and, if it
// does, consumes one slot. When it does not, it returns the time at which
// the window resets.
func (l *WindowLimiter) Allow() (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.count = 0
	}

	if l.count < l.limit {
		l.count++
		return true, time.Time{}
	}

	return false, l.windowStart.Add(l.window)
}

// Wait blocks until a request slot is available or the context is cancelled
func (l *WindowLimiter) Wait(ctx context.Context) error {
	for {
		allowed, resetAt := l.Allow()
		if allowed {
			return nil
		}

		sleep := time.Until(resetAt)
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep + 10*time.Millisecond):
			// Window should have reset; re-check
		}
	}
}

// Remaining returns the number of slots left in the current window
func (l *WindowLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.windowStart.IsZero() || l.now().Sub(l.windowStart) >= l.window {
		return l.limit
	}
	return l.limit - l.count
}
