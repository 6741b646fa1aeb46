package sources

import (
	"context"
	"sync"
	"time"
)

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RateLimiter enforces a minimum interval between requests to one catalog.
// Each adapter owns its own limiter; limits differ per source and are never
// shared global state.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewRateLimiter builds a limiter allowing requestsPerSecond requests.
// Non-positive rates disable limiting.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	var interval time.Duration
	if requestsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / requestsPerSecond)
	}
	return &RateLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    SleepWithContext,
	}
}

// Wait suspends the caller until the minimum inter-request interval has
// elapsed since the previous request, or the context is cancelled.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return nil
	}
	l.mu.Lock()
	now := l.now()
	var delay time.Duration
	if !l.last.IsZero() {
		if elapsed := now.Sub(l.last); elapsed < l.interval {
			delay = l.interval - elapsed
		}
	}
	l.last = now.Add(delay)
	l.mu.Unlock()

	return l.sleep(ctx, delay)
}
