package catalog

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces successive turns at least interval apart. The first
// turn is immediate.
type RateLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval < 0 {
		interval = 0
	}
	return &RateLimiter{interval: interval}
}

// Wait blocks until the next turn or until ctx is done. A cancelled wait
// does not consume the turn.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	now := time.Now()
	scheduled := now
	if r.nextAllowedAt.After(now) {
		scheduled = r.nextAllowedAt
	}
	sleep := scheduled.Sub(now)
	if sleep <= 0 {
		r.nextAllowedAt = scheduled.Add(r.interval)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	r.mu.Lock()
	next := time.Now().Add(r.interval)
	if next.After(r.nextAllowedAt) {
		r.nextAllowedAt = next
	}
	r.mu.Unlock()
	return nil
}
