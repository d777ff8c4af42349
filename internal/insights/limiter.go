package insights

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter enforces a fixed request quota over a rolling time window,
// matching the external service's documented limits. Acquire suspends the
// caller while the quota is exhausted; it fails with ErrRateLimited once
// the caller's context expires first. Quota is counted at grant time, so
// a timed-out waiter never consumes a slot.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	grants []time.Time

	// now is swappable for tests.
	now func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Acquire blocks until a quota slot is free or ctx is done. A nil return
// means one request slot has been consumed.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := rl.now()
		rl.prune(now)

		if len(rl.grants) < rl.limit {
			rl.grants = append(rl.grants, now)
			rl.mu.Unlock()
			return nil
		}

		// The oldest grant leaving the window frees the next slot.
		wait := rl.grants[0].Add(rl.window).Sub(now)
		rl.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: quota of %d per %s exhausted: %v", ErrRateLimited, rl.limit, rl.window, ctx.Err())
		case <-timer.C:
		}
	}
}

// InFlight reports how many grants currently count against the window.
func (rl *RateLimiter) InFlight() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.prune(rl.now())
	return len(rl.grants)
}

func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.grants) && !rl.grants[i].After(cutoff) {
		i++
	}
	rl.grants = rl.grants[i:]
}
