package shopagent

import (
	"context"
	"time"
)

// Throttle enforces a minimum interval between outbound calls. It is a
// courtesy limiter for hosted APIs with per-second quotas, not a
// concurrency-safety mechanism; callers are single-threaded.
type Throttle struct {
	min  time.Duration
	last time.Time
}

func NewThrottle(min time.Duration) *Throttle {
	return &Throttle{min: min}
}

// Wait sleeps until the minimum interval since the previous call has
// elapsed, or returns early if the context is canceled.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.min <= 0 {
		return nil
	}

	if wait := t.min - time.Since(t.last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	t.last = time.Now()
	return nil
}
