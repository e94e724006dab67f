package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces out requests against a vendor site.
type Limiter interface {
	Wait(ctx context.Context) error
}

// FixedDelayLimiter enforces a fixed minimum gap between consecutive
// requests. Vendor sites get one predictable request cadence per run; there
// is deliberately no jitter or adaptive backoff here.
type FixedDelayLimiter struct {
	delay      time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewFixedDelayLimiter(delay time.Duration) *FixedDelayLimiter {
	return &FixedDelayLimiter{delay: delay}
}

func (r *FixedDelayLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastAction)
	if elapsed < r.delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay - elapsed):
		}
	}

	r.lastAction = time.Now()
	return nil
}
