package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between successive calls to Wait.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a Throttle. A zero interval never blocks.
func NewThrottle(interval time.Duration) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the interval has passed since the previous Wait. The
// first call never blocks.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
