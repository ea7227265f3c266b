package chat

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var errNoReservation = errors.New("rate limiter: reservation not possible")

// DefaultCooldown is the minimum spacing between outbound inference calls.
const DefaultCooldown = 5 * time.Second

// RateLimiter enforces a cooldown between inference calls. Callers that arrive
// early are delayed, never rejected. Each Acquire reserves its slot at call
// start, so concurrent callers are spaced one cooldown apart.
type RateLimiter struct {
	limiter  *rate.Limiter
	cooldown time.Duration
	clock    Clock
}

// NewRateLimiter creates a limiter. A zero cooldown disables waiting.
func NewRateLimiter(cooldown time.Duration, clock Clock) *RateLimiter {
	if clock == nil {
		clock = SystemClock{}
	}
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, 1),
		cooldown: cooldown,
		clock:    clock,
	}
}

// Cooldown returns the configured spacing.
func (r *RateLimiter) Cooldown() time.Duration {
	return r.cooldown
}

// Acquire waits until the caller may issue its call. onWait, if set, is told
// how long the caller will wait before the wait starts.
func (r *RateLimiter) Acquire(ctx context.Context, onWait func(time.Duration)) error {
	now := r.clock.Now()
	res := r.limiter.ReserveN(now, 1)
	if !res.OK() {
		return errNoReservation
	}

	delay := res.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if onWait != nil {
		onWait(delay)
	}
	if err := r.clock.Sleep(ctx, delay); err != nil {
		res.CancelAt(r.clock.Now())
		return err
	}
	return nil
}
