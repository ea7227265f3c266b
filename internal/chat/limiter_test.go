package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterFirstCallIsImmediate(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(4*time.Second, clock)

	waited := false
	require.NoError(t, l.Acquire(context.Background(), func(time.Duration) { waited = true }))
	assert.False(t, waited)
	assert.Empty(t, clock.Sleeps())
}

func TestRateLimiterWaitsOutRemainder(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(4*time.Second, clock)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, nil))
	clock.Advance(time.Second)

	var announced time.Duration
	require.NoError(t, l.Acquire(ctx, func(d time.Duration) { announced = d }))
	assert.Equal(t, 3*time.Second, announced)
	assert.Equal(t, []time.Duration{3 * time.Second}, clock.Sleeps())
}

func TestRateLimiterSpacing(t *testing.T) {
	clock := newFakeClock()
	cooldown := 4 * time.Second
	l := NewRateLimiter(cooldown, clock)
	ctx := context.Background()
	assert.Equal(t, cooldown, l.Cooldown())

	var starts []time.Time
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Acquire(ctx, nil))
		starts = append(starts, clock.Now())
	}
	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), cooldown)
	}
}

func TestRateLimiterAfterCooldownIsImmediate(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(4*time.Second, clock)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, nil))
	clock.Advance(10 * time.Second)
	require.NoError(t, l.Acquire(ctx, nil))
	assert.Empty(t, clock.Sleeps())
}

func TestRateLimiterCancelledWait(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(4*time.Second, clock)

	require.NoError(t, l.Acquire(context.Background(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Acquire(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiterZeroCooldown(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(0, clock)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background(), nil))
	}
	assert.Empty(t, clock.Sleeps())
}
