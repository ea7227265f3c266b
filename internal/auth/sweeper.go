package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmahrt/portfolio/internal/store"
)

// DefaultSweepInterval is how often expired sessions are pruned.
const DefaultSweepInterval = time.Hour

// Sweeper periodically deletes expired admin sessions.
type Sweeper struct {
	repo     store.SessionStore
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a sweeper. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(repo store.SessionStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{repo: repo, interval: interval, now: time.Now}
}

// Name identifies the sweeper in a service group.
func (s *Sweeper) Name() string { return "session sweeper" }

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	slog.Info("Session sweeper started", "interval", s.interval)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			slog.Info("Session sweeper shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

// Sweep deletes expired sessions once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		slog.Error("Session sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		slog.Info("Expired admin sessions removed", "count", n)
	}
	return n
}
