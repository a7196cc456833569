package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Sweep defaults; both are configurable.
const (
	DefaultSweepInterval  = 5 * time.Minute
	DefaultEligibilityAge = 2 * time.Hour
)

// EligibilitySweeper periodically promotes accounts old enough for the
// leaderboard. The flag is a one-way ratchet: each sweep only scans
// ineligible rows and promoted users are never revisited.
type EligibilitySweeper struct {
	users     UserRepository
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewEligibilitySweeper(users UserRepository, interval, threshold time.Duration) *EligibilitySweeper {
	return newSweeper(users, interval, threshold, time.Now)
}

// NewEligibilitySweeperWithClock is test-only for deterministic cutoffs.
func NewEligibilitySweeperWithClock(users UserRepository, interval, threshold time.Duration, now func() time.Time) *EligibilitySweeper {
	return newSweeper(users, interval, threshold, now)
}

func newSweeper(users UserRepository, interval, threshold time.Duration, now func() time.Time) *EligibilitySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if threshold <= 0 {
		threshold = DefaultEligibilityAge
	}
	return &EligibilitySweeper{users: users, interval: interval, threshold: threshold, now: now}
}

// Start launches the sweep loop: one catch-up sweep immediately, then one
// per interval until Stop or context cancellation.
func (s *EligibilitySweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *EligibilitySweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *EligibilitySweeper) run(ctx context.Context) {
	defer close(s.done)

	if _, err := s.RunOnce(ctx); err != nil {
		slog.Error("eligibility sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.Error("eligibility sweep failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single sweep and reports how many users it promoted.
func (s *EligibilitySweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.threshold)
	promoted, err := s.users.MarkEligible(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark eligible: %w", err)
	}
	if promoted > 0 {
		slog.Info("promoted users to leaderboard", "count", promoted)
	}
	return promoted, nil
}
