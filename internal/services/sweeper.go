package services

import (
	"context"
	"log/slog"
	"time"

	"liveparticipation/internal/domain"
)

// Sweeper runs the two periodic background jobs: no-show release after
// check-in windows close, and timed poll expiry. These are the only actors
// that mutate state without an inbound request. Both jobs are idempotent, so
// a tick that overlaps a manual release or races another tick just finds
// nothing left to do.
type Sweeper struct {
	checkIn            domain.CheckInService
	polls              domain.PollService
	logger             *slog.Logger
	noShowInterval     time.Duration
	pollExpiryInterval time.Duration
}

func NewSweeper(
	checkIn domain.CheckInService,
	polls domain.PollService,
	logger *slog.Logger,
	noShowInterval, pollExpiryInterval time.Duration,
) *Sweeper {
	return &Sweeper{
		checkIn:            checkIn,
		polls:              polls,
		logger:             logger,
		noShowInterval:     noShowInterval,
		pollExpiryInterval: pollExpiryInterval,
	}
}

// Start launches both sweep loops. They stop when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.loop(ctx, "no-show release", s.noShowInterval, func(ctx context.Context) (int, error) {
		return s.checkIn.SweepNoShows(ctx)
	})
	go s.loop(ctx, "poll expiry", s.pollExpiryInterval, func(ctx context.Context) (int, error) {
		return s.polls.ExpireTimedPolls(ctx)
	})
}

func (s *Sweeper) loop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context) (int, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep loop stopped", "sweep", name)
			return
		case <-ticker.C:
			count, err := sweep(ctx)
			if err != nil {
				s.logger.Error("sweep failed", "sweep", name, "err", err)
				continue
			}
			if count > 0 {
				s.logger.Info("sweep completed", "sweep", name, "affected", count)
			}
		}
	}
}
