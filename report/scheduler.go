package report

import (
	"context"
	"time"

	"sales-assistant/domain"
	"sales-assistant/utils"

	"go.uber.org/zap"
)

// Scheduler triggers a summary run for all active employees once a day at
// a fixed local time.
type Scheduler struct {
	runner     *Runner
	loc        *time.Location
	hour       int
	minute     int
	runTimeout time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewScheduler(runner *Runner, loc *time.Location, hour, minute int, runTimeout time.Duration, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		runner:     runner,
		loc:        loc,
		hour:       hour,
		minute:     minute,
		runTimeout: runTimeout,
		now:        time.Now,
		logger:     logger,
	}
}

// NextRun returns the first hour:minute in loc strictly after now.
func NextRun(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Start blocks until ctx is cancelled, running one summary per day.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := NextRun(s.now(), s.loc, s.hour, s.minute)
		s.logger.Info("Next summary run scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Summary scheduler stopped")
			return
		case fired := <-timer.C:
			s.tick(ctx, fired)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, fired time.Time) {
	runCtx, cancel := utils.WithTimeout(ctx, s.runTimeout)
	defer cancel()
	asOf := domain.BusinessDate(fired, s.loc)
	if _, err := s.runner.Run(runCtx, nil, asOf); err != nil {
		s.logger.Error("Scheduled summary run failed",
			zap.Time("as_of", asOf),
			zap.Error(err))
	}
}
