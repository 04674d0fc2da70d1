package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Purger removes finished jobs older than a cutoff.
type Purger interface {
	PurgeFinished(ctx context.Context, before time.Time) (int, error)
}

// RetentionSweeper periodically purges finished jobs from a store.
type RetentionSweeper struct {
	cron   *cron.Cron
	store  Purger
	maxAge time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewRetentionSweeper validates the 5-field cron schedule and registers
// the sweep. Call Start to begin running it.
func NewRetentionSweeper(schedule string, maxAge time.Duration, store Purger, log zerolog.Logger) (*RetentionSweeper, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %s", maxAge)
	}
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}

	s := &RetentionSweeper{
		cron:   cron.New(cron.WithParser(scheduleParser), cron.WithLocation(time.UTC)),
		store:  store,
		maxAge: maxAge,
		log:    log.With().Str("component", "job_retention").Logger(),
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("Job retention sweep failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule retention sweep: %w", err)
	}
	return s, nil
}

// Sweep purges jobs that finished more than maxAge ago.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.maxAge)
	n, err := s.store.PurgeFinished(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge finished jobs: %w", err)
	}
	if n > 0 {
		s.log.Info().Int("purged", n).Time("cutoff", cutoff).Msg("Purged finished jobs")
	}
	return n, nil
}

// Next returns the next scheduled sweep after t.
func (s *RetentionSweeper) Next(t time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(t)
}

// Start runs the schedule in the background.
func (s *RetentionSweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep up to ctx.
func (s *RetentionSweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
