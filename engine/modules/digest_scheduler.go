package modules

import (
	"context"
	"time"

	Logger "github.com/Luismorlan/newsportal/utils/log"
)

// DigestNotifier is the pipeline surface the scheduler needs. Satisfied by
// notification.Pipeline, replaced with a fake in tests.
type DigestNotifier interface {
	RunWeeklyDigest(ctx context.Context, now time.Time) error
}

type DigestSchedulerConfig struct {
	// Name of the scheduler module.
	Name string

	// When the weekly digest fires, local time.
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// DigestScheduler fires the weekly digest run at a fixed weekday and time.
// The run itself executes inline in the module goroutine, which trivially
// guarantees at most one concurrent digest run.
type DigestScheduler struct {
	Config DigestSchedulerConfig

	Notifier DigestNotifier

	// Overridable clock for tests.
	now func() time.Time
}

func NewDigestScheduler(config DigestSchedulerConfig, notifier DigestNotifier) *DigestScheduler {
	return &DigestScheduler{
		Config:   config,
		Notifier: notifier,
		now:      time.Now,
	}
}

func (s *DigestScheduler) RunModule(ctx context.Context) error {
	for {
		fireAt := s.NextFireTime(s.now())
		Logger.Log.Infof("next weekly digest scheduled at %s", fireAt)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(fireAt.Sub(s.now())):
		}

		if err := s.Notifier.RunWeeklyDigest(ctx, s.now()); err != nil {
			Logger.Log.Errorf("weekly digest run failed : %v", err)
		}
	}
}

// NextFireTime returns the next configured weekday/hour/minute strictly after
// now.
func (s *DigestScheduler) NextFireTime(now time.Time) time.Time {
	fire := time.Date(now.Year(), now.Month(), now.Day(), s.Config.Hour, s.Config.Minute, 0, 0, now.Location())

	daysAhead := (int(s.Config.Weekday) - int(now.Weekday()) + 7) % 7
	fire = fire.AddDate(0, 0, daysAhead)

	if !fire.After(now) {
		fire = fire.AddDate(0, 0, 7)
	}
	return fire
}

func (s *DigestScheduler) Name() string {
	return s.Config.Name
}

func (s *DigestScheduler) Shutdown() {}
