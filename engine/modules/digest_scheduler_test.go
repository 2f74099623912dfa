package modules

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Luismorlan/newsportal/utils/dotenv"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

type fakeDigestNotifier struct {
	runs int
}

func (f *fakeDigestNotifier) RunWeeklyDigest(ctx context.Context, now time.Time) error {
	f.runs++
	return nil
}

func mondayScheduler() *DigestScheduler {
	return NewDigestScheduler(DigestSchedulerConfig{
		Name:    "digest_scheduler",
		Weekday: time.Monday,
		Hour:    9,
		Minute:  0,
	}, &fakeDigestNotifier{})
}

func TestNextFireTimeLaterSameWeek(t *testing.T) {
	s := mondayScheduler()

	// Saturday 2021-12-18 12:00 -> Monday 2021-12-20 09:00.
	now := time.Date(2021, 12, 18, 12, 0, 0, 0, time.UTC)
	fire := s.NextFireTime(now)
	assert.Equal(t, time.Date(2021, 12, 20, 9, 0, 0, 0, time.UTC), fire)
}

func TestNextFireTimeSameDayBefore(t *testing.T) {
	s := mondayScheduler()

	// Monday 08:59 fires the same day at 09:00.
	now := time.Date(2021, 12, 20, 8, 59, 0, 0, time.UTC)
	fire := s.NextFireTime(now)
	assert.Equal(t, time.Date(2021, 12, 20, 9, 0, 0, 0, time.UTC), fire)
}

func TestNextFireTimeSameDayAfter(t *testing.T) {
	s := mondayScheduler()

	// Monday 09:01 already passed, next fire is a week out.
	now := time.Date(2021, 12, 20, 9, 1, 0, 0, time.UTC)
	fire := s.NextFireTime(now)
	assert.Equal(t, time.Date(2021, 12, 27, 9, 0, 0, 0, time.UTC), fire)
}

func TestNextFireTimeExactlyAtFire(t *testing.T) {
	s := mondayScheduler()

	// Exactly at fire time the next run is strictly in the future.
	now := time.Date(2021, 12, 20, 9, 0, 0, 0, time.UTC)
	fire := s.NextFireTime(now)
	assert.Equal(t, time.Date(2021, 12, 27, 9, 0, 0, 0, time.UTC), fire)
}
