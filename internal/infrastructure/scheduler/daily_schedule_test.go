package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailySchedule_NextLaterToday(t *testing.T) {
	sched := NewDailySchedule(18, 30)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	next := sched.Next(now)

	assert.Equal(t, time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC), next)
}

func TestDailySchedule_NextRollsToTomorrow(t *testing.T) {
	sched := NewDailySchedule(8, 0)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	next := sched.Next(now)

	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), next)
}

func TestDailySchedule_ExactTimeRollsToTomorrow(t *testing.T) {
	sched := NewDailySchedule(9, 0)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Firing at exactly the scheduled instant must not re-fire the same day.
	next := sched.Next(now)

	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), next)
}

func TestDailySchedule_PreservesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	sched := NewDailySchedule(7, 15)
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, loc)

	next := sched.Next(now)

	assert.Equal(t, loc, next.Location())
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 15, next.Minute())
}

func TestDailySchedule_String(t *testing.T) {
	assert.Equal(t, "daily at 07:05", NewDailySchedule(7, 5).String())
}
