package scheduler

import (
	"fmt"
	"time"
)

// DailySchedule fires once per day at a fixed wall-clock time.
type DailySchedule struct {
	hour   int
	minute int
}

// NewDailySchedule creates a schedule for the given 24-hour time. Values are
// assumed pre-validated (reminder.ParseTime).
func NewDailySchedule(hour, minute int) DailySchedule {
	return DailySchedule{hour: hour, minute: minute}
}

// Next returns the next occurrence of the configured time strictly after t.
func (d DailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), d.hour, d.minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns a human-readable representation of the schedule.
func (d DailySchedule) String() string {
	return fmt.Sprintf("daily at %02d:%02d", d.hour, d.minute)
}
