// Package reminder contains the Reminder entity and its repository contract.
package reminder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/campus-connect/campus-bot/internal/domain/shared"
)

// Reminder is a daily notification owned by a user. Reminders are created
// once and never mutated; there is no explicit delete path.
type Reminder struct {
	ID      int64
	UserID  int64
	TimeStr string // "HH:MM", 24-hour clock
	Message string
	JobRef  string // scheduler job identifier (UUID)
}

// ParseTime validates and splits an "HH:MM" string.
func ParseTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, shared.ErrInvalidReminderTime
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, shared.ErrInvalidReminderTime
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, shared.ErrInvalidReminderTime
	}

	return hour, minute, nil
}

// JobName returns the scheduler job name for a reminder.
func JobName(jobRef string) string {
	return fmt.Sprintf("reminder:%s", jobRef)
}

// Repository is the persistence contract for reminders.
type Repository interface {
	// Create inserts a reminder and returns it with the assigned ID.
	Create(ctx context.Context, r *Reminder) (*Reminder, error)

	// All returns every persisted reminder. Used on startup to re-register
	// scheduler jobs.
	All(ctx context.Context) ([]Reminder, error)
}
