// Package jobs contains the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"

	"github.com/campus-connect/campus-bot/internal/domain/reminder"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
)

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event shared.Event) error
}

// FireReminderJob publishes a ReminderDueEvent when its daily schedule
// fires. One instance exists per stored reminder; delivery is handled by
// whoever subscribes to the event, keeping the scheduler free of transport
// concerns.
type FireReminderJob struct {
	rem       reminder.Reminder
	publisher EventPublisher
}

// NewFireReminderJob creates a job for the given reminder.
func NewFireReminderJob(rem reminder.Reminder, publisher EventPublisher) *FireReminderJob {
	return &FireReminderJob{rem: rem, publisher: publisher}
}

// Name returns the unique scheduler name for this reminder.
func (j *FireReminderJob) Name() string {
	return reminder.JobName(j.rem.JobRef)
}

// Description returns a human-readable description of the job.
func (j *FireReminderJob) Description() string {
	return fmt.Sprintf("daily reminder at %s for user %d", j.rem.TimeStr, j.rem.UserID)
}

// Run publishes the due event.
func (j *FireReminderJob) Run(ctx context.Context) error {
	event := shared.NewReminderDueEvent(j.rem.ID, j.rem.UserID, j.rem.Message)
	if err := j.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish reminder due event: %w", err)
	}
	return nil
}
