package conversation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/campus-connect/campus-bot/internal/domain/reminder"
	"github.com/campus-connect/campus-bot/internal/domain/session"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
)

// Buffered form key for the reminder flow.
const fieldReminderTime = "reminder_time"

// startReminder begins the reminder flow.
func (m *Manager) startReminder(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}
	sess.ClearFields()
	return m.transition(ctx, sess, session.StateAwaitingReminderTime,
		oneText("Enter the reminder time in HH:MM format:"))
}

// continueReminder advances the reminder flow: time first, then message,
// then a single commit that persists the reminder and registers its daily
// scheduler job.
func (m *Manager) continueReminder(ctx context.Context, sess *session.Session, text string) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	switch sess.State {
	case session.StateAwaitingReminderTime:
		if _, _, err := reminder.ParseTime(text); err != nil {
			// Re-prompt without leaving the state.
			return oneText("Invalid time. Enter the reminder time in HH:MM format:"), nil
		}
		sess.SetField(fieldReminderTime, text)
		return m.transition(ctx, sess, session.StateAwaitingReminderMessage,
			oneText("Enter the reminder message:"))

	case session.StateAwaitingReminderMessage:
		created, err := m.reminders.Create(ctx, &reminder.Reminder{
			UserID:  *sess.UserID,
			TimeStr: sess.Field(fieldReminderTime),
			Message: text,
			JobRef:  uuid.NewString(),
		})
		if err != nil {
			return nil, fmt.Errorf("create reminder: %w", err)
		}

		if err := m.scheduler.ScheduleReminder(*created); err != nil {
			// The row is persisted; the job will be picked up on the next
			// restart even though live registration failed.
			m.logger.Error("failed to schedule reminder job",
				"reminder_id", created.ID,
				"job_ref", created.JobRef,
				"error", err,
			)
		}

		sess.ClearFields()
		replies, err := m.transition(ctx, sess, session.StateNone, oneText("Reminder set successfully!"))
		if err != nil {
			return nil, err
		}

		m.logger.Info("reminder created",
			"reminder_id", created.ID,
			"user_id", created.UserID,
			"time", created.TimeStr,
		)
		m.publish(ctx, shared.NewBaseEvent(shared.EventReminderCreated, strconv.FormatInt(created.ID, 10)))

		return replies, nil

	default:
		return oneText(msgUnknownCommand), nil
	}
}
