// Package postgres implements the PostgreSQL persistence layer for the
// Campus Connect bot.
package postgres

import (
	"context"
	"fmt"

	"github.com/campus-connect/campus-bot/internal/domain/reminder"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ReminderRepository implements reminder.Repository for PostgreSQL.
type ReminderRepository struct {
	conn *Connection
}

// NewReminderRepository creates a new ReminderRepository.
func NewReminderRepository(conn *Connection) *ReminderRepository {
	return &ReminderRepository{conn: conn}
}

// Create inserts a reminder.
func (r *ReminderRepository) Create(ctx context.Context, rem *reminder.Reminder) (*reminder.Reminder, error) {
	query := `
		INSERT INTO reminders (user_id, remind_at, message, job_ref)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	created := *rem
	err := r.conn.QueryRow(ctx, query,
		rem.UserID,
		rem.TimeStr,
		rem.Message,
		rem.JobRef,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return &created, nil
}

// All returns every persisted reminder, oldest first. Called on startup to
// re-register scheduler jobs.
func (r *ReminderRepository) All(ctx context.Context) ([]reminder.Reminder, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT id, user_id, remind_at, message, job_ref FROM reminders ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []reminder.Reminder
	for rows.Next() {
		var rem reminder.Reminder
		err := rows.Scan(&rem.ID, &rem.UserID, &rem.TimeStr, &rem.Message, &rem.JobRef)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}

	return reminders, rows.Err()
}
