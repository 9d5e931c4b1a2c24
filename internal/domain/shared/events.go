package shared

import (
	"context"
	"strconv"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain.
const (
	// User events
	EventUserRegistered EventType = "user.registered"
	EventUserLoggedIn   EventType = "user.logged_in"
	EventUserLoggedOut  EventType = "user.logged_out"

	// Transcript events
	EventTranscriptIngested EventType = "transcript.ingested"

	// Reminder events
	EventReminderCreated EventType = "reminder.created"
	EventReminderDue     EventType = "reminder.due"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// EventHandler processes a published event.
type EventHandler func(ctx context.Context, event Event) error

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// ReminderDueEvent is emitted by the scheduler when a reminder fires.
// The bot consumes it on the same dispatch path as user-originated input,
// so timer goroutines never touch session or transport state directly.
type ReminderDueEvent struct {
	BaseEvent
	ReminderID int64  `json:"reminder_id"`
	UserID     int64  `json:"user_id"`
	Message    string `json:"message"`
}

// NewReminderDueEvent creates a ReminderDueEvent for the given reminder.
func NewReminderDueEvent(reminderID, userID int64, message string) ReminderDueEvent {
	return ReminderDueEvent{
		BaseEvent:  NewBaseEvent(EventReminderDue, strconv.FormatInt(reminderID, 10)),
		ReminderID: reminderID,
		UserID:     userID,
		Message:    message,
	}
}

// TranscriptIngestedEvent is emitted after a marks card has been parsed and
// its SGPA persisted.
type TranscriptIngestedEvent struct {
	BaseEvent
	UserID  int64   `json:"user_id"`
	FileRef string  `json:"file_ref"`
	SGPA    float64 `json:"sgpa"`
}

// NewTranscriptIngestedEvent creates a TranscriptIngestedEvent.
func NewTranscriptIngestedEvent(userID int64, fileRef string, sgpa float64) TranscriptIngestedEvent {
	return TranscriptIngestedEvent{
		BaseEvent: NewBaseEvent(EventTranscriptIngested, strconv.FormatInt(userID, 10)),
		UserID:    userID,
		FileRef:   fileRef,
		SGPA:      sgpa,
	}
}
