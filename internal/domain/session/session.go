// Package session defines the per-conversation state machine types and the
// session store contract. A session lives only for the duration of a
// conversation: it is created lazily on first contact, mutated on every
// input, and reset to anonymous on logout.
package session

import "context"

// State identifies which input the conversation is currently waiting for.
// The zero value is StateNone: no pending prompt. Invalid states are
// unrepresentable - every transition assigns one of the constants below.
type State int

const (
	// StateNone means no multi-step flow is in progress. Anonymous users and
	// authenticated idle users both sit here; they are told apart by UserID.
	StateNone State = iota

	// Registration flow
	StateAwaitingUsername
	StateAwaitingPassword
	StateAwaitingFullName
	StateAwaitingSemester
	StateAwaitingCollege
	StateAwaitingMobile
	StateAwaitingBranch
	StateAwaitingYearScheme

	// Login flow
	StateAwaitingLoginUsername
	StateAwaitingLoginPassword

	// Password reset flow. Reset has its own username state so an
	// interleaved login attempt can never alias the reset target.
	StateAwaitingResetUsername
	StateAwaitingResetPassword

	// Transcript upload
	StateAwaitingTranscriptUpload

	// Profile update flow
	StateAwaitingProfileFieldChoice
	StateAwaitingProfileFieldValue

	// Reminder flow
	StateAwaitingReminderTime
	StateAwaitingReminderMessage

	// Misc single-step flows
	StateAwaitingFeedback
	StateAwaitingDocumentShare
)

// String returns a human-readable state name for logging.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateAwaitingUsername:
		return "awaiting_username"
	case StateAwaitingPassword:
		return "awaiting_password"
	case StateAwaitingFullName:
		return "awaiting_full_name"
	case StateAwaitingSemester:
		return "awaiting_semester"
	case StateAwaitingCollege:
		return "awaiting_college"
	case StateAwaitingMobile:
		return "awaiting_mobile"
	case StateAwaitingBranch:
		return "awaiting_branch"
	case StateAwaitingYearScheme:
		return "awaiting_year_scheme"
	case StateAwaitingLoginUsername:
		return "awaiting_login_username"
	case StateAwaitingLoginPassword:
		return "awaiting_login_password"
	case StateAwaitingResetUsername:
		return "awaiting_reset_username"
	case StateAwaitingResetPassword:
		return "awaiting_reset_password"
	case StateAwaitingTranscriptUpload:
		return "awaiting_transcript_upload"
	case StateAwaitingProfileFieldChoice:
		return "awaiting_profile_field_choice"
	case StateAwaitingProfileFieldValue:
		return "awaiting_profile_field_value"
	case StateAwaitingReminderTime:
		return "awaiting_reminder_time"
	case StateAwaitingReminderMessage:
		return "awaiting_reminder_message"
	case StateAwaitingFeedback:
		return "awaiting_feedback"
	case StateAwaitingDocumentShare:
		return "awaiting_document_share"
	default:
		return "unknown"
	}
}

// Session holds the conversation state for one chat.
type Session struct {
	// ChatID is the conversation identifier (one per end user).
	ChatID int64 `json:"chat_id"`

	// State is the current position in a multi-step flow.
	State State `json:"state"`

	// UserID is set only after a successful login or registration.
	// nil means anonymous.
	UserID *int64 `json:"user_id,omitempty"`

	// PendingFields buffers form values collected so far (e.g. the
	// registration answers) until the final step commits them atomically.
	PendingFields map[string]string `json:"pending_fields,omitempty"`
}

// New creates a fresh anonymous session for the given chat.
func New(chatID int64) *Session {
	return &Session{
		ChatID:        chatID,
		State:         StateNone,
		PendingFields: make(map[string]string),
	}
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	return s.UserID != nil
}

// SetField buffers a collected form value.
func (s *Session) SetField(key, value string) {
	if s.PendingFields == nil {
		s.PendingFields = make(map[string]string)
	}
	s.PendingFields[key] = value
}

// Field returns a buffered form value.
func (s *Session) Field(key string) string {
	return s.PendingFields[key]
}

// ClearFields drops all buffered form values, typically after a commit or
// when a new flow starts.
func (s *Session) ClearFields() {
	s.PendingFields = make(map[string]string)
}

// Reset returns the session to the anonymous idle state, dropping the
// authenticated user and any buffered fields.
func (s *Session) Reset() {
	s.State = StateNone
	s.UserID = nil
	s.ClearFields()
}

// Store is the session store contract, keyed by conversation identifier.
// Implementations: an in-memory map for development and tests, Redis for
// deployments that need sessions to survive restarts.
type Store interface {
	// Get returns the session for the chat, creating an anonymous one if
	// none exists yet.
	Get(ctx context.Context, chatID int64) (*Session, error)

	// Put persists the session.
	Put(ctx context.Context, s *Session) error

	// Clear removes the session for the chat.
	Clear(ctx context.Context, chatID int64) error
}
