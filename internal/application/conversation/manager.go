// Package conversation implements the chat state machine: command routing,
// multi-step flows (registration, login, password reset, profile updates,
// reminders, feedback, document sharing), and the guard rules that keep
// authenticated-only operations away from anonymous sessions.
//
// The manager speaks in transport-neutral Replies; mapping them onto the
// Telegram API is the interface layer's job.
package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/campus-connect/campus-bot/internal/application/transcript"
	"github.com/campus-connect/campus-bot/internal/domain/reminder"
	"github.com/campus-connect/campus-bot/internal/domain/resource"
	"github.com/campus-connect/campus-bot/internal/domain/session"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/domain/user"
	"github.com/campus-connect/campus-bot/pkg/credentials"
)

// ══════════════════════════════════════════════════════════════════════════════
// Contracts
// ══════════════════════════════════════════════════════════════════════════════

// GradePipeline is the slice of the transcript pipeline the conversation
// needs: ingestion plus the two GPA queries.
type GradePipeline interface {
	Ingest(ctx context.Context, userID int64, fileRef, fileName, mimeType string, content []byte) (*transcript.Result, error)
	LatestSGPA(ctx context.Context, userID int64) (float64, error)
	CGPA(ctx context.Context, userID int64) (float64, error)
}

// ReminderScheduler registers a newly created reminder with the running
// scheduler so it starts firing without a restart.
type ReminderScheduler interface {
	ScheduleReminder(rem reminder.Reminder) error
}

// FileFetcher downloads an uploaded file's bytes from the transport.
type FileFetcher interface {
	Fetch(ctx context.Context, fileRef string) ([]byte, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event shared.Event) error
}

// Attachment is an inbound file: a document or a photo.
type Attachment struct {
	FileRef  string
	FileName string
	MimeType string
	Photo    bool
}

// ══════════════════════════════════════════════════════════════════════════════
// Shared reply texts
// ══════════════════════════════════════════════════════════════════════════════

// Guard and prompt texts. These are user-visible contract: flows elsewhere
// (and the docs) refer to them verbatim.
const (
	msgLoginFirst            = "Please login first using /login."
	msgLogoutFirstRegister   = "Please logout first using /logout before registering a new account."
	msgLogoutFirstLogin      = "Please logout first using /logout before logging in."
	msgUnknownCommand        = "Unknown command. Please use /menu to see available options."
	msgEnterUsername         = "Enter your username:"
	msgEnterPassword         = "Enter your password:"
	msgInvalidMobile         = "Invalid mobile number. Please enter a 10-digit mobile number:"
	msgInvalidCredentials    = "Invalid username or password. Please try again."
	msgNoSGPARecords         = "No SGPA records found. Please upload your marks card using /upload_markscard_pdf."
	msgUnsupportedTranscript = "Unsupported file format. Please upload a PDF file."
)

// ══════════════════════════════════════════════════════════════════════════════
// Manager
// ══════════════════════════════════════════════════════════════════════════════

// Deps carries everything the Manager depends on.
type Deps struct {
	Sessions  session.Store
	Users     user.Repository
	Pipeline  GradePipeline
	Reminders reminder.Repository
	Scheduler ReminderScheduler
	Documents resource.DocumentRepository
	Feedback  resource.FeedbackRepository
	Jobs      resource.JobRepository
	Vault     *credentials.Vault
	Files     FileFetcher
	Events    EventPublisher
	Logger    *slog.Logger
}

// Manager drives the conversation state machine. All entry points load the
// session, produce replies, and persist the session only when the handled
// input succeeded, so a failed persistence call never half-advances a flow.
type Manager struct {
	sessions  session.Store
	users     user.Repository
	pipeline  GradePipeline
	reminders reminder.Repository
	scheduler ReminderScheduler
	documents resource.DocumentRepository
	feedback  resource.FeedbackRepository
	jobs      resource.JobRepository
	vault     *credentials.Vault
	files     FileFetcher
	events    EventPublisher
	logger    *slog.Logger
}

// NewManager creates a Manager.
func NewManager(deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:  deps.Sessions,
		users:     deps.Users,
		pipeline:  deps.Pipeline,
		reminders: deps.Reminders,
		scheduler: deps.Scheduler,
		documents: deps.Documents,
		feedback:  deps.Feedback,
		jobs:      deps.Jobs,
		vault:     deps.Vault,
		files:     deps.Files,
		events:    deps.Events,
		logger:    logger,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Entry points
// ──────────────────────────────────────────────────────────────────────────────

// HandleCommand processes a slash command.
func (m *Manager) HandleCommand(ctx context.Context, chatID int64, command string) ([]Reply, error) {
	sess, err := m.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("command received",
		"chat_id", chatID,
		"command", command,
		"state", sess.State.String(),
	)

	switch command {
	case "start":
		return m.handleStart(ctx, sess)
	case "menu":
		return one(m.menuReply()), nil
	case "register":
		return m.startRegistration(ctx, sess)
	case "login":
		return m.startLogin(ctx, sess)
	case "reset_password":
		return m.startPasswordReset(ctx, sess)
	case "logout":
		return m.handleLogout(ctx, sess)
	case "sgpa":
		return m.handleSGPA(ctx, sess)
	case "cgpa":
		return m.handleCGPA(ctx, sess)
	case "profile":
		return m.handleProfile(ctx, sess)
	case "update_profile":
		return m.startProfileUpdate(ctx, sess)
	case "upload_markscard_pdf":
		return m.startTranscriptUpload(ctx, sess)
	case "generate_report":
		return m.handleGenerateReport(ctx, sess)
	case "set_reminder":
		return m.startReminder(ctx, sess)
	case "job_opportunities":
		return m.handleJobOpportunities(ctx, sess)
	case "share_document":
		return m.startDocumentShare(ctx, sess)
	case "list_resources":
		return m.handleListResources(ctx, sess)
	case "feedback":
		return m.startFeedback(ctx, sess)
	default:
		return oneText(msgUnknownCommand), nil
	}
}

// HandleText processes a plain text message against the session's current
// state.
func (m *Manager) HandleText(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	if strings.TrimSpace(text) == "Menu" {
		return one(m.menuReply()), nil
	}

	sess, err := m.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	switch sess.State {
	case session.StateAwaitingUsername,
		session.StateAwaitingPassword,
		session.StateAwaitingFullName,
		session.StateAwaitingSemester,
		session.StateAwaitingCollege,
		session.StateAwaitingMobile,
		session.StateAwaitingBranch,
		session.StateAwaitingYearScheme:
		return m.continueRegistration(ctx, sess, text)

	case session.StateAwaitingLoginUsername, session.StateAwaitingLoginPassword:
		return m.continueLogin(ctx, sess, text)

	case session.StateAwaitingResetUsername, session.StateAwaitingResetPassword:
		return m.continuePasswordReset(ctx, sess, text)

	case session.StateAwaitingProfileFieldValue:
		return m.applyProfileUpdate(ctx, sess, text)

	case session.StateAwaitingReminderTime, session.StateAwaitingReminderMessage:
		return m.continueReminder(ctx, sess, text)

	case session.StateAwaitingFeedback:
		return m.submitFeedback(ctx, sess, text)

	default:
		return oneText(msgUnknownCommand), nil
	}
}

// HandleAttachment processes an inbound document or photo. All file intake
// requires an authenticated session.
func (m *Manager) HandleAttachment(ctx context.Context, chatID int64, att Attachment) ([]Reply, error) {
	sess, err := m.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	switch sess.State {
	case session.StateAwaitingTranscriptUpload:
		return m.ingestTranscript(ctx, sess, att)
	case session.StateAwaitingDocumentShare:
		return m.shareDocument(ctx, sess, att)
	default:
		// Unsolicited file: ignore.
		return nil, nil
	}
}

// HandleCallback processes inline keyboard presses. Callback data is either
// a menu action name or an "update:<field>" profile choice; anything else is
// rejected before it can reach a persistence write.
func (m *Manager) HandleCallback(ctx context.Context, chatID int64, data string) ([]Reply, error) {
	if field, ok := strings.CutPrefix(data, "update:"); ok {
		return m.chooseProfileField(ctx, chatID, field)
	}

	sess, err := m.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	switch data {
	case "register":
		if sess.Authenticated() {
			return oneText(msgLogoutFirstRegister), nil
		}
		return m.startRegistration(ctx, sess)
	case "login":
		if sess.Authenticated() {
			return oneText(msgLogoutFirstLogin), nil
		}
		return m.startLogin(ctx, sess)
	case "upload_markscard_pdf":
		return m.startTranscriptUpload(ctx, sess)
	case "sgpa":
		return m.handleSGPA(ctx, sess)
	case "cgpa":
		return m.handleCGPA(ctx, sess)
	case "profile":
		return m.handleProfile(ctx, sess)
	case "update_profile":
		return m.startProfileUpdate(ctx, sess)
	case "generate_report":
		return m.handleGenerateReport(ctx, sess)
	case "set_reminder":
		return m.startReminder(ctx, sess)
	case "share_document":
		return m.startDocumentShare(ctx, sess)
	case "list_resources":
		return m.handleListResources(ctx, sess)
	case "job_opportunities":
		return m.handleJobOpportunities(ctx, sess)
	case "feedback":
		return m.startFeedback(ctx, sess)
	case "logout":
		return m.handleLogout(ctx, sess)
	default:
		m.logger.Warn("unknown callback data", "chat_id", chatID, "data", data)
		return nil, nil
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Start and menu
// ──────────────────────────────────────────────────────────────────────────────

const startDescription = `This bot helps you manage your student information. You can:
- Register and login
- Upload your marks card
- Check your SGPA and CGPA
- View and update your profile
- Set and manage reminders
- Generate and download your SGPA/CGPA report
- Get internship/job opportunities
- Share resources
- Give feedback`

func (m *Manager) handleStart(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if err := m.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	return []Reply{
		textReply("Welcome to the Student Bot!"),
		textReply(startDescription),
		{Text: "Use the button below to navigate the menu:", MenuButton: true},
	}, nil
}

func (m *Manager) menuReply() Reply {
	return Reply{
		Text: "Use the menu below to navigate:",
		Buttons: [][]Button{
			{{Label: "Register", Data: "register"}, {Label: "Login", Data: "login"}},
			{{Label: "Upload Marks Card PDF", Data: "upload_markscard_pdf"}, {Label: "SGPA", Data: "sgpa"}},
			{{Label: "CGPA", Data: "cgpa"}, {Label: "Profile", Data: "profile"}},
			{{Label: "Update Profile", Data: "update_profile"}, {Label: "Generate Report", Data: "generate_report"}},
			{{Label: "Set Reminder", Data: "set_reminder"}, {Label: "Share Document", Data: "share_document"}},
			{{Label: "List Resources", Data: "list_resources"}, {Label: "Job Opportunities", Data: "job_opportunities"}},
			{{Label: "Feedback", Data: "feedback"}, {Label: "Logout", Data: "logout"}},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// transition sets the session state and persists it, returning the prompt
// replies only when the store accepted the new state.
func (m *Manager) transition(ctx context.Context, sess *session.Session, state session.State, replies []Reply) ([]Reply, error) {
	sess.State = state
	if err := m.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	return replies, nil
}
