package conversation

import (
	"context"
	"strconv"

	"github.com/campus-connect/campus-bot/internal/domain/session"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/domain/user"
)

// Buffered form keys used by the registration flow.
const (
	fieldUsername = "username"
	fieldPassword = "password"
	fieldFullName = "full_name"
	fieldSemester = "semester"
	fieldCollege  = "college"
	fieldMobile   = "mobile"
	fieldBranch   = "branch"
)

// startRegistration begins the registration flow. An authenticated session
// must log out first.
func (m *Manager) startRegistration(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if sess.Authenticated() {
		return oneText(msgLogoutFirstRegister), nil
	}
	sess.ClearFields()
	return m.transition(ctx, sess, session.StateAwaitingUsername, oneText(msgEnterUsername))
}

// continueRegistration advances the registration flow by one answer. All
// answers are buffered on the session; nothing is written to the user store
// until the final step commits the complete form in one Create call.
func (m *Manager) continueRegistration(ctx context.Context, sess *session.Session, text string) ([]Reply, error) {
	switch sess.State {
	case session.StateAwaitingUsername:
		sess.SetField(fieldUsername, text)
		return m.transition(ctx, sess, session.StateAwaitingPassword, oneText(msgEnterPassword))

	case session.StateAwaitingPassword:
		sess.SetField(fieldPassword, text)
		return m.transition(ctx, sess, session.StateAwaitingFullName, oneText("Enter your full name:"))

	case session.StateAwaitingFullName:
		sess.SetField(fieldFullName, text)
		// Collision check happens here, before the user types the rest of
		// the form for nothing. The final Create still guards against a
		// race on the unique index.
		taken, err := m.users.UsernameExists(ctx, sess.Field(fieldUsername))
		if err != nil {
			return nil, err
		}
		if taken {
			return m.transition(ctx, sess, session.StateAwaitingUsername,
				oneText("Username already exists. Please login or choose a different username."))
		}
		return m.transition(ctx, sess, session.StateAwaitingSemester, oneText("Enter your semester:"))

	case session.StateAwaitingSemester:
		sess.SetField(fieldSemester, text)
		return m.transition(ctx, sess, session.StateAwaitingCollege, oneText("Enter your college name:"))

	case session.StateAwaitingCollege:
		sess.SetField(fieldCollege, text)
		return m.transition(ctx, sess, session.StateAwaitingMobile, oneText("Enter your mobile number:"))

	case session.StateAwaitingMobile:
		if !user.ValidMobile(text) {
			// Stay in the same state and re-prompt.
			return oneText(msgInvalidMobile), nil
		}
		sess.SetField(fieldMobile, text)
		return m.transition(ctx, sess, session.StateAwaitingBranch, oneText("Enter your branch:"))

	case session.StateAwaitingBranch:
		sess.SetField(fieldBranch, text)
		return m.transition(ctx, sess, session.StateAwaitingYearScheme, oneText("Enter your year scheme:"))

	case session.StateAwaitingYearScheme:
		return m.commitRegistration(ctx, sess, text)

	default:
		return oneText(msgUnknownCommand), nil
	}
}

// commitRegistration hashes the password and inserts the account. On any
// failure the session is left untouched, so the flow can be retried without
// a half-registered account.
func (m *Manager) commitRegistration(ctx context.Context, sess *session.Session, yearScheme string) ([]Reply, error) {
	hash, err := m.vault.Hash(sess.Field(fieldPassword))
	if err != nil {
		return nil, err
	}

	created, err := m.users.Create(ctx, &user.User{
		FullName:     sess.Field(fieldFullName),
		Username:     sess.Field(fieldUsername),
		PasswordHash: hash,
		Semester:     sess.Field(fieldSemester),
		College:      sess.Field(fieldCollege),
		Mobile:       sess.Field(fieldMobile),
		Branch:       sess.Field(fieldBranch),
		YearScheme:   yearScheme,
		ChatID:       sess.ChatID,
	})
	if err != nil {
		if shared.IsAlreadyExists(err) {
			return m.transition(ctx, sess, session.StateAwaitingUsername,
				oneText("Username already exists. Please login or choose a different username."))
		}
		return nil, err
	}

	sess.UserID = &created.ID
	sess.ClearFields()
	replies, err := m.transition(ctx, sess, session.StateNone,
		oneText("Registration successful! You can now use the menu to navigate."))
	if err != nil {
		return nil, err
	}

	m.logger.Info("user registered", "user_id", created.ID, "chat_id", sess.ChatID)
	m.publish(ctx, shared.NewBaseEvent(shared.EventUserRegistered, strconv.FormatInt(created.ID, 10)))

	return replies, nil
}

// publish sends a domain event, logging instead of failing the conversation
// when the bus rejects it.
func (m *Manager) publish(ctx context.Context, event shared.Event) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
