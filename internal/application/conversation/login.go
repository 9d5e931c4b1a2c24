package conversation

import (
	"context"
	"strconv"

	"github.com/campus-connect/campus-bot/internal/domain/session"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
)

// startLogin begins the login flow. An authenticated session must log out
// first.
func (m *Manager) startLogin(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if sess.Authenticated() {
		return oneText(msgLogoutFirstLogin), nil
	}
	sess.ClearFields()
	return m.transition(ctx, sess, session.StateAwaitingLoginUsername, oneText(msgEnterUsername))
}

// continueLogin advances the login flow. A failed attempt reports a single
// combined message and restarts from the username prompt; whether the
// username existed is never revealed, and the session stays anonymous.
func (m *Manager) continueLogin(ctx context.Context, sess *session.Session, text string) ([]Reply, error) {
	switch sess.State {
	case session.StateAwaitingLoginUsername:
		sess.SetField(fieldUsername, text)
		return m.transition(ctx, sess, session.StateAwaitingLoginPassword, oneText(msgEnterPassword))

	case session.StateAwaitingLoginPassword:
		u, err := m.users.FindByUsername(ctx, sess.Field(fieldUsername))
		if err != nil {
			if shared.IsNotFound(err) {
				return m.transition(ctx, sess, session.StateAwaitingLoginUsername, oneText(msgInvalidCredentials))
			}
			return nil, err
		}
		if !m.vault.Verify(u.PasswordHash, text) {
			return m.transition(ctx, sess, session.StateAwaitingLoginUsername, oneText(msgInvalidCredentials))
		}

		sess.UserID = &u.ID
		sess.ClearFields()
		replies, err := m.transition(ctx, sess, session.StateNone,
			oneText("Login successful! You can now use the menu to navigate."))
		if err != nil {
			return nil, err
		}

		m.logger.Info("user logged in", "user_id", u.ID, "chat_id", sess.ChatID)
		m.publish(ctx, shared.NewBaseEvent(shared.EventUserLoggedIn, strconv.FormatInt(u.ID, 10)))

		return replies, nil

	default:
		return oneText(msgUnknownCommand), nil
	}
}

// startPasswordReset begins the password reset flow. Reset runs on its own
// states so an interleaved login attempt cannot alias the reset target.
func (m *Manager) startPasswordReset(ctx context.Context, sess *session.Session) ([]Reply, error) {
	sess.ClearFields()
	return m.transition(ctx, sess, session.StateAwaitingResetUsername, oneText(msgEnterUsername))
}

// continuePasswordReset advances the reset flow.
func (m *Manager) continuePasswordReset(ctx context.Context, sess *session.Session, text string) ([]Reply, error) {
	switch sess.State {
	case session.StateAwaitingResetUsername:
		sess.SetField(fieldUsername, text)
		return m.transition(ctx, sess, session.StateAwaitingResetPassword, oneText("Enter your new password:"))

	case session.StateAwaitingResetPassword:
		hash, err := m.vault.Hash(text)
		if err != nil {
			return nil, err
		}
		if err := m.users.UpdatePassword(ctx, sess.Field(fieldUsername), hash); err != nil {
			if shared.IsNotFound(err) {
				return m.transition(ctx, sess, session.StateNone,
					oneText("No account found for that username."))
			}
			return nil, err
		}

		sess.ClearFields()
		return m.transition(ctx, sess, session.StateNone, oneText("Password reset successfully!"))

	default:
		return oneText(msgUnknownCommand), nil
	}
}

// handleLogout drops the authenticated user and any in-progress flow.
// Logging out an anonymous session is a harmless no-op.
func (m *Manager) handleLogout(ctx context.Context, sess *session.Session) ([]Reply, error) {
	var userID *int64
	if sess.Authenticated() {
		userID = sess.UserID
	}

	sess.Reset()
	if err := m.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	if userID != nil {
		m.logger.Info("user logged out", "user_id", *userID, "chat_id", sess.ChatID)
		m.publish(ctx, shared.NewBaseEvent(shared.EventUserLoggedOut, strconv.FormatInt(*userID, 10)))
	}

	return oneText("You have been logged out successfully."), nil
}
