package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/campus-connect/campus-bot/internal/domain/session"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/domain/user"
)

// Buffered form key for the profile update flow.
const fieldProfileField = "profile_field"

// handleSGPA reports the latest semester SGPA.
func (m *Manager) handleSGPA(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	sgpa, err := m.pipeline.LatestSGPA(ctx, *sess.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return oneText(msgNoSGPARecords), nil
		}
		return nil, err
	}

	return oneText(fmt.Sprintf("Your SGPA is: %.2f", sgpa)), nil
}

// handleCGPA recomputes and reports the cumulative GPA.
func (m *Manager) handleCGPA(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	cgpa, err := m.pipeline.CGPA(ctx, *sess.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return oneText(msgNoSGPARecords), nil
		}
		return nil, err
	}

	return oneText(fmt.Sprintf("Your CGPA is: %.2f", cgpa)), nil
}

// handleProfile shows the profile card.
func (m *Manager) handleProfile(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	u, err := m.users.FindByID(ctx, *sess.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return oneText("Profile not found."), nil
		}
		return nil, err
	}

	card := fmt.Sprintf(`*Profile Information*
Full Name: %s
Semester: %s
College: %s
Mobile: %s
Branch: %s
Year Scheme: %s
SGPA: %s
CGPA: %s`,
		u.FullName, u.Semester, u.College, u.Mobile, u.Branch, u.YearScheme,
		formatGPA(u.SGPA), formatGPA(u.CGPA))

	return one(markdownReply(card)), nil
}

// formatGPA renders an optional grade average, "N/A" until the first marks
// card is processed.
func formatGPA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

// startProfileUpdate shows the field chooser keyboard. Callback data uses an
// "update:" prefix with the column name after the colon, so the field name
// round-trips without ambiguity.
func (m *Manager) startProfileUpdate(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	chooser := Reply{
		Text: "Choose the information you want to update:",
		Buttons: [][]Button{
			{updateButton(user.FieldFullName), updateButton(user.FieldSemester)},
			{updateButton(user.FieldCollege), updateButton(user.FieldMobile)},
			{updateButton(user.FieldBranch), updateButton(user.FieldYearScheme)},
		},
	}

	return m.transition(ctx, sess, session.StateAwaitingProfileFieldChoice, one(chooser))
}

func updateButton(f user.ProfileField) Button {
	return Button{Label: f.Label(), Data: "update:" + string(f)}
}

// chooseProfileField handles an "update:<field>" callback. The field name is
// validated against the closed ProfileField set before it is buffered; an
// unlisted field never reaches the write path.
func (m *Manager) chooseProfileField(ctx context.Context, chatID int64, field string) ([]Reply, error) {
	sess, err := m.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	parsed, err := user.ParseProfileField(field)
	if err != nil {
		m.logger.Warn("rejected profile field", "chat_id", chatID, "field", field)
		return oneText(msgUnknownCommand), nil
	}

	sess.SetField(fieldProfileField, string(parsed))
	prompt := fmt.Sprintf("Enter your new %s:", strings.ToLower(parsed.Label()))
	return m.transition(ctx, sess, session.StateAwaitingProfileFieldValue, oneText(prompt))
}

// applyProfileUpdate writes the new value for the previously chosen field.
func (m *Manager) applyProfileUpdate(ctx context.Context, sess *session.Session, text string) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	field, err := user.ParseProfileField(sess.Field(fieldProfileField))
	if err != nil {
		return nil, err
	}

	if field == user.FieldMobile && !user.ValidMobile(text) {
		return oneText(msgInvalidMobile), nil
	}

	if err := m.users.UpdateField(ctx, *sess.UserID, field, text); err != nil {
		return nil, err
	}

	sess.ClearFields()
	return m.transition(ctx, sess, session.StateNone,
		oneText(fmt.Sprintf("%s updated successfully!", field.Label())))
}

// handleGenerateReport renders the profile and GPA summary as a downloadable
// report document.
func (m *Manager) handleGenerateReport(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	u, err := m.users.FindByID(ctx, *sess.UserID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Campus Connect\n")
	b.WriteString("==============\n\n")
	fmt.Fprintf(&b, "%-12s %s\n", "Full Name:", u.FullName)
	fmt.Fprintf(&b, "%-12s %s\n", "Semester:", u.Semester)
	fmt.Fprintf(&b, "%-12s %s\n", "College:", u.College)
	fmt.Fprintf(&b, "%-12s %s\n", "Branch:", u.Branch)
	fmt.Fprintf(&b, "%-12s %s\n", "SGPA:", formatGPA(u.SGPA))
	fmt.Fprintf(&b, "%-12s %s\n", "CGPA:", formatGPA(u.CGPA))

	return one(Reply{
		Document: &File{
			FileName: fmt.Sprintf("report_%d.txt", u.ID),
			Content:  []byte(b.String()),
			Caption:  "Your SGPA/CGPA report",
		},
	}), nil
}
