package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/campus-connect/campus-bot/internal/domain/session"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
)

// startTranscriptUpload begins the marks card upload flow.
func (m *Manager) startTranscriptUpload(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}
	return m.transition(ctx, sess, session.StateAwaitingTranscriptUpload,
		oneText("Please upload your marks card PDF."))
}

// ingestTranscript downloads the uploaded marks card and runs it through the
// grade pipeline. Photos and non-PDF documents are rejected with the state
// kept, so the user can retry without restarting the flow.
func (m *Manager) ingestTranscript(ctx context.Context, sess *session.Session, att Attachment) ([]Reply, error) {
	if att.Photo || !strings.EqualFold(att.MimeType, "application/pdf") {
		return oneText(msgUnsupportedTranscript), nil
	}

	content, err := m.files.Fetch(ctx, att.FileRef)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript file: %w", err)
	}

	result, err := m.pipeline.Ingest(ctx, *sess.UserID, att.FileRef, att.FileName, att.MimeType, content)
	if err != nil {
		if shared.IsValidation(err) {
			return oneText(msgUnsupportedTranscript), nil
		}
		return nil, err
	}

	if result.AlreadyIngested {
		return m.transition(ctx, sess, session.StateNone,
			oneText(fmt.Sprintf("You have already uploaded this marks card. Your SGPA is: %.2f", result.SGPA)))
	}

	return m.transition(ctx, sess, session.StateNone,
		oneText("Marks card PDF uploaded and processed successfully. SGPA has been updated."))
}
