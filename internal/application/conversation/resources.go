package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/campus-connect/campus-bot/internal/domain/resource"
	"github.com/campus-connect/campus-bot/internal/domain/session"
)

// handleJobOpportunities lists job postings. Available to anonymous users.
func (m *Manager) handleJobOpportunities(ctx context.Context, sess *session.Session) ([]Reply, error) {
	jobs, err := m.jobs.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return oneText("No job opportunities available."), nil
	}

	replies := make([]Reply, 0, len(jobs))
	for _, job := range jobs {
		text := fmt.Sprintf("**%s** at **%s**\n%s\n[More Info](%s)",
			job.Title, job.Company, job.Description, job.Link)
		replies = append(replies, Reply{Text: text, Markdown: true, DisableWebPreview: true})
	}
	return replies, nil
}

// startDocumentShare begins the document sharing flow.
func (m *Manager) startDocumentShare(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}
	return m.transition(ctx, sess, session.StateAwaitingDocumentShare,
		oneText("Upload the document you want to share:"))
}

// shareDocument stores a shared file reference. Documents and photos are
// both accepted; the file itself stays on the transport and is re-sent by
// reference when listed.
func (m *Manager) shareDocument(ctx context.Context, sess *session.Session, att Attachment) ([]Reply, error) {
	name := att.FileName
	mime := att.MimeType
	if att.Photo {
		name = "photo.jpg"
		mime = "image/jpeg"
	}

	err := m.documents.Save(ctx, &resource.SharedDocument{
		UserID:   *sess.UserID,
		FileRef:  att.FileRef,
		FileName: name,
		MimeType: mime,
	})
	if err != nil {
		return nil, err
	}

	return m.transition(ctx, sess, session.StateNone,
		oneText(fmt.Sprintf("Document %s shared successfully!", name)))
}

// handleListResources sends back every document the user has shared: PDFs
// and images by file reference, anything else as a text line.
func (m *Manager) handleListResources(ctx context.Context, sess *session.Session) ([]Reply, error) {
	if !sess.Authenticated() {
		return oneText(msgLoginFirst), nil
	}

	docs, err := m.documents.ForUser(ctx, *sess.UserID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return oneText("No resources available."), nil
	}

	replies := make([]Reply, 0, len(docs))
	for _, doc := range docs {
		switch {
		case doc.MimeType == "application/pdf":
			replies = append(replies, Reply{
				Document: &File{FileRef: doc.FileRef, FileName: doc.FileName, Caption: doc.FileName},
			})
		case strings.HasPrefix(doc.MimeType, "image/"):
			replies = append(replies, Reply{
				Document: &File{FileRef: doc.FileRef, FileName: doc.FileName, Caption: doc.FileName, Photo: true},
			})
		default:
			replies = append(replies, textReply(fmt.Sprintf("%s - Shared document", doc.FileName)))
		}
	}
	return replies, nil
}

// startFeedback begins the feedback flow. Feedback works for anonymous
// sessions too; the author is simply not recorded.
func (m *Manager) startFeedback(ctx context.Context, sess *session.Session) ([]Reply, error) {
	return m.transition(ctx, sess, session.StateAwaitingFeedback, oneText("Enter your feedback:"))
}

// submitFeedback stores the feedback text.
func (m *Manager) submitFeedback(ctx context.Context, sess *session.Session, text string) ([]Reply, error) {
	err := m.feedback.Save(ctx, &resource.Feedback{
		UserID: sess.UserID,
		Text:   text,
	})
	if err != nil {
		return nil, err
	}

	return m.transition(ctx, sess, session.StateNone, oneText("Thank you for your feedback!"))
}
