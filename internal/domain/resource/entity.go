// Package resource contains the simple owned and unowned record types:
// shared documents, feedback, and job opportunities, with their repository
// contracts.
package resource

import (
	"context"
	"time"
)

// SharedDocument is a file a user shared with the community.
type SharedDocument struct {
	ID       int64
	UserID   int64
	FileRef  string
	FileName string
	MimeType string
}

// Feedback is a free-text note submitted by a user. UserID is nil when the
// feedback came from an anonymous conversation.
type Feedback struct {
	ID          int64
	UserID      *int64
	Text        string
	SubmittedOn time.Time
}

// JobOpportunity is an unowned job posting shown to any user.
type JobOpportunity struct {
	ID          int64
	Title       string
	Company     string
	Description string
	Link        string
}

// DocumentRepository is the persistence contract for shared documents.
type DocumentRepository interface {
	// Save inserts a shared document.
	Save(ctx context.Context, d *SharedDocument) error

	// ForUser returns the documents shared by a user.
	ForUser(ctx context.Context, userID int64) ([]SharedDocument, error)
}

// FeedbackRepository is the persistence contract for feedback.
type FeedbackRepository interface {
	// Save inserts a feedback row.
	Save(ctx context.Context, f *Feedback) error
}

// JobRepository is the persistence contract for job opportunities.
type JobRepository interface {
	// All returns every job posting.
	All(ctx context.Context) ([]JobOpportunity, error)
}
