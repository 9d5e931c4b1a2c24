// Package postgres implements the PostgreSQL persistence layer for the
// Campus Connect bot.
package postgres

import (
	"context"
	"fmt"

	"github.com/campus-connect/campus-bot/internal/domain/resource"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DOCUMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// DocumentRepository implements resource.DocumentRepository for PostgreSQL.
type DocumentRepository struct {
	conn *Connection
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(conn *Connection) *DocumentRepository {
	return &DocumentRepository{conn: conn}
}

// Save inserts a shared document.
func (r *DocumentRepository) Save(ctx context.Context, d *resource.SharedDocument) error {
	err := r.conn.QueryRow(ctx,
		`INSERT INTO shared_documents (user_id, file_ref, file_name, mime_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		d.UserID, d.FileRef, d.FileName, d.MimeType,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to save shared document: %w", err)
	}
	return nil
}

// ForUser returns the documents shared by a user.
func (r *DocumentRepository) ForUser(ctx context.Context, userID int64) ([]resource.SharedDocument, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT id, user_id, file_ref, file_name, mime_type
		 FROM shared_documents WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared documents: %w", err)
	}
	defer rows.Close()

	var docs []resource.SharedDocument
	for rows.Next() {
		var d resource.SharedDocument
		if err := rows.Scan(&d.ID, &d.UserID, &d.FileRef, &d.FileName, &d.MimeType); err != nil {
			return nil, fmt.Errorf("failed to scan shared document: %w", err)
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// FeedbackRepository implements resource.FeedbackRepository for PostgreSQL.
type FeedbackRepository struct {
	conn *Connection
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(conn *Connection) *FeedbackRepository {
	return &FeedbackRepository{conn: conn}
}

// Save inserts a feedback row.
func (r *FeedbackRepository) Save(ctx context.Context, f *resource.Feedback) error {
	err := r.conn.QueryRow(ctx,
		`INSERT INTO feedback (user_id, feedback_text) VALUES ($1, $2)
		 RETURNING id, submitted_on`,
		f.UserID, f.Text,
	).Scan(&f.ID, &f.SubmittedOn)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB OPPORTUNITY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// JobRepository implements resource.JobRepository for PostgreSQL.
type JobRepository struct {
	conn *Connection
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(conn *Connection) *JobRepository {
	return &JobRepository{conn: conn}
}

// All returns every job posting, newest first.
func (r *JobRepository) All(ctx context.Context) ([]resource.JobOpportunity, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT id, title, company, description, link
		 FROM job_opportunities ORDER BY posted_on DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query job opportunities: %w", err)
	}
	defer rows.Close()

	var jobs []resource.JobOpportunity
	for rows.Next() {
		var j resource.JobOpportunity
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Description, &j.Link); err != nil {
			return nil, fmt.Errorf("failed to scan job opportunity: %w", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}
