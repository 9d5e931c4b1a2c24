// Package postgres implements the PostgreSQL persistence layer for the
// Campus Connect bot.
package postgres

import (
	"context"
	"fmt"

	"github.com/campus-connect/campus-bot/internal/domain/marks"
	"github.com/campus-connect/campus-bot/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARKS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MarksRepository implements marks.Repository for PostgreSQL.
type MarksRepository struct {
	conn *Connection
}

// NewMarksRepository creates a new MarksRepository.
func NewMarksRepository(conn *Connection) *MarksRepository {
	return &MarksRepository{conn: conn}
}

// FindUpload returns the ledger entry for (userID, fileRef).
func (r *MarksRepository) FindUpload(ctx context.Context, userID int64, fileRef string) (*marks.Upload, error) {
	query := `
		SELECT id, user_id, file_ref, sgpa, uploaded_on
		FROM marks_cards
		WHERE user_id = $1 AND file_ref = $2
	`

	var up marks.Upload
	err := r.conn.QueryRow(ctx, query, userID, fileRef).Scan(
		&up.ID,
		&up.UserID,
		&up.FileRef,
		&up.SGPA,
		&up.UploadedOn,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("marks", "FindUpload", shared.ErrNotFound, "marks card not ingested")
		}
		return nil, fmt.Errorf("failed to find upload: %w", err)
	}

	return &up, nil
}

// SemesterSGPAs returns the SGPA of every recorded upload for the user, in
// upload order.
func (r *MarksRepository) SemesterSGPAs(ctx context.Context, userID int64) ([]float64, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT sgpa FROM marks_cards WHERE user_id = $1 ORDER BY uploaded_on`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query semester sgpas: %w", err)
	}
	defer rows.Close()

	var sgpas []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan sgpa: %w", err)
		}
		sgpas = append(sgpas, s)
	}

	return sgpas, rows.Err()
}

// SaveIngestion persists the mark records, the ledger entry, and the user's
// latest SGPA in a single transaction. A failure at any step leaves no
// partial rows behind.
func (r *MarksRepository) SaveIngestion(ctx context.Context, userID int64, fileRef string, sgpa float64, records []marks.Record) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		insertRecord := `
			INSERT INTO marks (
				user_id, subject_code, subject_name, internal_marks, external_marks,
				total_marks, grade_points, credits, semester_sgpa
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		for _, rec := range records {
			_, err := tx.Exec(ctx, insertRecord,
				userID,
				rec.SubjectCode,
				rec.SubjectName,
				rec.Internal,
				rec.External,
				rec.Total,
				rec.GradePoints,
				rec.Credits,
				sgpa,
			)
			if err != nil {
				return fmt.Errorf("failed to insert mark record: %w", err)
			}
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO marks_cards (user_id, file_ref, sgpa) VALUES ($1, $2, $3)`,
			userID, fileRef, sgpa,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.NewDomainError("marks", "SaveIngestion", shared.ErrAlreadyExists, "marks card already ingested")
			}
			return fmt.Errorf("failed to record upload: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET sgpa = $1 WHERE id = $2`, sgpa, userID); err != nil {
			return fmt.Errorf("failed to update user sgpa: %w", err)
		}

		return nil
	})
}

// RecordsForUser returns all mark records for the user, newest first.
func (r *MarksRepository) RecordsForUser(ctx context.Context, userID int64) ([]marks.Record, error) {
	query := `
		SELECT id, user_id, subject_code, subject_name, internal_marks, external_marks,
			   total_marks, grade_points, credits, semester_sgpa, updated_on
		FROM marks
		WHERE user_id = $1
		ORDER BY updated_on DESC, id
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query marks: %w", err)
	}
	defer rows.Close()

	var records []marks.Record
	for rows.Next() {
		var rec marks.Record
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.SubjectCode,
			&rec.SubjectName,
			&rec.Internal,
			&rec.External,
			&rec.Total,
			&rec.GradePoints,
			&rec.Credits,
			&rec.SemesterSGPA,
			&rec.UpdatedOn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mark record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
