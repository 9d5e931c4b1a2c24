// Package transcript implements the marks card ingestion pipeline: media
// validation, idempotency check, external conversion, row parsing, grade
// computation, and transactional persistence.
package transcript

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/campus-connect/campus-bot/internal/domain/grades"
	"github.com/campus-connect/campus-bot/internal/domain/marks"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/domain/user"
)

// Converter turns an uploaded document into plain tabular text.
type Converter interface {
	ToText(ctx context.Context, fileName string, content []byte) (string, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event shared.Event) error
}

// Result is the outcome of an ingestion.
type Result struct {
	SGPA float64

	// AlreadyIngested is true when the document reference was processed
	// before; SGPA then carries the previously computed value.
	AlreadyIngested bool

	// Subjects is the number of rows recorded. Zero for repeat uploads.
	Subjects int
}

// Pipeline orchestrates transcript ingestion and GPA queries.
type Pipeline struct {
	marksRepo marks.Repository
	userRepo  user.Repository
	converter Converter
	events    EventPublisher
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(marksRepo marks.Repository, userRepo user.Repository, converter Converter, events EventPublisher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		marksRepo: marksRepo,
		userRepo:  userRepo,
		converter: converter,
		events:    events,
		logger:    logger,
	}
}

// Ingest processes one uploaded marks card. Only PDF uploads are accepted.
// Re-uploading a document the user already ingested returns the stored SGPA
// without reparsing or inserting duplicate records. Conversion failures
// surface with no rows written.
func (p *Pipeline) Ingest(ctx context.Context, userID int64, fileRef, fileName, mimeType string, content []byte) (*Result, error) {
	if !strings.EqualFold(mimeType, "application/pdf") {
		return nil, shared.ErrUnsupportedMedia
	}

	if existing, err := p.marksRepo.FindUpload(ctx, userID, fileRef); err == nil {
		p.logger.Info("marks card already ingested",
			"user_id", userID,
			"file_ref", fileRef,
			"sgpa", existing.SGPA,
		)
		return &Result{SGPA: existing.SGPA, AlreadyIngested: true}, nil
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	text, err := p.converter.ToText(ctx, fileName, content)
	if err != nil {
		return nil, err
	}

	rows := ParseRows(text)
	sgpa := grades.SGPA(rows)

	records := make([]marks.Record, 0, len(rows))
	now := time.Now()
	for _, row := range rows {
		records = append(records, marks.Record{
			UserID:       userID,
			SubjectCode:  row.SubjectCode,
			SubjectName:  row.SubjectName,
			Internal:     row.Internal,
			External:     row.External,
			Total:        row.Total(),
			GradePoints:  grades.GradePoint(row.Total()),
			Credits:      grades.Credits(row.SubjectCode),
			SemesterSGPA: sgpa,
			UpdatedOn:    now,
		})
	}

	if err := p.marksRepo.SaveIngestion(ctx, userID, fileRef, sgpa, records); err != nil {
		return nil, err
	}

	p.logger.Info("transcript ingested",
		"user_id", userID,
		"file_ref", fileRef,
		"subjects", len(records),
		"sgpa", sgpa,
	)

	if p.events != nil {
		event := shared.NewTranscriptIngestedEvent(userID, fileRef, sgpa)
		if err := p.events.Publish(ctx, event); err != nil {
			p.logger.Warn("failed to publish ingestion event", "error", err)
		}
	}

	return &Result{SGPA: sgpa, Subjects: len(records)}, nil
}

// LatestSGPA returns the user's most recent semester SGPA, or ErrNotFound if
// no transcript has been ingested yet.
func (p *Pipeline) LatestSGPA(ctx context.Context, userID int64) (float64, error) {
	u, err := p.userRepo.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u.SGPA == nil {
		return 0, shared.NewDomainError("transcript", "LatestSGPA", shared.ErrNotFound, "no transcript uploaded yet")
	}
	return *u.SGPA, nil
}

// CGPA recomputes the cumulative GPA from every recorded semester, persists
// it, and returns it. Recomputed on each request so late uploads are always
// reflected.
func (p *Pipeline) CGPA(ctx context.Context, userID int64) (float64, error) {
	sgpas, err := p.marksRepo.SemesterSGPAs(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(sgpas) == 0 {
		return 0, shared.NewDomainError("transcript", "CGPA", shared.ErrNotFound, "no transcript uploaded yet")
	}

	cgpa := grades.CGPA(sgpas)
	if err := p.userRepo.UpdateCGPA(ctx, userID, cgpa); err != nil {
		return 0, err
	}

	return cgpa, nil
}

// Records returns the user's recorded subjects, newest first.
func (p *Pipeline) Records(ctx context.Context, userID int64) ([]marks.Record, error) {
	return p.marksRepo.RecordsForUser(ctx, userID)
}
