// Package marks contains the per-subject mark record, the transcript upload
// ledger entry, and their repository contract.
package marks

import (
	"context"
	"time"
)

// Record is one parsed transcript line that has been graded. Each Record
// belongs to exactly one user.
type Record struct {
	ID           int64
	UserID       int64
	SubjectCode  string
	SubjectName  string
	Internal     int
	External     int
	Total        int
	GradePoints  int
	Credits      int
	SemesterSGPA float64
	UpdatedOn    time.Time
}

// Upload is the idempotency ledger entry for one ingested marks card. The
// (UserID, FileRef) pair prevents the same document from being reprocessed;
// the stored SGPA is returned on a repeat upload and feeds CGPA computation.
type Upload struct {
	ID         int64
	UserID     int64
	FileRef    string
	SGPA       float64
	UploadedOn time.Time
}

// Repository is the persistence contract for marks and the upload ledger.
type Repository interface {
	// FindUpload returns the ledger entry for (userID, fileRef), or
	// shared.ErrNotFound if this document has not been ingested yet.
	FindUpload(ctx context.Context, userID int64, fileRef string) (*Upload, error)

	// SemesterSGPAs returns the SGPA of every recorded upload for the user,
	// in upload order. Used to derive CGPA.
	SemesterSGPAs(ctx context.Context, userID int64) ([]float64, error)

	// SaveIngestion persists the mark records, the ledger entry, and the
	// user's latest SGPA in a single transaction. A failure leaves no
	// partial rows behind.
	SaveIngestion(ctx context.Context, userID int64, fileRef string, sgpa float64, records []Record) error

	// RecordsForUser returns all mark records for the user, newest first.
	RecordsForUser(ctx context.Context, userID int64) ([]Record, error)
}
