// Package user contains the User entity, its validation rules, and the
// repository contract for the users table.
package user

import (
	"context"
	"time"

	"github.com/campus-connect/campus-bot/internal/domain/shared"
)

// User represents a registered student account.
type User struct {
	ID           int64
	FullName     string
	Username     string
	PasswordHash []byte
	Semester     string
	College      string
	Mobile       string
	Branch       string
	YearScheme   string

	// SGPA is the grade-point average of the most recent uploaded semester.
	// CGPA is the mean across all uploaded semesters. Both are nil until the
	// first marks card is processed.
	SGPA *float64
	CGPA *float64

	// ChatID is the notification destination for reminders.
	ChatID    int64
	CreatedAt time.Time
}

// ProfileField identifies a user column that may be changed through the
// profile update flow. Field names arriving from callback data are mapped
// through ParseProfileField; anything outside this closed set never reaches
// a persistence write.
type ProfileField string

const (
	FieldFullName   ProfileField = "full_name"
	FieldSemester   ProfileField = "semester"
	FieldCollege    ProfileField = "college"
	FieldMobile     ProfileField = "mobile"
	FieldBranch     ProfileField = "branch"
	FieldYearScheme ProfileField = "year_scheme"
)

// ParseProfileField validates a field name against the updatable set.
func ParseProfileField(s string) (ProfileField, error) {
	switch ProfileField(s) {
	case FieldFullName, FieldSemester, FieldCollege, FieldMobile, FieldBranch, FieldYearScheme:
		return ProfileField(s), nil
	default:
		return "", shared.NewDomainError("user", "ParseProfileField", shared.ErrInvalidInput, "unknown profile field")
	}
}

// Label returns the field name as shown to the user.
func (f ProfileField) Label() string {
	switch f {
	case FieldFullName:
		return "Full Name"
	case FieldSemester:
		return "Semester"
	case FieldCollege:
		return "College"
	case FieldMobile:
		return "Mobile"
	case FieldBranch:
		return "Branch"
	case FieldYearScheme:
		return "Year Scheme"
	default:
		return string(f)
	}
}

// ValidMobile reports whether s is exactly 10 digits.
func ValidMobile(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Repository is the persistence contract for users.
type Repository interface {
	// Create inserts a new user and returns it with the assigned ID.
	// Returns shared.ErrUsernameTaken on a username collision.
	Create(ctx context.Context, u *User) (*User, error)

	// FindByID returns the user with the given ID or shared.ErrUserNotFound.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByUsername returns the user with the given username or
	// shared.ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// UsernameExists reports whether a username is already registered.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// UpdateField updates a single profile column. The field has already
	// been validated against the closed ProfileField set.
	UpdateField(ctx context.Context, id int64, field ProfileField, value string) error

	// UpdatePassword replaces the stored password hash for a username.
	UpdatePassword(ctx context.Context, username string, hash []byte) error

	// UpdateSGPA stores the latest semester SGPA.
	UpdateSGPA(ctx context.Context, id int64, sgpa float64) error

	// UpdateCGPA stores the recomputed cumulative GPA.
	UpdateCGPA(ctx context.Context, id int64, cgpa float64) error
}
