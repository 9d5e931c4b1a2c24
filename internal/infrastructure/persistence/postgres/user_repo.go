// Package postgres implements the PostgreSQL persistence layer for the
// Campus Connect bot.
package postgres

import (
	"context"
	"fmt"

	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/domain/user"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, chat_id, full_name, username, password_hash, semester,
	college, mobile, branch, year_scheme, sgpa, cgpa, created_at`

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	query := `
		INSERT INTO users (
			chat_id, full_name, username, password_hash, semester,
			college, mobile, branch, year_scheme
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	row := r.conn.QueryRow(ctx, query,
		u.ChatID,
		u.FullName,
		u.Username,
		u.PasswordHash,
		u.Semester,
		u.College,
		u.Mobile,
		u.Branch,
		u.YearScheme,
	)

	created := *u
	if err := row.Scan(&created.ID, &created.CreatedAt); err != nil {
		if IsUniqueViolation(err) {
			return nil, shared.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &created, nil
}

// FindByID returns the user with the given ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(r.conn.QueryRow(ctx, query, id))
}

// FindByUsername returns the user with the given username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	return r.scanUser(r.conn.QueryRow(ctx, query, username))
}

// UsernameExists reports whether a username is already registered.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// UpdateField updates a single profile column. The column name comes from the
// closed user.ProfileField set, never from raw input.
func (r *UserRepository) UpdateField(ctx context.Context, id int64, field user.ProfileField, value string) error {
	var column string
	switch field {
	case user.FieldFullName:
		column = "full_name"
	case user.FieldSemester:
		column = "semester"
	case user.FieldCollege:
		column = "college"
	case user.FieldMobile:
		column = "mobile"
	case user.FieldBranch:
		column = "branch"
	case user.FieldYearScheme:
		column = "year_scheme"
	default:
		return shared.NewDomainError("user", "UpdateField", shared.ErrInvalidInput, "unknown profile field")
	}

	query := fmt.Sprintf(`UPDATE users SET %s = $1 WHERE id = $2`, column)
	tag, err := r.conn.Exec(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash for a username.
func (r *UserRepository) UpdatePassword(ctx context.Context, username string, hash []byte) error {
	tag, err := r.conn.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE username = $2`, hash, username,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// UpdateSGPA stores the latest semester SGPA.
func (r *UserRepository) UpdateSGPA(ctx context.Context, id int64, sgpa float64) error {
	tag, err := r.conn.Exec(ctx, `UPDATE users SET sgpa = $1 WHERE id = $2`, sgpa, id)
	if err != nil {
		return fmt.Errorf("failed to update sgpa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// UpdateCGPA stores the recomputed cumulative GPA.
func (r *UserRepository) UpdateCGPA(ctx context.Context, id int64, cgpa float64) error {
	tag, err := r.conn.Exec(ctx, `UPDATE users SET cgpa = $1 WHERE id = $2`, cgpa, id)
	if err != nil {
		return fmt.Errorf("failed to update cgpa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// scanUser scans a single user row.
func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.ChatID,
		&u.FullName,
		&u.Username,
		&u.PasswordHash,
		&u.Semester,
		&u.College,
		&u.Mobile,
		&u.Branch,
		&u.YearScheme,
		&u.SGPA,
		&u.CGPA,
		&u.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &u, nil
}
