// Package postgres implements the PostgreSQL persistence layer for the
// Campus Connect bot.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_marks",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_engagement",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users table
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    chat_id BIGINT NOT NULL,
    full_name VARCHAR(120) NOT NULL,
    username VARCHAR(64) NOT NULL UNIQUE,
    password_hash BYTEA NOT NULL,
    semester VARCHAR(20) NOT NULL,
    college VARCHAR(160) NOT NULL,
    mobile VARCHAR(10) NOT NULL,
    branch VARCHAR(80) NOT NULL,
    year_scheme VARCHAR(20) NOT NULL,
    sgpa DOUBLE PRECISION,
    cgpa DOUBLE PRECISION,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_mobile CHECK (mobile ~ '^[0-9]{10}$')
);

CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_users_chat_id ON users(chat_id);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MARKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create mark records and the transcript upload ledger
-- Version: 002

-- One row per graded subject per user
CREATE TABLE IF NOT EXISTS marks (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    subject_code VARCHAR(20) NOT NULL,
    subject_name VARCHAR(160) NOT NULL,
    internal_marks INTEGER NOT NULL DEFAULT 0,
    external_marks INTEGER NOT NULL DEFAULT 0,
    total_marks INTEGER NOT NULL DEFAULT 0,
    grade_points INTEGER NOT NULL DEFAULT 0,
    credits INTEGER NOT NULL DEFAULT 0,
    semester_sgpa DOUBLE PRECISION NOT NULL DEFAULT 0,
    updated_on TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_marks CHECK (internal_marks >= 0 AND external_marks >= 0),
    CONSTRAINT valid_grade_points CHECK (grade_points >= 0 AND grade_points <= 10)
);

CREATE INDEX IF NOT EXISTS idx_marks_user ON marks(user_id);
CREATE INDEX IF NOT EXISTS idx_marks_user_updated ON marks(user_id, updated_on DESC);

-- Idempotency ledger: one row per ingested marks card. The (user_id, file_ref)
-- pair guards against re-processing; the stored sgpa feeds CGPA.
CREATE TABLE IF NOT EXISTS marks_cards (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    file_ref VARCHAR(255) NOT NULL,
    sgpa DOUBLE PRECISION NOT NULL DEFAULT 0,
    uploaded_on TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(user_id, file_ref)
);

CREATE INDEX IF NOT EXISTS idx_marks_cards_user ON marks_cards(user_id, uploaded_on);
`

const migration002Down = `
DROP TABLE IF EXISTS marks_cards;
DROP TABLE IF EXISTS marks;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE ENGAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create reminders, job postings, feedback, and shared documents
-- Version: 003

CREATE TABLE IF NOT EXISTS reminders (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    remind_at VARCHAR(5) NOT NULL,
    message TEXT NOT NULL,
    job_ref UUID NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_remind_at CHECK (remind_at ~ '^[0-9]{1,2}:[0-9]{2}$')
);

CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id);

CREATE TABLE IF NOT EXISTS job_opportunities (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(160) NOT NULL,
    company VARCHAR(160) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT '',
    posted_on TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS feedback (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
    feedback_text TEXT NOT NULL,
    submitted_on TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS shared_documents (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    file_ref VARCHAR(255) NOT NULL,
    file_name VARCHAR(255) NOT NULL,
    mime_type VARCHAR(100) NOT NULL DEFAULT '',
    shared_on TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_shared_documents_user ON shared_documents(user_id);

-- Seed postings so /jobs has content on a fresh install
INSERT INTO job_opportunities (title, company, description, link)
SELECT * FROM (VALUES
    ('Graduate Software Engineer', 'Infosys', 'Campus hiring for 2026 graduates across all branches.', 'https://www.infosys.com/careers'),
    ('Associate Developer Intern', 'TCS', 'Six-month internship with pre-placement offer potential.', 'https://www.tcs.com/careers'),
    ('Junior Data Analyst', 'Wipro', 'Entry-level analytics role, open to final-semester students.', 'https://careers.wipro.com')
) AS seed(title, company, description, link)
WHERE NOT EXISTS (SELECT 1 FROM job_opportunities);
`

const migration003Down = `
DROP TABLE IF EXISTS shared_documents;
DROP TABLE IF EXISTS feedback;
DROP TABLE IF EXISTS job_opportunities;
DROP TABLE IF EXISTS reminders;
`
