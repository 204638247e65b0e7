package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"survey-gateway/internal/platform/storage"
	"survey-gateway/internal/submission/models"
	"survey-gateway/internal/submission/store/migrations"
	"survey-gateway/pkg/platform/sentinel"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// SQL persists submissions in SQLite or PostgreSQL. Uniqueness of subject_id
// is enforced by the table's primary key.
type SQL struct {
	db *storage.DB
}

// NewSQL applies the submission migrations and returns a store on db.
func NewSQL(ctx context.Context, db *storage.DB) (*SQL, error) {
	if err := storage.ApplyMigrations(ctx, db, migrations.FS, "."); err != nil {
		return nil, fmt.Errorf("run submission migrations: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) FindBySubject(ctx context.Context, subjectID string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx, s.db.Dialect.Rebind(`
		SELECT subject_id, email, answers, submitted_at
		FROM submissions
		WHERE subject_id = ?`), subjectID)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return sub, nil
}

// Create inserts sub. A primary-key violation is reported as
// sentinel.ErrConflict; that is the authoritative duplicate signal.
func (s *SQL) Create(ctx context.Context, sub *models.Submission) error {
	_, err := s.db.ExecContext(ctx, s.db.Dialect.Rebind(`
		INSERT INTO submissions (subject_id, email, answers, submitted_at)
		VALUES (?, ?, ?, ?)`),
		sub.SubjectID,
		sub.Email,
		string(sub.Answers),
		toMillis(sub.SubmittedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create submission %s: %w", sub.SubjectID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// ListAll reads the whole table ordered by submission time, then subject.
func (s *SQL) ListAll(ctx context.Context) ([]*models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject_id, email, answers, submitted_at
		FROM submissions
		ORDER BY submitted_at, subject_id`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		sub         models.Submission
		answers     string
		submittedAt int64
	)
	if err := row.Scan(&sub.SubjectID, &sub.Email, &answers, &submittedAt); err != nil {
		return nil, err
	}
	sub.Answers = []byte(answers)
	sub.SubmittedAt = fromMillis(submittedAt)
	return &sub, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
