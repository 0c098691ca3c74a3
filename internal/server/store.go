// Package server is the bundled development backend: a small gin HTTP
// server over a sqlite store that speaks the same wire contract as the
// production persistence service, with a deterministic canned responder
// in place of a real model.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrSubjectNotFound is returned when a delete targets an unknown subject.
var ErrSubjectNotFound = errors.New("subject not found")

// SubjectRecord is one topic with its full exchange history, shaped for
// the wire.
type SubjectRecord struct {
	Subject  string           `json:"subject"`
	Category string           `json:"chatCategory"`
	Visible  bool             `json:"visible"`
	Entries  []ExchangeRecord `json:"messages"`
}

// ExchangeRecord is one stored question/answer pair.
type ExchangeRecord struct {
	ID       string `json:"_id"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	File     string `json:"file,omitempty"`
}

// SubjectStore persists subjects and exchanges in sqlite.
type SubjectStore struct {
	db *sql.DB
}

// OpenStore opens (and if needed initializes) the sqlite database at
// path. Use ":memory:" for throwaway stores.
func OpenStore(path string) (*SubjectStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open subject database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to subject database: %w", err)
	}

	store := &SubjectStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SubjectStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SubjectStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS subjects (
			subject TEXT PRIMARY KEY,
			category TEXT NOT NULL DEFAULT 'Uncategorized',
			visible INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			id TEXT PRIMARY KEY,
			subject TEXT NOT NULL REFERENCES subjects(subject) ON DELETE CASCADE,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			file TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS exchanges_subject_idx ON exchanges(subject, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize subject schema: %w", err)
		}
	}
	return nil
}

// ListSubjects returns every subject with its exchanges in insertion
// order, shaped exactly as the wire contract expects.
func (s *SubjectStore) ListSubjects(ctx context.Context) ([]SubjectRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("subject store unavailable")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, category, visible FROM subjects ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	var records []SubjectRecord
	for rows.Next() {
		var (
			record  SubjectRecord
			visible int
		)
		if err := rows.Scan(&record.Subject, &record.Category, &visible); err != nil {
			return nil, fmt.Errorf("failed to scan subject row: %w", err)
		}
		record.Visible = visible == 1
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("subject query error: %w", err)
	}

	for i := range records {
		entries, err := s.listExchanges(ctx, records[i].Subject)
		if err != nil {
			return nil, err
		}
		records[i].Entries = entries
	}

	return records, nil
}

func (s *SubjectStore) listExchanges(ctx context.Context, subject string) ([]ExchangeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, file
		FROM exchanges
		WHERE subject = ?
		ORDER BY created_at, id
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var entries []ExchangeRecord
	for rows.Next() {
		var (
			entry ExchangeRecord
			file  sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Question, &entry.Answer, &file); err != nil {
			return nil, fmt.Errorf("failed to scan exchange row: %w", err)
		}
		entry.File = file.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exchange query error: %w", err)
	}
	return entries, nil
}

// AppendExchange stores a question/answer pair under subject, creating
// the subject row on first use. It returns the new exchange id.
func (s *SubjectStore) AppendExchange(ctx context.Context, subject, question, answer, file string) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("subject store unavailable")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin exchange transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO subjects (subject, category, visible, created_at)
		VALUES (?, 'Uncategorized', 1, ?)
		ON CONFLICT(subject) DO NOTHING
	`, subject, now); err != nil {
		return "", fmt.Errorf("failed to ensure subject: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO exchanges (id, subject, question, answer, file, created_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), ?)
	`, id, subject, question, answer, file, now); err != nil {
		return "", fmt.Errorf("failed to store exchange: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit exchange: %w", err)
	}
	return id, nil
}

// DeleteSubject removes a subject and all of its exchanges. All or
// nothing: a missing subject is ErrSubjectNotFound and nothing changes.
func (s *SubjectStore) DeleteSubject(ctx context.Context, subject string) error {
	if s == nil || s.db == nil {
		return errors.New("subject store unavailable")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM subjects WHERE subject = ?`, subject)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSubjectNotFound, subject)
	}
	return nil
}
