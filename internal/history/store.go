package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"fragmill/internal/jobs"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on schema changes; the database is disposable and
// users delete it to adopt a new schema.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

// Attempt is one recorded conversion outcome.
type Attempt struct {
	ID               int64
	AttemptID        string
	Filename         string
	OutputFile       string
	Status           string
	Message          string
	StartedAt        *time.Time
	FinishedAt       *time.Time
	Duration         time.Duration
	CompressionRatio *float64
	OutputSizeMB     *float64
	RecordedAt       time.Time
}

// Store persists conversion attempts in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record appends the terminal state of a job as one attempt row.
func (s *Store) Record(ctx context.Context, job *jobs.Job) error {
	if s == nil || job == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO conversion_attempts
  (attempt_id, filename, output_file, status, message, started_at, finished_at,
   duration_ms, compression_ratio, output_size_mb, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.AttemptID,
		job.Filename,
		job.OutputFile,
		string(job.Status),
		job.Message,
		encodeTime(job.StartTime),
		encodeTime(job.EndTime),
		job.Duration().Milliseconds(),
		job.CompressionRatio,
		job.OutputSizeMB,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, attempt_id, filename, output_file, status, message, started_at,
       finished_at, duration_ms, compression_ratio, output_size_mb, recorded_at
FROM conversion_attempts
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

// ForFile returns up to limit attempts for one source filename, newest first.
func (s *Store) ForFile(ctx context.Context, filename string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, attempt_id, filename, output_file, status, message, started_at,
       finished_at, duration_ms, compression_ratio, output_size_mb, recorded_at
FROM conversion_attempts
WHERE filename = ?
ORDER BY id DESC
LIMIT ?`, filename, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts for %q: %w", filename, err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

func scanAttempt(rows *sql.Rows) (Attempt, error) {
	var (
		attempt    Attempt
		started    sql.NullString
		finished   sql.NullString
		durationMS int64
		ratio      sql.NullFloat64
		sizeMB     sql.NullFloat64
		recorded   string
	)
	if err := rows.Scan(
		&attempt.ID,
		&attempt.AttemptID,
		&attempt.Filename,
		&attempt.OutputFile,
		&attempt.Status,
		&attempt.Message,
		&started,
		&finished,
		&durationMS,
		&ratio,
		&sizeMB,
		&recorded,
	); err != nil {
		return Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	attempt.StartedAt = decodeTime(started)
	attempt.FinishedAt = decodeTime(finished)
	attempt.Duration = time.Duration(durationMS) * time.Millisecond
	if ratio.Valid {
		attempt.CompressionRatio = &ratio.Float64
	}
	if sizeMB.Valid {
		attempt.OutputSizeMB = &sizeMB.Float64
	}
	if ts, err := time.Parse(time.RFC3339Nano, recorded); err == nil {
		attempt.RecordedAt = ts
	}
	return attempt, nil
}

func encodeTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil
	}
	return &ts
}
