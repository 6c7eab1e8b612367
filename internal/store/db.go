package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/baxromumarov/job-board/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// Store is the optional run log. It keeps per-run and per-source counts,
// never the postings themselves.
type Store struct {
	db *sql.DB
}

func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return New(db), nil
}

// New wraps an already opened database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunMigrations applies the schema at schemaPath, or the built-in one when
// schemaPath is empty.
func (s *Store) RunMigrations(schemaPath string) error {
	content := schemaSQL
	if schemaPath != "" {
		b, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file: %w", err)
		}
		content = string(b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, content); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

func clampLimit(limit int, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

type Run struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Sources    int       `json:"sources"`
	Postings   int       `json:"postings"`
	Duplicates int       `json:"duplicates"`
	Failed     int       `json:"failed"`
}

// RecordRun writes the run summary and one row per source in a single
// transaction.
func (s *Store) RecordRun(ctx context.Context, res core.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run log: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var runID int64
	err = tx.QueryRowContext(ctx, `
INSERT INTO runs (started_at, finished_at, sources, postings, duplicates)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, res.StartedAt, res.FinishedAt, len(res.Sources), len(res.Postings), res.Duplicates).Scan(&runID)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, src := range res.Sources {
		_, err := tx.ExecContext(ctx, `
INSERT INTO run_sources (run_id, position, name, kind, postings, error_type, error, duration_ms)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
`, runID, i, src.Name, string(src.Kind), src.Postings, src.ErrorType, src.Error, src.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("insert run source %s: %w", src.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run log: %w", err)
	}
	return nil
}

// RecentRuns lists the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	limit = clampLimit(limit, 20, 200)

	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.started_at, r.finished_at, r.sources, r.postings, r.duplicates,
       COUNT(rs.error_type)
FROM runs r
LEFT JOIN run_sources rs ON rs.run_id = r.id
GROUP BY r.id
ORDER BY r.started_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Sources,
			&run.Postings,
			&run.Duplicates,
			&run.Failed,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// DeleteOldRuns prunes runs that started before the retention window.
func (s *Store) DeleteOldRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, `
DELETE FROM runs
WHERE started_at < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
