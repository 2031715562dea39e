// package repositories provides the SQLite persistence layer for run history and the tag cache.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/plsplit/internal/models"
	"github.com/desertthunder/plsplit/internal/shared"
)

// RunRepository persists [models.Run] rows in the runs table.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `
	id, kind, playlist_id, genre, output_path, processed, added, skipped,
	failed, status, error_message, started_at, finished_at`

// Create inserts a new run with a generated ID, status running and a start time of now when unset.
func (r *RunRepository) Create(run *models.Run) error {
	run.RunID = shared.GenerateID()
	run.Status = models.RunRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		run.RunID,
		run.Kind,
		run.PlaylistID,
		run.Genre,
		run.OutputPath,
		run.Processed,
		run.Added,
		run.Skipped,
		run.Failed,
		run.Status,
		nullable(run.ErrorMessage),
		run.StartedAt,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Finish stores the final counters of run and marks it succeeded, or failed when runErr is set.
func (r *RunRepository) Finish(run *models.Run, runErr error) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = models.RunSucceeded
	if runErr != nil {
		run.Status = models.RunFailed
		run.ErrorMessage = runErr.Error()
	}

	query := `
		UPDATE runs
		SET playlist_id = ?, genre = ?, output_path = ?, processed = ?, added = ?,
			skipped = ?, failed = ?, status = ?, error_message = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.PlaylistID,
		run.Genre,
		run.OutputPath,
		run.Processed,
		run.Added,
		run.Skipped,
		run.Failed,
		run.Status,
		nullable(run.ErrorMessage),
		now,
		run.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", shared.ErrNotFound, run.RunID)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}
	return run, err
}

// List returns the most recent runs first. A limit of 0 or less returns every run.
func (r *RunRepository) List(limit int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run          models.Run
		errorMessage sql.NullString
		finishedAt   sql.NullTime
	)

	err := s.Scan(
		&run.RunID, &run.Kind, &run.PlaylistID, &run.Genre, &run.OutputPath,
		&run.Processed, &run.Added, &run.Skipped, &run.Failed, &run.Status,
		&errorMessage, &run.StartedAt, &finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ErrorMessage = errorMessage.String
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
