package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const jobColumns = "id, status, progress, message, error_code, file_id, upload_status, params_json, result_file, created_at, updated_at"

// NewJob inserts a queued job carrying the raw request parameters. The
// parameters are stored verbatim; validation happens when the job is
// picked up so that bad requests fail visibly in the job record.
func (s *Store) NewJob(ctx context.Context, paramsJSON string) (*Job, error) {
	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            id, status, progress, message, params_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		StatusQueued,
		0,
		"queued",
		paramsJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. A missing job returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job. Progress is monotonic: an
// update carrying a lower value keeps the stored one.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET
            status = ?,
            progress = MAX(progress, ?),
            message = ?,
            error_code = ?,
            file_id = ?,
            upload_status = ?,
            result_file = ?,
            updated_at = ?
        WHERE id = ?`,
		job.Status,
		job.Progress,
		nullableString(job.Message),
		nullableString(job.ErrorCode),
		nullableString(job.FileID),
		nullableString(job.UploadStatus),
		nullableString(job.ResultFile),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", job.ID)
	}
	return nil
}

// SetProgress records a progress checkpoint without touching the rest of
// the job. Lower values are ignored.
func (s *Store) SetProgress(ctx context.Context, id string, progress int, message string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET progress = MAX(progress, ?), message = ?, updated_at = ? WHERE id = ?`,
		progress,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// Claim transitions the oldest queued job to processing and returns it.
// The transition is atomic so concurrent claimants never share a job. No
// queued jobs returns (nil, nil).
func (s *Store) Claim(ctx context.Context) (*Job, error) {
	for {
		row := s.db.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY created_at LIMIT 1`, StatusQueued)
		var id string
		if err := row.Scan(&id); errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		} else if err != nil {
			return nil, fmt.Errorf("find queued job: %w", err)
		}

		res, err := s.execWithRetry(
			ctx,
			`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			StatusProcessing,
			time.Now().UTC().Format(time.RFC3339Nano),
			id,
			StatusQueued,
		)
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 1 {
			return s.GetByID(ctx, id)
		}
		// Lost the race; try the next queued job.
	}
}

// List returns jobs in insertion order, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// ResetStuckProcessing re-queues jobs left in processing by a previous
// daemon run. Called once at startup before the manager starts claiming.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, message = ?, updated_at = ? WHERE status = ?`,
		StatusQueued,
		"requeued after restart",
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}
