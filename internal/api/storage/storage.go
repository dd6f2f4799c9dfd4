package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/model"
	"github.com/snapcrew/capture-market/shared/postgresql"
)

const jobColumns = `
	job_id, requester_id, title, description, location, event_time,
	content_type, price_tier, notes, status, submitted_at, completed_at,
	created_at, updated_at`

// Storage is the sqlx-backed store for jobs, assignments, claim tokens, and
// uploads. It is the only shared mutable resource; every multi-step mutation
// runs as one atomic unit against it.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

func (s *Storage) CreateJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, requester_id, title, description, location, event_time,
			content_type, price_tier, notes, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.RequesterID,
		job.Title,
		job.Description,
		job.Location,
		job.EventTime,
		job.ContentType,
		job.PriceTier,
		job.Notes,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Storage) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// TransitionStatus performs the atomic conditional update "advance to `to`
// only if status still equals `from`". submitted_at/completed_at are stamped
// when the target status requires them. domain.ErrStaleStatus means the job
// moved on between the caller's read and this commit.
func (s *Storage) TransitionStatus(ctx context.Context, jobID string, from, to domain.JobStatus, now time.Time) (*model.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
			submitted_at = CASE WHEN $1 = 'IN_REVIEW' THEN $2 ELSE submitted_at END,
			completed_at = CASE WHEN $1 = 'COMPLETED' THEN $2 ELSE completed_at END,
			updated_at = $2
		WHERE job_id = $3 AND status = $4
		RETURNING ` + jobColumns

	var job model.Job
	err := s.db.GetContext(ctx, &job, query, to, now, jobID, from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Conditional status update matched no row",
				slog.String("job_id", jobID),
				slog.String("expected", string(from)),
				slog.String("requested", string(to)),
			)
			return nil, domain.ErrStaleStatus
		}
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	return &job, nil
}

// JobFilter narrows a job listing. RequesterID and HelperID scope the listing
// to the caller's own jobs; exactly one of them is set.
type JobFilter struct {
	RequesterID string
	HelperID    string
	Status      string
	PageSize    int
	Cursor      *JobCursor
}

// JobCursor is a (created_at, job_id) keyset pagination position.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.RequesterID != "" {
		query += fmt.Sprintf(" AND requester_id = $%d", argIdx)
		args = append(args, filter.RequesterID)
		argIdx++
	}

	if filter.HelperID != "" {
		query += fmt.Sprintf(" AND job_id IN (SELECT job_id FROM assignments WHERE helper_id = $%d)", argIdx)
		args = append(args, filter.HelperID)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, job_id DESC for consistent pagination
	query += " ORDER BY created_at DESC, job_id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []model.Job
	err := s.db.SelectContext(ctx, &jobs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally narrowed to a constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
