package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/model"
)

// Constraint names from migrations/0001_init.sql.
const (
	constraintAssignmentJob = "assignments_job_id_key"
	constraintShortCode     = "claim_tokens_short_code_key"
)

func (s *Storage) InsertClaimToken(ctx context.Context, t *model.ClaimToken) error {
	query := `
		INSERT INTO claim_tokens (
			token_id, job_id, token_hash, short_code, expires_at, consumed, created_at
		) VALUES (
			$1, $2, $3, $4, $5, false, $6
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		t.TokenID,
		t.JobID,
		t.TokenHash,
		t.ShortCode,
		t.ExpiresAt,
		t.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, constraintShortCode) {
			return domain.ErrShortCodeCollision
		}
		return fmt.Errorf("failed to insert claim token: %w", err)
	}

	return nil
}

func (s *Storage) FindClaimToken(ctx context.Context, hash, code string) (*model.ClaimToken, error) {
	var t model.ClaimToken
	query := `
		SELECT token_id, job_id, token_hash, short_code, expires_at,
			consumed, consumed_by, consumed_at, created_at
		FROM claim_tokens
		WHERE token_hash = $1 OR short_code = $2
	`

	err := s.db.GetContext(ctx, &t, query, hash, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find claim token: %w", err)
	}

	return &t, nil
}

// ConsumeClaimToken marks the token consumed iff every claim precondition
// still holds, all inside one conditional UPDATE: the row-level lock serializes
// concurrent consumers, so at most one caller ever sees ok=true per token.
func (s *Storage) ConsumeClaimToken(ctx context.Context, hash, code, claimantID string) (string, bool, error) {
	query := `
		UPDATE claim_tokens t
		SET consumed = true,
			consumed_by = $1,
			consumed_at = NOW()
		WHERE (t.token_hash = $2 OR t.short_code = $3)
		  AND NOT t.consumed
		  AND t.expires_at > NOW()
		  AND EXISTS (
			SELECT 1 FROM jobs j
			WHERE j.job_id = t.job_id AND j.status = 'OPEN'
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM assignments a WHERE a.job_id = t.job_id
		  )
		RETURNING t.job_id
	`

	var jobID string
	err := s.db.QueryRowContext(ctx, query, claimantID, hash, code).Scan(&jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to consume claim token: %w", err)
	}

	return jobID, true, nil
}

func (s *Storage) JobClaimState(ctx context.Context, jobID string) (domain.JobStatus, bool, error) {
	query := `
		SELECT j.status,
			EXISTS (SELECT 1 FROM assignments a WHERE a.job_id = j.job_id) AS assigned
		FROM jobs j
		WHERE j.job_id = $1
	`

	var row struct {
		Status   domain.JobStatus `db:"status"`
		Assigned bool             `db:"assigned"`
	}
	err := s.db.GetContext(ctx, &row, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, domain.ErrJobNotFound
		}
		return "", false, fmt.Errorf("failed to read job claim state: %w", err)
	}

	return row.Status, row.Assigned, nil
}

// GetAssignment returns the job's assignment, or (nil, nil) while unclaimed.
func (s *Storage) GetAssignment(ctx context.Context, jobID string) (*model.Assignment, error) {
	var a model.Assignment
	query := `
		SELECT assignment_id, job_id, helper_id, created_at
		FROM assignments
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &a, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &a, nil
}

// CreateAssignment inserts the assignment and advances the job OPEN ->
// ACCEPTED in one transaction. The unique constraint on assignments(job_id)
// is the invariant of record: whatever the token layer did, a second
// assignment can never commit.
func (s *Storage) CreateAssignment(ctx context.Context, jobID, helperID string) (*model.Assignment, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	assignment := &model.Assignment{
		AssignmentID: uuid.New().String(),
		JobID:        jobID,
		HelperID:     helperID,
		CreatedAt:    time.Now(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assignments (assignment_id, job_id, helper_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, assignment.AssignmentID, assignment.JobID, assignment.HelperID, assignment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintAssignmentJob) {
			s.logger.Warn("Assignment lost the claim race",
				slog.String("job_id", jobID),
				slog.String("helper_id", helperID),
			)
			return nil, domain.ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, updated_at = NOW()
		WHERE job_id = $2 AND status = $3
	`, domain.JobStatusAccepted, jobID, domain.JobStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to advance job status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return nil, domain.ErrJobNotAvailable
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit assignment: %w", err)
	}

	return assignment, nil
}
