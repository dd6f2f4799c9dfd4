package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/snapcrew/capture-market/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// InsertJobEvent records a lifecycle event in the audit trail. Re-deliveries
// of the same event are absorbed by the event_id primary key, so inserting
// twice is safe. Returns false when the event was already recorded.
func (s *Storage) InsertJobEvent(ctx context.Context, event *domain.JobEvent) (bool, error) {
	query := `
		INSERT INTO job_events (event_id, event_type, job_id, actor_id, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query,
		event.EventID,
		event.EventType,
		event.JobID,
		event.ActorID,
		event.OccurredAt,
		event.RecordedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert job event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return rows > 0, nil
}

// DeleteExpiredTokens removes unconsumed claim tokens whose expiry passed
// more than retention ago. Consumed tokens are kept as part of the claim
// history; recently expired ones stay so check-token can still report
// TOKEN_EXPIRED instead of TOKEN_NOT_FOUND.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, retention time.Duration) (int64, error) {
	query := `
		DELETE FROM claim_tokens
		WHERE consumed = FALSE
		  AND expires_at < $1`

	cutoff := time.Now().UTC().Add(-retention)

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return rows, nil
}
