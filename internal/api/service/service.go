// Package service orchestrates job lifecycle operations on top of the policy
// engine, the transition validator, and the transactional store.
package service

import (
	"context"
	"time"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/model"
)

// Store is the slice of the transactional store the services depend on. The
// concrete sqlx implementation lives in internal/api/storage; tests substitute
// an in-memory fake.
type Store interface {
	CreateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	// GetAssignment returns (nil, nil) while the job is unclaimed.
	GetAssignment(ctx context.Context, jobID string) (*model.Assignment, error)
	// CreateAssignment inserts the assignment and advances the job OPEN ->
	// ACCEPTED in one transaction. It returns domain.ErrAlreadyAssigned when
	// the uniqueness constraint rejects a second assignment, and
	// domain.ErrJobNotAvailable when the job is no longer OPEN.
	CreateAssignment(ctx context.Context, jobID, helperID string) (*model.Assignment, error)
	// TransitionStatus performs the conditional update "set status to `to`
	// only if it still equals `from`", stamping submitted_at/completed_at as
	// the target status requires. It returns domain.ErrStaleStatus when the
	// row no longer matches.
	TransitionStatus(ctx context.Context, jobID string, from, to domain.JobStatus, now time.Time) (*model.Job, error)

	CountUploads(ctx context.Context, jobID string) (int, error)
	InsertUpload(ctx context.Context, upload *model.Upload) error
	GetUpload(ctx context.Context, uploadID string) (*model.Upload, error)
	GetUploadByKey(ctx context.Context, blobKey string) (*model.Upload, error)
	DeleteUpload(ctx context.Context, uploadID string) error
}

// EventPublisher emits lifecycle events to the message bus. Publishing is
// best-effort; failures are logged by the publisher and never fail the request.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, jobID, actorID string)
}
