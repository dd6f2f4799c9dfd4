package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/events"
	"github.com/snapcrew/capture-market/internal/api/model"
	"github.com/snapcrew/capture-market/internal/api/policy"
)

// Lifecycle orchestrates create/submit/approve/cancel, running the policy
// engine and the transition validator before persisting anything.
type Lifecycle struct {
	store  Store
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewLifecycle creates the job lifecycle service.
func NewLifecycle(store Store, events EventPublisher, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Create persists a new OPEN job owned by requesterID. Field validation has
// already happened at the boundary; job carries the content/location/price
// metadata, which the core treats as opaque.
func (l *Lifecycle) Create(ctx context.Context, requesterID string, job *model.Job) (*model.Job, error) {
	now := l.now()
	job.JobID = uuid.New().String()
	job.RequesterID = requesterID
	job.Status = domain.JobStatusOpen
	job.CreatedAt = now
	job.UpdatedAt = now

	if err := l.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	l.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.String("requester_id", requesterID),
	)
	l.events.Publish(ctx, events.TypeJobCreated, job.JobID, requesterID)

	return job, nil
}

// Submit moves an in-progress job to IN_REVIEW on behalf of the assigned
// helper and stamps submittedAt. The commit re-verifies status via a
// conditional update, so a concurrent cancellation cannot be overwritten.
func (l *Lifecycle) Submit(ctx context.Context, jobID string, id domain.Identity) (*model.Job, error) {
	snap, err := l.snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := check(id, snap, policy.ActionSubmit); err != nil {
		return nil, err
	}
	if ok, reason := domain.ValidateTransition(snap.Job.Status, domain.JobStatusInReview); !ok {
		return nil, &domain.StateConflictError{Reason: reason}
	}

	job, err := l.store.TransitionStatus(ctx, jobID, snap.Job.Status, domain.JobStatusInReview, l.now())
	if err != nil {
		return nil, err
	}

	l.logger.Info("Job submitted for review",
		slog.String("job_id", jobID),
		slog.String("helper_id", id.SubjectID),
	)
	l.events.Publish(ctx, events.TypeJobSubmitted, jobID, id.SubjectID)

	return job, nil
}

// Approve moves an in-review job to COMPLETED on behalf of the owner and
// stamps completedAt.
func (l *Lifecycle) Approve(ctx context.Context, jobID string, id domain.Identity) (*model.Job, error) {
	snap, err := l.snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := check(id, snap, policy.ActionApprove); err != nil {
		return nil, err
	}
	if ok, reason := domain.ValidateTransition(snap.Job.Status, domain.JobStatusCompleted); !ok {
		return nil, &domain.StateConflictError{Reason: reason}
	}

	job, err := l.store.TransitionStatus(ctx, jobID, snap.Job.Status, domain.JobStatusCompleted, l.now())
	if err != nil {
		return nil, err
	}

	l.logger.Info("Job approved",
		slog.String("job_id", jobID),
		slog.String("requester_id", id.SubjectID),
	)
	l.events.Publish(ctx, events.TypeJobApproved, jobID, id.SubjectID)

	return job, nil
}

// Cancel moves a not-yet-reviewed job to CANCELLED on behalf of the owner.
func (l *Lifecycle) Cancel(ctx context.Context, jobID string, id domain.Identity) (*model.Job, error) {
	snap, err := l.snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := check(id, snap, policy.ActionCancel); err != nil {
		return nil, err
	}
	if ok, reason := domain.ValidateTransition(snap.Job.Status, domain.JobStatusCancelled); !ok {
		return nil, &domain.StateConflictError{Reason: reason}
	}

	job, err := l.store.TransitionStatus(ctx, jobID, snap.Job.Status, domain.JobStatusCancelled, l.now())
	if err != nil {
		return nil, err
	}

	l.logger.Info("Job cancelled",
		slog.String("job_id", jobID),
		slog.String("requester_id", id.SubjectID),
	)
	l.events.Publish(ctx, events.TypeJobCancelled, jobID, id.SubjectID)

	return job, nil
}

// Read loads a job for a caller, enforcing the read policy.
func (l *Lifecycle) Read(ctx context.Context, jobID string, id domain.Identity) (*model.Job, error) {
	snap, err := l.snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := check(id, snap, policy.ActionReadJob); err != nil {
		return nil, err
	}
	return snap.Job, nil
}

// snapshot loads the state a policy decision is made against.
func (l *Lifecycle) snapshot(ctx context.Context, jobID string) (policy.Snapshot, error) {
	job, err := l.store.GetJob(ctx, jobID)
	if err != nil {
		return policy.Snapshot{}, err
	}
	assignment, err := l.store.GetAssignment(ctx, jobID)
	if err != nil {
		return policy.Snapshot{}, err
	}
	count, err := l.store.CountUploads(ctx, jobID)
	if err != nil {
		return policy.Snapshot{}, err
	}
	return policy.Snapshot{Job: job, Assignment: assignment, UploadCount: count}, nil
}

// check maps a policy decision to the error taxonomy: plain denials become
// authorization errors, state-blocked denials become state conflicts.
func check(id domain.Identity, snap policy.Snapshot, action policy.Action) error {
	d := policy.Decide(id, snap, action)
	if d.Allowed {
		return nil
	}
	if d.Conflict {
		return &domain.StateConflictError{Reason: d.Reason}
	}
	return &domain.AuthorizationError{Action: string(action)}
}
