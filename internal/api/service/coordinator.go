package service

import (
	"context"
	"log/slog"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/events"
	"github.com/snapcrew/capture-market/internal/api/model"
)

// TokenConsumer consumes a claim token, returning the bound job id. ok=false
// means the token failed any of the claim preconditions.
type TokenConsumer interface {
	Consume(ctx context.Context, tokenOrCode, claimantID string) (jobID string, ok bool, err error)
}

// Coordinator performs the atomic claim: consuming a token and creating the
// job's sole assignment. This is the concurrency-critical path; any number of
// helpers may race here for the same job.
type Coordinator struct {
	tokens TokenConsumer
	store  Store
	events EventPublisher
	logger *slog.Logger
}

// NewCoordinator creates an assignment coordinator.
func NewCoordinator(tokens TokenConsumer, store Store, events EventPublisher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		tokens: tokens,
		store:  store,
		events: events,
		logger: logger,
	}
}

// Claim consumes tokenOrCode on behalf of helperID and, if it is valid and
// bound to jobID, creates the assignment and advances the job to ACCEPTED.
//
// Token consumption and assignment creation are two separate atomic
// operations; the unique constraint on assignments(job_id) is the final
// arbiter of races. A claimant can therefore lose the race with its token
// already consumed — the token then reads "consumed by X" while X holds no
// assignment, an accepted inconsistency.
func (c *Coordinator) Claim(ctx context.Context, jobID, tokenOrCode, helperID string) (*model.Assignment, error) {
	boundJobID, ok, err := c.tokens.Consume(ctx, tokenOrCode, helperID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	// A token issued for job A must not claim job B.
	if boundJobID != jobID {
		c.logger.Warn("Claim token presented against the wrong job",
			slog.String("job_id", jobID),
			slog.String("bound_job_id", boundJobID),
			slog.String("helper_id", helperID),
		)
		return nil, domain.ErrTokenJobMismatch
	}

	job, err := c.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusOpen {
		return nil, domain.ErrJobNotAvailable
	}

	assignment, err := c.store.CreateAssignment(ctx, jobID, helperID)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Job claimed",
		slog.String("job_id", jobID),
		slog.String("helper_id", helperID),
		slog.String("assignment_id", assignment.AssignmentID),
	)
	c.events.Publish(ctx, events.TypeJobClaimed, jobID, helperID)

	return assignment, nil
}
