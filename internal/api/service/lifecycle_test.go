package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/events"
	"github.com/snapcrew/capture-market/internal/api/model"
)

func newTestLifecycle(t *testing.T) (*Lifecycle, *Uploads, *fakeStore, *fakePublisher) {
	t.Helper()
	store := newFakeStore()
	publisher := &fakePublisher{}
	lifecycle := NewLifecycle(store, publisher, slog.Default())
	uploads := NewUploads(store, publisher, slog.Default())
	return lifecycle, uploads, store, publisher
}

// claimFor puts a job into ACCEPTED with helperID assigned.
func claimFor(t *testing.T, store *fakeStore, jobID, helperID string) {
	t.Helper()
	_, err := store.CreateAssignment(context.Background(), jobID, helperID)
	require.NoError(t, err)
}

func TestCreateJob(t *testing.T) {
	lifecycle, _, store, publisher := newTestLifecycle(t)
	ctx := context.Background()

	job, err := lifecycle.Create(ctx, "req-1", &model.Job{
		Title:       "Wedding reception",
		Location:    "Riverside Hotel",
		EventTime:   time.Now().Add(72 * time.Hour),
		ContentType: "both",
		PriceTier:   "premium",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, "req-1", job.RequesterID)
	assert.Equal(t, domain.JobStatusOpen, job.Status)
	assert.False(t, job.CreatedAt.IsZero())

	stored, err := store.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, job.JobID, stored.JobID)

	assert.Contains(t, publisher.published(), events.TypeJobCreated)
}

func TestUploadThenSubmit(t *testing.T) {
	lifecycle, uploads, store, publisher := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	claimFor(t, store, "job-1", "helper-1")

	helper := helperIdentity("helper-1")

	// First upload auto-advances ACCEPTED -> IN_PROGRESS.
	upload, err := uploads.Create(ctx, "job-1", helper, "ceremony.jpg", "image/jpeg", 1024)
	require.NoError(t, err)
	assert.Equal(t, "helper-1", upload.UploaderID)
	assert.Contains(t, upload.BlobKey, "job-1")

	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInProgress, job.Status)

	// Second upload leaves the status alone.
	_, err = uploads.Create(ctx, "job-1", helper, "reception.jpg", "image/jpeg", 2048)
	require.NoError(t, err)
	job, err = store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInProgress, job.Status)

	job, err = lifecycle.Submit(ctx, "job-1", helper)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInReview, job.Status)
	require.NotNil(t, job.SubmittedAt)

	assert.Contains(t, publisher.published(), events.TypeJobSubmitted)
}

func TestSubmitWithoutUploads(t *testing.T) {
	lifecycle, _, store, _ := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	claimFor(t, store, "job-1", "helper-1")

	_, err := lifecycle.Submit(ctx, "job-1", helperIdentity("helper-1"))
	var conflict *domain.StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "upload")
}

func TestSubmitByStranger(t *testing.T) {
	lifecycle, _, store, _ := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	claimFor(t, store, "job-1", "helper-1")

	_, err := lifecycle.Submit(ctx, "job-1", helperIdentity("helper-2"))
	var authErr *domain.AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestApproveCompletesJob(t *testing.T) {
	lifecycle, uploads, store, publisher := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	claimFor(t, store, "job-1", "helper-1")

	helper := helperIdentity("helper-1")
	requester := requesterIdentity("req-1")

	_, err := uploads.Create(ctx, "job-1", helper, "final.mp4", "video/mp4", 4096)
	require.NoError(t, err)
	_, err = lifecycle.Submit(ctx, "job-1", helper)
	require.NoError(t, err)

	job, err := lifecycle.Approve(ctx, "job-1", requester)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
	assert.Contains(t, publisher.published(), events.TypeJobApproved)

	// Terminal: no further submit, approve, or upload.
	_, err = lifecycle.Submit(ctx, "job-1", helper)
	var conflict *domain.StateConflictError
	assert.ErrorAs(t, err, &conflict)

	_, err = lifecycle.Approve(ctx, "job-1", requester)
	assert.ErrorAs(t, err, &conflict)

	_, err = uploads.Create(ctx, "job-1", helper, "late.jpg", "image/jpeg", 100)
	assert.ErrorAs(t, err, &conflict)
}

func TestApproveByHelperDenied(t *testing.T) {
	lifecycle, uploads, store, _ := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	claimFor(t, store, "job-1", "helper-1")

	helper := helperIdentity("helper-1")
	_, err := uploads.Create(ctx, "job-1", helper, "a.jpg", "image/jpeg", 1)
	require.NoError(t, err)
	_, err = lifecycle.Submit(ctx, "job-1", helper)
	require.NoError(t, err)

	_, err = lifecycle.Approve(ctx, "job-1", helper)
	var authErr *domain.AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestCancel(t *testing.T) {
	lifecycle, _, store, publisher := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))

	job, err := lifecycle.Cancel(ctx, "job-1", requesterIdentity("req-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCancelled, job.Status)
	assert.Contains(t, publisher.published(), events.TypeJobCancelled)

	// Cancelled is terminal.
	_, err = lifecycle.Cancel(ctx, "job-1", requesterIdentity("req-1"))
	var conflict *domain.StateConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestCancelInReviewBlocked(t *testing.T) {
	lifecycle, uploads, store, _ := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	claimFor(t, store, "job-1", "helper-1")

	helper := helperIdentity("helper-1")
	_, err := uploads.Create(ctx, "job-1", helper, "a.jpg", "image/jpeg", 1)
	require.NoError(t, err)
	_, err = lifecycle.Submit(ctx, "job-1", helper)
	require.NoError(t, err)

	_, err = lifecycle.Cancel(ctx, "job-1", requesterIdentity("req-1"))
	var conflict *domain.StateConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestSubmitAfterCancelConflicts(t *testing.T) {
	lifecycle, uploads, store, _ := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	claimFor(t, store, "job-1", "helper-1")

	helper := helperIdentity("helper-1")
	_, err := uploads.Create(ctx, "job-1", helper, "a.jpg", "image/jpeg", 1)
	require.NoError(t, err)

	_, err = lifecycle.Cancel(ctx, "job-1", requesterIdentity("req-1"))
	require.NoError(t, err)

	_, err = lifecycle.Submit(ctx, "job-1", helper)
	var conflict *domain.StateConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestTransitionStatusStale(t *testing.T) {
	_, _, store, _ := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))

	// The conditional update rejects a write whose expected status no
	// longer matches the row.
	_, err := store.TransitionStatus(ctx, "job-1", domain.JobStatusInProgress, domain.JobStatusInReview, time.Now())
	assert.ErrorIs(t, err, domain.ErrStaleStatus)
}

func TestRead(t *testing.T) {
	lifecycle, _, store, _ := newTestLifecycle(t)
	ctx := context.Background()

	require.NoError(t, store.CreateJob(ctx, openJob("job-1", "req-1")))
	claimFor(t, store, "job-1", "helper-1")

	_, err := lifecycle.Read(ctx, "job-1", requesterIdentity("req-1"))
	assert.NoError(t, err)

	_, err = lifecycle.Read(ctx, "job-1", helperIdentity("helper-1"))
	assert.NoError(t, err)

	_, err = lifecycle.Read(ctx, "job-1", helperIdentity("stranger"))
	var authErr *domain.AuthorizationError
	assert.ErrorAs(t, err, &authErr)

	_, err = lifecycle.Read(ctx, "missing", requesterIdentity("req-1"))
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
