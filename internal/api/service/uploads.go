package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/events"
	"github.com/snapcrew/capture-market/internal/api/model"
	"github.com/snapcrew/capture-market/internal/api/policy"
)

// Uploads manages a job's upload records. The binary payloads themselves live
// in the external blob store; this service only tracks their coordinates and
// authorizes access to them.
type Uploads struct {
	store  Store
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewUploads creates the upload service.
func NewUploads(store Store, events EventPublisher, logger *slog.Logger) *Uploads {
	return &Uploads{
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Create records a new upload by the assigned helper. When this is the job's
// first activity after acceptance, the job auto-advances ACCEPTED ->
// IN_PROGRESS; losing that advance to a concurrent writer is harmless.
func (u *Uploads) Create(ctx context.Context, jobID string, id domain.Identity, fileName, contentType string, sizeBytes int64) (*model.Upload, error) {
	snap, err := u.snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := check(id, snap, policy.ActionCreateUpload); err != nil {
		return nil, err
	}

	upload := &model.Upload{
		UploadID:    uuid.New().String(),
		JobID:       jobID,
		UploaderID:  id.SubjectID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		CreatedAt:   u.now(),
	}
	upload.BlobKey = fmt.Sprintf("jobs/%s/%s/%s", jobID, upload.UploadID, fileName)

	if err := u.store.InsertUpload(ctx, upload); err != nil {
		return nil, err
	}

	if snap.Job.Status == domain.JobStatusAccepted {
		_, err := u.store.TransitionStatus(ctx, jobID, domain.JobStatusAccepted, domain.JobStatusInProgress, u.now())
		switch {
		case err == nil:
			u.events.Publish(ctx, events.TypeJobProgressed, jobID, id.SubjectID)
		case !errors.Is(err, domain.ErrStaleStatus):
			return nil, err
		}
	}

	u.logger.Info("Upload created",
		slog.String("job_id", jobID),
		slog.String("upload_id", upload.UploadID),
		slog.String("uploader_id", id.SubjectID),
	)
	u.events.Publish(ctx, events.TypeUploadCreated, jobID, id.SubjectID)

	return upload, nil
}

// Delete removes an upload record, applying the per-role delete policy.
func (u *Uploads) Delete(ctx context.Context, jobID, uploadID string, id domain.Identity) error {
	upload, err := u.store.GetUpload(ctx, uploadID)
	if err != nil {
		return err
	}
	if upload.JobID != jobID {
		return domain.ErrUploadNotFound
	}

	snap, err := u.snapshot(ctx, jobID)
	if err != nil {
		return err
	}
	snap.UploadOwnerID = upload.UploaderID
	if err := check(id, snap, policy.ActionDeleteUpload); err != nil {
		return err
	}

	if err := u.store.DeleteUpload(ctx, uploadID); err != nil {
		return err
	}

	u.logger.Info("Upload deleted",
		slog.String("job_id", jobID),
		slog.String("upload_id", uploadID),
		slog.String("deleted_by", id.SubjectID),
	)
	u.events.Publish(ctx, events.TypeUploadDeleted, jobID, id.SubjectID)

	return nil
}

// AuthorizeDownload resolves a blob key to its owning job, applies the
// download policy, and returns the upload record for URL signing.
func (u *Uploads) AuthorizeDownload(ctx context.Context, blobKey string, id domain.Identity) (*model.Upload, error) {
	upload, err := u.store.GetUploadByKey(ctx, blobKey)
	if err != nil {
		return nil, err
	}

	snap, err := u.snapshot(ctx, upload.JobID)
	if err != nil {
		return nil, err
	}
	if err := check(id, snap, policy.ActionDownload); err != nil {
		return nil, err
	}

	return upload, nil
}

func (u *Uploads) snapshot(ctx context.Context, jobID string) (policy.Snapshot, error) {
	job, err := u.store.GetJob(ctx, jobID)
	if err != nil {
		return policy.Snapshot{}, err
	}
	assignment, err := u.store.GetAssignment(ctx, jobID)
	if err != nil {
		return policy.Snapshot{}, err
	}
	count, err := u.store.CountUploads(ctx, jobID)
	if err != nil {
		return policy.Snapshot{}, err
	}
	return policy.Snapshot{Job: job, Assignment: assignment, UploadCount: count}, nil
}
