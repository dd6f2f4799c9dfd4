package model

import (
	"time"

	"github.com/snapcrew/capture-market/internal/api/domain"
)

// Job is a capture job posted by a requester.
type Job struct {
	JobID       string           `db:"job_id"`
	RequesterID string           `db:"requester_id"`
	Title       string           `db:"title"`
	Description string           `db:"description"`
	Location    string           `db:"location"`
	EventTime   time.Time        `db:"event_time"`
	ContentType string           `db:"content_type"`
	PriceTier   string           `db:"price_tier"`
	Notes       string           `db:"notes"`
	Status      domain.JobStatus `db:"status"`
	SubmittedAt *time.Time       `db:"submitted_at"`
	CompletedAt *time.Time       `db:"completed_at"`
	CreatedAt   time.Time        `db:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at"`
}

// Assignment binds exactly one helper to exactly one job. The unique
// constraint on job_id is the invariant of record against claim races.
type Assignment struct {
	AssignmentID string    `db:"assignment_id"`
	JobID        string    `db:"job_id"`
	HelperID     string    `db:"helper_id"`
	CreatedAt    time.Time `db:"created_at"`
}

// ClaimToken is a short-lived, single-use claim credential. Only the HMAC
// digest of the presented token is stored; consumed is one-way.
type ClaimToken struct {
	TokenID    string     `db:"token_id"`
	JobID      string     `db:"job_id"`
	TokenHash  string     `db:"token_hash"`
	ShortCode  string     `db:"short_code"`
	ExpiresAt  time.Time  `db:"expires_at"`
	Consumed   bool       `db:"consumed"`
	ConsumedBy *string    `db:"consumed_by"`
	ConsumedAt *time.Time `db:"consumed_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

// Upload records a blob delivered for a job. Rows are created and deleted,
// never mutated.
type Upload struct {
	UploadID    string    `db:"upload_id"`
	JobID       string    `db:"job_id"`
	UploaderID  string    `db:"uploader_id"`
	FileName    string    `db:"file_name"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	BlobKey     string    `db:"blob_key"`
	CreatedAt   time.Time `db:"created_at"`
}
