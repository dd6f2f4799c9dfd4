package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/model"
)

const uploadColumns = `
	upload_id, job_id, uploader_id, file_name, content_type, size_bytes,
	blob_key, created_at`

func (s *Storage) InsertUpload(ctx context.Context, u *model.Upload) error {
	query := `
		INSERT INTO uploads (
			upload_id, job_id, uploader_id, file_name, content_type,
			size_bytes, blob_key, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		u.UploadID,
		u.JobID,
		u.UploaderID,
		u.FileName,
		u.ContentType,
		u.SizeBytes,
		u.BlobKey,
		u.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	return nil
}

func (s *Storage) GetUpload(ctx context.Context, uploadID string) (*model.Upload, error) {
	var u model.Upload
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE upload_id = $1`

	err := s.db.GetContext(ctx, &u, query, uploadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}

	return &u, nil
}

func (s *Storage) GetUploadByKey(ctx context.Context, blobKey string) (*model.Upload, error) {
	var u model.Upload
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE blob_key = $1`

	err := s.db.GetContext(ctx, &u, query, blobKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload by key: %w", err)
	}

	return &u, nil
}

func (s *Storage) DeleteUpload(ctx context.Context, uploadID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE upload_id = $1`, uploadID)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrUploadNotFound
	}

	return nil
}

func (s *Storage) CountUploads(ctx context.Context, jobID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM uploads WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}

	return count, nil
}

// ListUploads returns a job's uploads, newest first.
func (s *Storage) ListUploads(ctx context.Context, jobID string) ([]model.Upload, error) {
	var uploads []model.Upload
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE job_id = $1 ORDER BY created_at DESC`

	err := s.db.SelectContext(ctx, &uploads, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	return uploads, nil
}
