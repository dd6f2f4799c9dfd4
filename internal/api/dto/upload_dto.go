package dto

type CreateUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,gt=0"`
}

type UploadDTO struct {
	UploadID    string `json:"upload_id"`
	JobID       string `json:"job_id"`
	UploaderID  string `json:"uploader_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	BlobKey     string `json:"blob_key"`
	CreatedAt   string `json:"created_at"`
}

type CreateUploadResponse struct {
	Upload    UploadDTO `json:"upload"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt string    `json:"expires_at"`
}

type DownloadResponse struct {
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}
