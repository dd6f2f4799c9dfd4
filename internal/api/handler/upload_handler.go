package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/snapcrew/capture-market/internal/api/auth"
	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/dto"
)

// CreateUpload handles POST /api/v1/jobs/:job_id/uploads
// The assigned helper registers a new upload and receives a time-limited
// capability URL to push the blob to the external store. If the job was still
// ACCEPTED it advances to IN_PROGRESS.
func (h *UploadHandler) CreateUpload(c *gin.Context) {
	id, ok := auth.CallerIdentity(c)
	if !ok {
		respondError(c, h.logger, domain.ErrUnauthenticated)
		return
	}

	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		respondError(c, h.logger, domain.NewValidationError("job_id", "must be a valid UUID"))
		return
	}

	var req dto.CreateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	upload, err := h.uploads.Create(c.Request.Context(), jobID, id, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	cap, err := h.signer.SignUpload(upload.BlobKey, h.uploadTTL)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreateUploadResponse{
		Upload:    toUploadDTO(upload),
		UploadURL: cap.URL,
		ExpiresAt: cap.ExpiresAt.Format(time.RFC3339),
	})
}

// DeleteUpload handles DELETE /api/v1/jobs/:job_id/uploads/:upload_id
// Helpers may remove their own uploads before completion; the owner may clear
// any upload while reviewing.
func (h *UploadHandler) DeleteUpload(c *gin.Context) {
	id, ok := auth.CallerIdentity(c)
	if !ok {
		respondError(c, h.logger, domain.ErrUnauthenticated)
		return
	}

	jobID := c.Param("job_id")
	uploadID := c.Param("upload_id")
	if _, err := uuid.Parse(jobID); err != nil {
		respondError(c, h.logger, domain.NewValidationError("job_id", "must be a valid UUID"))
		return
	}
	if _, err := uuid.Parse(uploadID); err != nil {
		respondError(c, h.logger, domain.NewValidationError("upload_id", "must be a valid UUID"))
		return
	}

	if err := h.uploads.Delete(c.Request.Context(), jobID, uploadID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Download handles GET /api/v1/uploads/download?key=...
// Resolves the owning job from the blob key, applies the download policy, and
// returns a short-lived capability URL issued against the external blob store.
func (h *UploadHandler) Download(c *gin.Context) {
	id, ok := auth.CallerIdentity(c)
	if !ok {
		respondError(c, h.logger, domain.ErrUnauthenticated)
		return
	}

	key := c.Query("key")
	if key == "" {
		respondError(c, h.logger, domain.NewValidationError("key", "is required"))
		return
	}

	upload, err := h.uploads.AuthorizeDownload(c.Request.Context(), key, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	cap, err := h.signer.SignDownload(upload.BlobKey, h.downloadTTL)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.DownloadResponse{
		DownloadURL: cap.URL,
		ExpiresAt:   cap.ExpiresAt.Format(time.RFC3339),
	})
}
