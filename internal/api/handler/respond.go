package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/dto"
	"github.com/snapcrew/capture-market/internal/api/model"
)

// respondError translates the error taxonomy into HTTP responses. Everything
// unrecognized is an unexpected failure: logged, surfaced as an opaque 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		validationErr *domain.ValidationError
		authzErr      *domain.AuthorizationError
		conflictErr   *domain.StateConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})

	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})

	case errors.As(err, &authzErr):
		// Deliberately no job-state detail in the body.
		c.JSON(http.StatusForbidden, gin.H{"error": authzErr.Error()})

	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrUploadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenJobMismatch),
		errors.Is(err, domain.ErrJobNotAvailable),
		errors.Is(err, domain.ErrAlreadyAssigned):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrStaleStatus):
		c.JSON(http.StatusConflict, gin.H{"error": "job status changed, retry"})

	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Reason})

	default:
		logger.Error("Unexpected error handling request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func toJobDTO(job *model.Job) dto.JobDTO {
	d := dto.JobDTO{
		JobID:       job.JobID,
		RequesterID: job.RequesterID,
		Title:       job.Title,
		Description: job.Description,
		Location:    job.Location,
		EventTime:   job.EventTime.Format(time.RFC3339),
		ContentType: job.ContentType,
		PriceTier:   job.PriceTier,
		Notes:       job.Notes,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   job.UpdatedAt.Format(time.RFC3339),
	}
	if job.SubmittedAt != nil {
		d.SubmittedAt = job.SubmittedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		d.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return d
}

func toUploadDTO(u *model.Upload) dto.UploadDTO {
	return dto.UploadDTO{
		UploadID:    u.UploadID,
		JobID:       u.JobID,
		UploaderID:  u.UploaderID,
		FileName:    u.FileName,
		ContentType: u.ContentType,
		SizeBytes:   u.SizeBytes,
		BlobKey:     u.BlobKey,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}
