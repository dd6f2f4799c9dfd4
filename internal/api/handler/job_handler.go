package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/snapcrew/capture-market/internal/api/auth"
	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/dto"
	"github.com/snapcrew/capture-market/internal/api/model"
	"github.com/snapcrew/capture-market/internal/api/storage"
)

// CreateJob handles POST /api/v1/jobs
// A requester posts a new capture job; it starts in OPEN.
func (h *JobHandler) CreateJob(c *gin.Context) {
	id, ok := auth.CallerIdentity(c)
	if !ok {
		respondError(c, h.logger, domain.ErrUnauthenticated)
		return
	}
	if id.ActiveRole != domain.RoleRequester {
		respondError(c, h.logger, &domain.AuthorizationError{Action: "create a job"})
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	eventTime, err := time.Parse(time.RFC3339, req.EventTime)
	if err != nil {
		respondError(c, h.logger, domain.NewValidationError("event_time", "must be an ISO-8601 timestamp"))
		return
	}

	job := &model.Job{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		EventTime:   eventTime,
		ContentType: req.ContentType,
		PriceTier:   req.PriceTier,
		Notes:       req.Notes,
	}

	created, err := h.lifecycle.Create(c.Request.Context(), id.SubjectID, job)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"job": toJobDTO(created)})
}

// GetJob handles GET /api/v1/jobs/:job_id
// Visible to the owner and the assigned helper only.
func (h *JobHandler) GetJob(c *gin.Context) {
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

	job, err := h.lifecycle.Read(c.Request.Context(), jobID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": toJobDTO(job)})
}

// ListJobs handles GET /api/v1/jobs
// Lists the caller's own jobs: posted jobs for a requester, assigned jobs for
// a helper.
func (h *JobHandler) ListJobs(c *gin.Context) {
	id, ok := auth.CallerIdentity(c)
	if !ok {
		respondError(c, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.JobFilter{
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}
	if id.ActiveRole == domain.RoleRequester {
		filter.RequesterID = id.SubjectID
	} else {
		filter.HelperID = id.SubjectID
	}

	jobs, err := h.storage.ListJobs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = toJobDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		nextCursor, err = EncodeJobCursor(&storage.JobCursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		})
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// SubmitJob handles POST /api/v1/jobs/:job_id/submit
// The assigned helper submits uploaded work for review.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	h.transition(c, func(c *gin.Context, jobID string, id domain.Identity) (*model.Job, error) {
		return h.lifecycle.Submit(c.Request.Context(), jobID, id)
	})
}

// ApproveJob handles POST /api/v1/jobs/:job_id/approve
// The owner approves work in review, completing the job.
func (h *JobHandler) ApproveJob(c *gin.Context) {
	h.transition(c, func(c *gin.Context, jobID string, id domain.Identity) (*model.Job, error) {
		return h.lifecycle.Approve(c.Request.Context(), jobID, id)
	})
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
// The owner cancels a job that has not reached review.
func (h *JobHandler) CancelJob(c *gin.Context) {
	h.transition(c, func(c *gin.Context, jobID string, id domain.Identity) (*model.Job, error) {
		return h.lifecycle.Cancel(c.Request.Context(), jobID, id)
	})
}

func (h *JobHandler) transition(c *gin.Context, op func(*gin.Context, string, domain.Identity) (*model.Job, error)) {
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

	job, err := op(c, jobID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": toJobDTO(job)})
}
