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

// IssueToken handles POST /api/v1/jobs/:job_id/qr
// The owner generates a fresh claim token (for a QR code or manual short
// code). Regenerating is fine; old unconsumed tokens simply stay outstanding
// until they expire.
func (h *ClaimHandler) IssueToken(c *gin.Context) {
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

	job, err := h.storage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if id.ActiveRole != domain.RoleRequester || job.RequesterID != id.SubjectID {
		respondError(c, h.logger, &domain.AuthorizationError{Action: "issue a claim token"})
		return
	}

	// Issuance is gated here, not in the authority: terminal jobs can never
	// be claimed, so handing out a token for one is pointless.
	if job.Status.Terminal() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "cannot issue a token for a " + string(job.Status) + " job",
		})
		return
	}

	issued, err := h.tokens.Issue(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.IssueTokenResponse{
		Token:     issued.Token,
		ShortCode: issued.ShortCode,
		ExpiresAt: issued.ExpiresAt.Format(time.RFC3339),
	})
}

// CheckToken handles POST /api/v1/jobs/check-token
// Read-only pre-flight for the join UI. Never mutates; the result may be
// stale, and the join path re-checks authoritatively.
func (h *ClaimHandler) CheckToken(c *gin.Context) {
	var req dto.CheckTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	insp, err := h.tokens.Inspect(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckTokenResponse{
		Valid:  insp.Valid,
		JobID:  insp.JobID,
		Reason: insp.Reason,
	})
}

// JoinJob handles POST /api/v1/jobs/:job_id/join
// A helper consumes a claim token to become the job's sole assignee.
func (h *ClaimHandler) JoinJob(c *gin.Context) {
	id, ok := auth.CallerIdentity(c)
	if !ok {
		respondError(c, h.logger, domain.ErrUnauthenticated)
		return
	}
	if id.ActiveRole != domain.RoleHelper {
		respondError(c, h.logger, &domain.AuthorizationError{Action: "claim a job"})
		return
	}

	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		respondError(c, h.logger, domain.NewValidationError("job_id", "must be a valid UUID"))
		return
	}

	var req dto.JoinJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	assignment, err := h.coordinator.Claim(c.Request.Context(), jobID, req.Token, id.SubjectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.JoinJobResponse{
		Success: true,
		JobID:   assignment.JobID,
	})
}
