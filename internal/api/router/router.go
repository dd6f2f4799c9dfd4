package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snapcrew/capture-market/internal/api/auth"
	"github.com/snapcrew/capture-market/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "capture-market-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	claimHandler := handler.NewClaimHandler(deps)
	uploadHandler := handler.NewUploadHandler(deps)

	// API v1 routes; everything below requires an established identity.
	v1 := r.Group("/api/v1")
	v1.Use(auth.Middleware(deps.Logger))
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Post a new capture job
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs - List the caller's jobs
			jobs.GET("", jobHandler.ListJobs)

			// POST /api/v1/jobs/check-token - Pre-flight token inspection
			jobs.POST("/check-token", claimHandler.CheckToken)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", jobHandler.GetJob)

			// POST /api/v1/jobs/:job_id/qr - Issue a claim token
			jobs.POST("/:job_id/qr", claimHandler.IssueToken)

			// POST /api/v1/jobs/:job_id/join - Claim the job
			jobs.POST("/:job_id/join", claimHandler.JoinJob)

			// POST /api/v1/jobs/:job_id/submit - Submit work for review
			jobs.POST("/:job_id/submit", jobHandler.SubmitJob)

			// POST /api/v1/jobs/:job_id/approve - Approve reviewed work
			jobs.POST("/:job_id/approve", jobHandler.ApproveJob)

			// POST /api/v1/jobs/:job_id/cancel - Cancel the job
			jobs.POST("/:job_id/cancel", jobHandler.CancelJob)

			// POST /api/v1/jobs/:job_id/uploads - Register an upload
			jobs.POST("/:job_id/uploads", uploadHandler.CreateUpload)

			// DELETE /api/v1/jobs/:job_id/uploads/:upload_id - Remove an upload
			jobs.DELETE("/:job_id/uploads/:upload_id", uploadHandler.DeleteUpload)
		}

		// GET /api/v1/uploads/download?key=... - Capability URL for a blob
		v1.GET("/uploads/download", uploadHandler.Download)
	}

	return r
}
