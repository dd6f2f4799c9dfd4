package handler

import (
	"log/slog"
	"time"

	"github.com/snapcrew/capture-market/internal/api/service"
	"github.com/snapcrew/capture-market/internal/api/storage"
	"github.com/snapcrew/capture-market/internal/api/token"
	"github.com/snapcrew/capture-market/shared/blobstore"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Storage     *storage.Storage
	Lifecycle   *service.Lifecycle
	Uploads     *service.Uploads
	Coordinator *service.Coordinator
	Tokens      *token.Authority
	Signer      *blobstore.Signer
	UploadTTL   time.Duration
	DownloadTTL time.Duration
}

// JobHandler handles job lifecycle HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	storage   *storage.Storage
	lifecycle *service.Lifecycle
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		storage:   deps.Storage,
		lifecycle: deps.Lifecycle,
	}
}

// ClaimHandler handles token issuance, inspection, and claiming
type ClaimHandler struct {
	logger      *slog.Logger
	storage     *storage.Storage
	tokens      *token.Authority
	coordinator *service.Coordinator
}

// NewClaimHandler creates a new ClaimHandler instance
func NewClaimHandler(deps *Dependencies) *ClaimHandler {
	return &ClaimHandler{
		logger:      deps.Logger,
		storage:     deps.Storage,
		tokens:      deps.Tokens,
		coordinator: deps.Coordinator,
	}
}

// UploadHandler handles upload metadata and capability URLs
type UploadHandler struct {
	logger      *slog.Logger
	uploads     *service.Uploads
	signer      *blobstore.Signer
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

// NewUploadHandler creates a new UploadHandler instance
func NewUploadHandler(deps *Dependencies) *UploadHandler {
	return &UploadHandler{
		logger:      deps.Logger,
		uploads:     deps.Uploads,
		signer:      deps.Signer,
		uploadTTL:   deps.UploadTTL,
		downloadTTL: deps.DownloadTTL,
	}
}
