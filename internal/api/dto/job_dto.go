package dto

type CreateJobRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Location    string `json:"location" binding:"required"`
	EventTime   string `json:"event_time" binding:"required"` // ISO-8601
	ContentType string `json:"content_type" binding:"required,oneof=photos videos both"`
	PriceTier   string `json:"price_tier" binding:"required,oneof=basic standard premium"`
	Notes       string `json:"notes"`
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID       string `json:"job_id"`
	RequesterID string `json:"requester_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	EventTime   string `json:"event_time"`
	ContentType string `json:"content_type"`
	PriceTier   string `json:"price_tier"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
