package dto

type IssueTokenResponse struct {
	Token     string `json:"token"`
	ShortCode string `json:"short_code"`
	ExpiresAt string `json:"expires_at"`
}

type CheckTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type CheckTokenResponse struct {
	Valid  bool   `json:"valid"`
	JobID  string `json:"job_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type JoinJobRequest struct {
	Token string `json:"token" binding:"required"`
}

type JoinJobResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
}
