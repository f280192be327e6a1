package transport

import "github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"

// HealthResponse is the liveness document.
type HealthResponse struct {
	OK  bool   `json:"ok"`
	App string `json:"app"`
}

// CreateJobResponse acknowledges a queued job.
type CreateJobResponse struct {
	ID     int64       `json:"id"`
	Status jobs.Status `json:"status"`
}

// ListJobsResponse pages through a tenant's jobs.
type ListJobsResponse struct {
	Total int            `json:"total"`
	Items []jobs.Summary `json:"items"`
}

// ErrorResponse carries a human-readable failure reason.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
