package jobs

import (
	"encoding/json"
	"time"
)

// Type identifies the kind of processing a job performs.
type Type string

const (
	TypeOCR        Type = "ocr"
	TypeFaceVerify Type = "face_verify"
)

// ValidType reports whether t names a known job type.
func ValidType(t Type) bool {
	switch t {
	case TypeOCR, TypeFaceVerify:
		return true
	}
	return false
}

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is a single document-processing request owned by a tenant.
type Job struct {
	ID        int64           `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Type      Type            `json:"job_type"`
	Status    Status          `json:"status"`
	InputURI  string          `json:"input_uri"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Summary is the lightweight list view of a job.
type Summary struct {
	ID        int64     `json:"id"`
	Type      Type      `json:"job_type"`
	Status    Status    `json:"status"`
	InputURI  string    `json:"input_uri"`
	CreatedAt time.Time `json:"created_at"`
}

// Summarize projects a job onto its list view.
func (j *Job) Summarize() Summary {
	return Summary{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		InputURI:  j.InputURI,
		CreatedAt: j.CreatedAt,
	}
}
