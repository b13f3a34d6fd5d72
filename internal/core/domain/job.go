package domain

import "time"

// JobStatus is the canonical view of a remote job at one observation.
type JobStatus struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Progress  *int      `json:"progress,omitempty"` // 0-100, nil when the service sent none
	Error     *JobError `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// JobError is the error payload attached to a failed job.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
