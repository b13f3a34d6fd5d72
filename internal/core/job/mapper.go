// Package job maps raw job payloads into domain.JobStatus and defines the
// job lifecycle: pending -> processing -> {completed, failed}.
package job

import (
	"math"
	"strings"
	"time"

	"github.com/vietddude/ocrflow/internal/core/domain"
)

// RawStatus is a status or result payload as returned by the service.
// Every field is optional.
type RawStatus struct {
	ID        string           `json:"id"`
	JobID     string           `json:"jobId"`
	Status    string           `json:"status"`
	Progress  *float64         `json:"progress"`
	Error     *domain.JobError `json:"error"`
	CreatedAt *time.Time       `json:"createdAt"`
	UpdatedAt *time.Time       `json:"updatedAt"`
}

// statusAliases maps spellings seen in the wild onto the closed status set.
var statusAliases = map[string]domain.Status{
	"pending":     domain.StatusPending,
	"queued":      domain.StatusPending,
	"waiting":     domain.StatusPending,
	"processing":  domain.StatusProcessing,
	"running":     domain.StatusProcessing,
	"in_progress": domain.StatusProcessing,
	"completed":   domain.StatusCompleted,
	"complete":    domain.StatusCompleted,
	"succeeded":   domain.StatusCompleted,
	"success":     domain.StatusCompleted,
	"done":        domain.StatusCompleted,
	"failed":      domain.StatusFailed,
	"error":       domain.StatusFailed,
	"cancelled":   domain.StatusFailed,
	"canceled":    domain.StatusFailed,
}

// NormalizeStatus maps a raw status string to domain.Status.
// Missing and unrecognized values are pending.
func NormalizeStatus(raw string) domain.Status {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return domain.StatusPending
}

// MapStatus builds the canonical JobStatus. Missing timestamps become now,
// a missing progress stays nil and the error payload is passed through.
func MapStatus(raw RawStatus, now time.Time) domain.JobStatus {
	id := raw.ID
	if id == "" {
		id = raw.JobID
	}

	st := domain.JobStatus{
		ID:        id,
		Status:    NormalizeStatus(raw.Status),
		Error:     raw.Error,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if raw.CreatedAt != nil && !raw.CreatedAt.IsZero() {
		st.CreatedAt = *raw.CreatedAt
	}
	if raw.UpdatedAt != nil && !raw.UpdatedAt.IsZero() {
		st.UpdatedAt = *raw.UpdatedAt
	}
	if raw.Progress != nil {
		p := clampProgress(*raw.Progress)
		st.Progress = &p
	}
	return st
}

// IsTerminal is the poll predicate: completed or failed.
func IsTerminal(s domain.JobStatus) bool {
	return s.Status.IsTerminal()
}

func clampProgress(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
