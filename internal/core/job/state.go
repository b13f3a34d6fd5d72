package job

import (
	"time"

	"github.com/vietddude/ocrflow/internal/core/domain"
)

// ValidTransitions defines allowed status changes between two observations.
// Key is the previous status, value is the list of valid next statuses.
// Staying in the same status is always allowed.
var ValidTransitions = map[domain.Status][]domain.Status{
	domain.StatusPending:    {domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed},
	domain.StatusProcessing: {domain.StatusCompleted, domain.StatusFailed},
	domain.StatusCompleted:  {},
	domain.StatusFailed:     {},
}

// CanTransition checks if a transition from one status to another is valid.
func CanTransition(from, to domain.Status) bool {
	if from == to {
		return true
	}
	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// Transition represents a status change between two polls.
type Transition struct {
	From      domain.Status
	To        domain.Status
	Timestamp time.Time
}

// IsValid returns true if this transition is allowed by the lifecycle.
func (t Transition) IsValid() bool {
	return CanTransition(t.From, t.To)
}

// Tracker records the observed status sequence of one job.
// It is not safe for concurrent use; each poll loop owns its own.
type Tracker struct {
	last    domain.Status
	started bool
}

// Observe records s and returns the transition from the previous
// observation. The first call reports ok=false.
func (t *Tracker) Observe(s domain.JobStatus) (Transition, bool) {
	if !t.started {
		t.started = true
		t.last = s.Status
		return Transition{}, false
	}
	tr := Transition{From: t.last, To: s.Status, Timestamp: s.UpdatedAt}
	t.last = s.Status
	return tr, true
}

// StatusDescription returns a human-readable description of a status.
func StatusDescription(s domain.Status) string {
	switch s {
	case domain.StatusPending:
		return "Pending - accepted, waiting for a worker"
	case domain.StatusProcessing:
		return "Processing - recognition in progress"
	case domain.StatusCompleted:
		return "Completed - results available"
	case domain.StatusFailed:
		return "Failed - job will not complete"
	default:
		return "Unknown status"
	}
}
