package tasks

import (
	"fmt"

	"github.com/desertthunder/reelx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchDetails Phase = iota
	Completed
	Failed
)

func (p Phase) String() string {
	switch p {
	case FetchDetails:
		return "fetch_details"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func fetchingDetailsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching details for %d favorites...", total),
	}
}

func detailsCompletedUpdate(step, total int, m *models.Movie) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Completed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, m.DisplayTitle()),
		Data:    m,
	}
}

func detailsFailedUpdate(step, total int, m models.Movie, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, m.DisplayTitle(), err),
	}
}
