package tasks

import (
	"fmt"

	"github.com/desertthunder/tunesmith/internal/models"
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
	Generate Phase = iota
	Resolve
	Create
	Populate
	Complete
	LoadDashboard
)

func (p Phase) String() string {
	switch p {
	case Generate:
		return "generate"
	case Resolve:
		return "resolve"
	case Create:
		return "create"
	case Populate:
		return "populate"
	case Complete:
		return "complete"
	case LoadDashboard:
		return "load_dashboard"
	default:
		return ""
	}
}

// SuccessMessage is the status line shown once a playlist has been saved.
func SuccessMessage(name string) string {
	return fmt.Sprintf("Success! Your playlist \"%s\" has been saved to your Spotify library.", name)
}

func generateUpdate(prompt string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Generate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Asking the AI for songs matching %q...", prompt),
	}
}

func resolveUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    1,
		Total:   3,
		Message: "Step 1/3: Finding songs on Spotify...",
		Data:    total,
	}
}

func resolvedTracksUpdate(refs []models.ResolvedTrackRef, matched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    matched,
		Total:   len(refs),
		Message: fmt.Sprintf("Matched %d of %d songs", matched, len(refs)),
		Data:    refs,
	}
}

func createUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Create,
		Step:    2,
		Total:   3,
		Message: fmt.Sprintf("Step 2/3: Creating playlist \"%s\"...", name),
	}
}

func populateUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Populate,
		Step:    3,
		Total:   3,
		Message: "Step 3/3: Adding songs to your new playlist...",
		Data:    count,
	}
}

func completeUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    3,
		Total:   3,
		Message: SuccessMessage(pl.Name),
		Data:    pl,
	}
}

func dashboardUpdate(step, total int, section string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadDashboard,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loaded %s", step, total, section),
	}
}
