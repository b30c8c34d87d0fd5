package tasks

import (
	"fmt"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/plan"
	"github.com/desertthunder/amx/internal/services"
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
	FetchSource Phase = iota
	FetchDest
	BuildPlan
	RecordRun
	ApplyPlan
	ExportSnapshot
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case BuildPlan:
		return "build_plan"
	case RecordRun:
		return "record_run"
	case ApplyPlan:
		return "apply_plan"
	case ExportSnapshot:
		return "export_snapshot"
	default:
		return ""
	}
}

func fetchSourceUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching source album (%s)...", id),
	}
}

func foundSourceUpdate(step, total int, album *models.Album) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found library album: %s (%d entries)", album.Name, len(album.Entries)),
		Data:    album,
	}
}

func fetchDestUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching destination album (%s)...", id),
	}
}

func foundDestUpdate(step, total int, album *models.Album) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found catalog album: %s (%d tracks)", album.Name, len(album.Tracks)),
		Data:    album,
	}
}

func buildPlanUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPlan,
		Step:    step,
		Total:   total,
		Message: "Matching library entries against the destination...",
	}
}

func planBuiltUpdate(step, total int, p *plan.MigrationPlan) ProgressUpdate {
	adds, removes := p.Counts()
	return ProgressUpdate{
		Phase:   BuildPlan,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Plan ready: %d adds, %d removes, %d warnings", adds, removes, len(p.Warnings)),
		Data:    p,
	}
}

func runRecordedUpdate(run *models.MigrationRun) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recorded migration run %s", run.ID()),
		Data:    run,
	}
}

func applyingPlanUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyPlan,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Applying migration plan (%d operations)...", total),
	}
}

func operationAppliedUpdate(step, total int, res services.OperationResult) ProgressUpdate {
	message := fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Operation)
	if res.Err != nil {
		message = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Operation, res.Err)
	}
	return ProgressUpdate{
		Phase:   ApplyPlan,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    res,
	}
}

func exportingAlbumUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, id),
	}
}

func exportCompletedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}

func exportFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}
