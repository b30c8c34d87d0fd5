// Plan executor: applies migration operations against a Library.
package services

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/amx/internal/plan"
	"github.com/desertthunder/amx/internal/shared"
)

// OperationResult attributes the outcome of one applied operation.
type OperationResult struct {
	Operation plan.Operation
	Err       error
}

// ApplyResult reports every attempted operation and the committed counts.
// When Apply returns an error, the last entry in Results is the operation
// that failed; everything before it committed.
type ApplyResult struct {
	Results        []OperationResult
	AddsApplied    int
	RemovesApplied int
}

// Completed reports whether every operation in the result committed.
func (r *ApplyResult) Completed() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return false
		}
	}
	return true
}

// Executor walks a migration plan's operations in order. Because the plan
// puts every Add before any Remove, a run that stops at a failure can
// remove a source song only after its destination replacement committed.
type Executor struct {
	library Library
	logger  *log.Logger
}

// NewExecutor creates an executor over the given library service.
func NewExecutor(library Library, logger *log.Logger) *Executor {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Executor{library: library, logger: logger}
}

// Apply runs the plan's operations in order, stopping at the first failure.
// The returned result always lists every attempted operation, so a caller
// can tell exactly which ones committed. onOp, when non-nil, is invoked
// after each attempt.
func (e *Executor) Apply(ctx context.Context, p *plan.MigrationPlan, onOp func(OperationResult)) (*ApplyResult, error) {
	result := &ApplyResult{Results: make([]OperationResult, 0, len(p.Operations))}

	if err := planOrdered(p); err != nil {
		return result, err
	}

	for _, op := range p.Operations {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %w", shared.ErrMigrationFailed, err)
		}

		err := e.applyOne(ctx, op)
		opResult := OperationResult{Operation: op, Err: err}
		result.Results = append(result.Results, opResult)
		if onOp != nil {
			onOp(opResult)
		}

		if err != nil {
			e.logger.Error("operation failed", "op", op.String(), "error", err)
			return result, fmt.Errorf("%w: %s: %w", shared.ErrMigrationFailed, op, err)
		}

		e.logger.Debug("operation applied", "op", op.String())
		if op.Kind == plan.OpAdd {
			result.AddsApplied++
		} else {
			result.RemovesApplied++
		}
	}

	return result, nil
}

func (e *Executor) applyOne(ctx context.Context, op plan.Operation) error {
	switch op.Kind {
	case plan.OpAdd:
		if op.Track == nil {
			return fmt.Errorf("%w: add operation without a track", shared.ErrInvalidInput)
		}
		return e.library.AddSong(ctx, op.Track.CatalogID)
	case plan.OpRemove:
		if op.Entry == nil {
			return fmt.Errorf("%w: remove operation without an entry", shared.ErrInvalidInput)
		}
		return e.library.RemoveEntry(ctx, op.Entry.LibraryID)
	}

	return fmt.Errorf("%w: unknown operation kind %q", shared.ErrInvalidInput, op.Kind)
}

// planOrdered rejects plans where an Add appears after a Remove. Plans
// deserialized from storage pass through here too, so the ordering is
// enforced at the boundary rather than assumed.
func planOrdered(p *plan.MigrationPlan) error {
	removesSeen := false
	for _, op := range p.Operations {
		switch op.Kind {
		case plan.OpRemove:
			removesSeen = true
		case plan.OpAdd:
			if removesSeen {
				return fmt.Errorf("%w: add operation after a remove", shared.ErrInvalidInput)
			}
		}
	}
	return nil
}
