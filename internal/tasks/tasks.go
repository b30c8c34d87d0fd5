// package tasks implements album version migration operations against a music library.
//
// The core abstraction is MigrationEngine, which orchestrates snapshot fetches, plan construction, and plan application.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/amx/internal/match"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/plan"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
)

// PlanResult contains all data computed while planning a migration.
type PlanResult struct {
	Source  *models.Album       // Library snapshot of the source version
	Dest    *models.Album       // Catalog snapshot of the destination version
	Outcome match.Outcome       // Per-entry match results
	Plan    *plan.MigrationPlan // Ordered operations, warnings, and new tracks
}

// ApplyRunResult contains all data from a full migration run.
type ApplyRunResult struct {
	PlanResult
	Apply *services.ApplyResult // Per-operation apply outcomes
	Run   *models.MigrationRun  // Recorded run, nil when no recorder is attached
}

// MigrationEngine defines operations for migrating an album between versions.
type MigrationEngine interface {
	// Plan fetches fresh snapshots of both versions and computes the migration plan by matching library entries against destination tracks, without modifying the library.
	Plan(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*PlanResult, error)

	// Apply plans and then performs the migration by adding destination tracks before removing source entries, recording the run outcome.
	Apply(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*ApplyRunResult, error)

	// Export fetches album snapshots concurrently and writes each to a JSON file with a summary manifest.
	Export(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts SnapshotExportOpts) (*SnapshotExportResult, error)
}

// RunRecorder persists migration runs for later review.
// This abstraction decouples the engine from concrete storage; repositories.RunRepository satisfies it.
type RunRecorder interface {
	Create(run *models.MigrationRun) error
	Update(run *models.MigrationRun) error
}

// AlbumCacher stores fetched album snapshots.
// repositories.AlbumCacheAdapter satisfies it.
type AlbumCacher interface {
	CacheAlbum(album *models.Album) error
}

// AlbumEngine implements MigrationEngine for album version migrations.
// Contains dependencies on the library service, executor, and local storage.
type AlbumEngine struct {
	library  services.Library
	executor *services.Executor
	runs     RunRecorder
	cache    AlbumCacher
}

// NewAlbumEngine creates a new AlbumEngine with the provided library service.
// A nil executor gets a default one over the same library. The recorder and
// cacher may be nil, which disables run history and snapshot caching.
func NewAlbumEngine(library services.Library, executor *services.Executor, runs RunRecorder, cache AlbumCacher) *AlbumEngine {
	if executor == nil {
		executor = services.NewExecutor(library, nil)
	}
	return &AlbumEngine{
		library:  library,
		executor: executor,
		runs:     runs,
		cache:    cache,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *AlbumEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// cacheAlbum stores a snapshot silently. Cache faults never disrupt a migration.
func (e *AlbumEngine) cacheAlbum(album *models.Album) {
	if e.cache == nil {
		return
	}
	_ = e.cache.CacheAlbum(album)
}

// fetchPair materializes both album versions and caches the snapshots.
func (e *AlbumEngine) fetchPair(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*models.Album, *models.Album, error) {
	e.sendProgress(progress, fetchSourceUpdate(1, 2, sourceID))

	source, err := e.library.LibraryAlbum(ctx, sourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch source album %s: %w", sourceID, err)
	}

	e.sendProgress(progress, foundSourceUpdate(1, 2, source))
	e.cacheAlbum(source)

	e.sendProgress(progress, fetchDestUpdate(2, 2, destID))

	dest, err := e.library.CatalogAlbum(ctx, destID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch destination album %s: %w", destID, err)
	}

	e.sendProgress(progress, foundDestUpdate(2, 2, dest))
	e.cacheAlbum(dest)

	return source, dest, nil
}

// Plan fetches both versions and computes the migration plan without touching the library.
func (e *AlbumEngine) Plan(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*PlanResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	source, dest, err := e.fetchPair(ctx, progress, sourceID, destID)
	if err != nil {
		return nil, err
	}

	if err := services.ValidatePair(source, dest); err != nil {
		return nil, err
	}

	e.sendProgress(progress, buildPlanUpdate(1, 1))

	outcome := match.Match(source.Entries, dest.Tracks)
	p := plan.Build(source, dest, outcome)

	e.sendProgress(progress, planBuiltUpdate(1, 1, p))

	return &PlanResult{
		Source:  source,
		Dest:    dest,
		Outcome: outcome,
		Plan:    p,
	}, nil
}

// RecordPlan persists a planned run so it shows up in history before anything
// is applied. Returns nil without a recorder attached.
func (e *AlbumEngine) RecordPlan(progress chan<- ProgressUpdate, result *PlanResult) (*models.MigrationRun, error) {
	if e.runs == nil {
		return nil, nil
	}

	adds, removes := result.Plan.Counts()

	run := models.NewMigrationRun(0, result.Plan.SourceAlbumID, result.Plan.DestAlbumID)
	run.SetSourceName(result.Plan.SourceName)
	run.SetDestName(result.Plan.DestName)
	run.SetStorefront(e.library.Storefront())
	run.SetAddsPlanned(adds)
	run.SetRemovesPlanned(removes)
	run.SetWarningCount(len(result.Plan.Warnings))

	data, err := shared.MarshalJSON(result.Plan, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	run.SetPlanJSON(string(data))

	if err := e.runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to record migration run: %w", err)
	}

	e.sendProgress(progress, runRecordedUpdate(run))
	return run, nil
}

// Apply performs a full migration: plan, record, then walk the operations in
// order with adds before removes. The run record tracks how far a failed or
// cancelled apply got, so a rerun can pick up from a fresh plan.
func (e *AlbumEngine) Apply(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*ApplyRunResult, error) {
	planResult, err := e.Plan(ctx, progress, sourceID, destID)
	if err != nil {
		return nil, err
	}

	run, err := e.RecordPlan(progress, planResult)
	if err != nil {
		return nil, err
	}

	result := &ApplyRunResult{PlanResult: *planResult, Run: run}

	total := len(planResult.Plan.Operations)
	e.sendProgress(progress, applyingPlanUpdate(total))

	step := 0
	onOp := func(res services.OperationResult) {
		step++
		e.sendProgress(progress, operationAppliedUpdate(step, total, res))
	}

	applyResult, applyErr := e.executor.Apply(ctx, planResult.Plan, onOp)
	result.Apply = applyResult

	if err := e.finishRun(run, applyResult, applyErr); err != nil && applyErr == nil {
		return result, err
	}

	if applyErr != nil {
		return result, applyErr
	}
	return result, nil
}

// finishRun updates the recorded run with the apply outcome.
func (e *AlbumEngine) finishRun(run *models.MigrationRun, applyResult *services.ApplyResult, applyErr error) error {
	if e.runs == nil || run == nil {
		return nil
	}

	run.SetAddsApplied(applyResult.AddsApplied)
	run.SetRemovesApplied(applyResult.RemovesApplied)

	switch {
	case applyErr == nil:
		run.SetStatus(models.RunStatusApplied)
	case applyResult.AddsApplied > 0 || applyResult.RemovesApplied > 0:
		run.SetStatus(models.RunStatusPartial)
		run.SetErrorMessage(applyErr.Error())
	default:
		run.SetStatus(models.RunStatusFailed)
		run.SetErrorMessage(applyErr.Error())
	}

	if err := e.runs.Update(run); err != nil {
		return fmt.Errorf("migration applied but failed to update run record: %w", err)
	}
	return nil
}
