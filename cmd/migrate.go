package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/amx/internal/formatter"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
	"github.com/desertthunder/amx/internal/ui"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"
)

// MigratePlan computes and renders the migration plan without touching the
// library.
func (r *Runner) MigratePlan(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source")
	destID := cmd.String("dest")
	useJSON := cmd.Bool("json")
	save := cmd.Bool("save")

	if r.library == nil {
		return fmt.Errorf("%w: apple music service not configured (run 'amx auth import')", shared.ErrServiceUnavailable)
	}

	engine := r.engine
	if save {
		db, err := r.openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()
		engine = r.storedEngine(db)
	}

	r.logger.Info("planning migration", "source", sourceID, "dest", destID)

	// Progress lines stay off stdout when the caller asked for JSON.
	var progress chan tasks.ProgressUpdate
	var done <-chan struct{}
	if !useJSON {
		progress, done = r.printProgress()
	}
	result, err := engine.Plan(ctx, progress, sourceID, destID)
	if progress != nil {
		close(progress)
		<-done
	}
	if err != nil {
		return err
	}

	if useJSON {
		payload, err := formatter.PlanJSON(result.Plan)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if _, err := r.output.Write(payload); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := r.writePlain("\n"); err != nil {
			return err
		}
	} else if r.isTTY() {
		r.writePlain("\n%s\n", formatter.MatchTable(result.Outcome))
		r.writePlain("%s\n", formatter.PlanTable(result.Plan))
	} else {
		r.writePlain("\n%s", formatter.MatchText(result.Outcome))
		r.writePlain("%s", formatter.PlanText(result.Plan))
	}

	if save {
		run, err := engine.RecordPlan(nil, result)
		if err != nil {
			return err
		}
		if useJSON {
			r.logger.Info("recorded plan", "run", run.ID())
		} else {
			r.writePlain("Recorded plan as run %s\n", run.ID())
		}
	}

	return nil
}

// MigrateApply plans the migration, confirms it, and applies it to the
// library under a file lock. The plan is recomputed from fresh snapshots
// right before applying.
func (r *Runner) MigrateApply(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source")
	destID := cmd.String("dest")

	if r.library == nil {
		return fmt.Errorf("%w: apple music service not configured (run 'amx auth import')", shared.ErrServiceUnavailable)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	engine := r.storedEngine(db)

	if !cmd.Bool("yes") {
		progress, done := r.printProgress()
		result, err := engine.Plan(ctx, progress, sourceID, destID)
		close(progress)
		<-done
		if err != nil {
			return err
		}

		if r.isTTY() {
			r.writePlain("\n%s\n", formatter.PlanTable(result.Plan))
		} else {
			r.writePlain("\n%s", formatter.PlanText(result.Plan))
		}
		if len(result.Plan.NewTracks) > 0 {
			r.writePlain("New on this version: %d tracks (not added automatically)\n", len(result.Plan.NewTracks))
		}
		if len(result.Plan.Warnings) > 0 {
			r.writePlain("⚠ %d entries stay in the library for review\n", len(result.Plan.Warnings))
		}

		adds, removes := result.Plan.Counts()
		ok, err := r.confirm(fmt.Sprintf("\nApply %d adds and %d removes to '%s'?", adds, removes, result.Plan.DestName))
		if err != nil {
			return err
		}
		if !ok {
			r.writePlainln("Aborted.")
			return nil
		}
	}

	unlock, err := r.acquireMigrationLock()
	if err != nil {
		return err
	}
	defer unlock()

	r.logger.Info("applying migration", "source", sourceID, "dest", destID)

	progress, done := r.printProgress()
	result, err := engine.Apply(ctx, progress, sourceID, destID)
	close(progress)
	<-done

	if err != nil {
		if result != nil && result.Apply != nil {
			r.writePlain("\nCommitted before the failure: %d adds, %d removes\n",
				result.Apply.AddsApplied, result.Apply.RemovesApplied)
			if result.Run != nil {
				r.writePlain("Recorded as run %s [%s]\n", result.Run.ID(), result.Run.Status())
			}
		}
		return err
	}

	r.writePlainHeader("Migration Complete")
	r.writePlain("Source: %s\n", result.Plan.SourceName)
	r.writePlain("Destination: %s\n", result.Plan.DestName)
	r.writePlain("Added: %d tracks\n", result.Apply.AddsApplied)
	r.writePlain("Removed: %d entries\n", result.Apply.RemovesApplied)
	if len(result.Plan.Warnings) > 0 {
		r.writePlain("\n⚠ %d entries stay in the library for review:\n", len(result.Plan.Warnings))
		for _, warning := range result.Plan.Warnings {
			r.writePlain("  • %s\n", warning)
		}
	}
	if result.Run != nil {
		r.writePlain("\nRun: %s [%s]\n", result.Run.ID(), result.Run.Status())
	}
	return nil
}

// MigrateUI reviews and applies the migration in the interactive TUI.
func (r *Runner) MigrateUI(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source")
	destID := cmd.String("dest")

	if r.library == nil {
		return fmt.Errorf("%w: apple music service not configured (run 'amx auth import')", shared.ErrServiceUnavailable)
	}

	// Log to a file so output doesn't corrupt the TUI display.
	fileLogger, err := shared.NewFileLogger("./tmp/amx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine := r.engine
	if db, err := r.openDatabase(); err == nil {
		defer db.Close()
		engine = r.storedEngine(db)
	} else {
		r.logger.Warn("run history disabled", "error", err)
	}

	unlock, err := r.acquireMigrationLock()
	if err != nil {
		return err
	}
	defer unlock()

	model := ui.NewModel(ctx, engine, sourceID, destID)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}

// acquireMigrationLock takes the configured file lock so concurrent applies
// cannot interleave adds and removes. The returned function releases it.
func (r *Runner) acquireMigrationLock() (func(), error) {
	lockPath := r.config.Migrate.LockPath
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), "amx.lock")
	}

	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: another migration holds %s", shared.ErrMigrationLocked, lockPath)
	}

	return func() {
		if err := fileLock.Unlock(); err != nil {
			r.logger.Warn("failed to release migration lock", "error", err)
		}
	}, nil
}

// printProgress consumes engine progress updates on a separate goroutine.
// The caller closes the returned channel after the engine call and waits on
// done so summary output never interleaves with progress lines.
func (r *Runner) printProgress() (chan tasks.ProgressUpdate, <-chan struct{}) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.ApplyPlan:
				if update.Step == 0 {
					r.writePlain("\n%s\n", update.Message)
				} else {
					r.writePlain("  %s\n", update.Message)
				}
			case tasks.ExportSnapshot:
				r.writePlain("  %s\n", update.Message)
			default:
				r.writePlain("→ %s\n", update.Message)
			}
		}
	}()

	return progress, done
}
