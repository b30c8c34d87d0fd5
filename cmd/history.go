package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/amx/internal/formatter"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/plan"
	"github.com/desertthunder/amx/internal/repositories"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList lists recorded migration runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}
	if storefront := cmd.String("storefront"); storefront != "" {
		criteria["storefront"] = storefront
	}
	if source := cmd.String("source"); source != "" {
		criteria["source_album_id"] = source
	}
	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = limit
	}

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlainln("No migration runs recorded.")
	}

	if r.isTTY() {
		return r.writePlain("%s\n", formatter.HistoryTable(runs))
	}
	return r.writePlain("%s", formatter.HistoryText(runs))
}

// HistoryShow displays one run in detail, accepting a unique id prefix.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	runs := repositories.NewRunRepository(db)

	run, err := runs.Get(id)
	if errors.Is(err, shared.ErrRunNotFound) {
		run, err = resolveRunPrefix(runs, id)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		payload := map[string]any{"run": run}
		if run.PlanJSON() != "" {
			var recorded plan.MigrationPlan
			if err := json.Unmarshal([]byte(run.PlanJSON()), &recorded); err == nil {
				payload["plan"] = &recorded
			}
		}
		return r.writeJSON(payload, true)
	}

	if _, err := r.output.Write(formatter.RunDetail(run)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// resolveRunPrefix finds the single run whose id starts with prefix.
func resolveRunPrefix(runs *repositories.RunRepository, prefix string) (*models.MigrationRun, error) {
	all, err := runs.List(nil)
	if err != nil {
		return nil, err
	}

	var found *models.MigrationRun
	for _, run := range all {
		if strings.HasPrefix(run.ID(), prefix) {
			if found != nil {
				return nil, fmt.Errorf("%w: run id prefix %q is ambiguous", shared.ErrInvalidArgument, prefix)
			}
			found = run
		}
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, prefix)
	}
	return found, nil
}
