package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/formatter"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/repositories"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// AlbumCatalog fetches and displays the catalog version of an album.
func (r *Runner) AlbumCatalog(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: album id required", shared.ErrMissingArgument)
	}
	if err := services.ValidateCatalogID(id); err != nil {
		return err
	}

	if cmd.Bool("cached") {
		return r.showCachedAlbum(id, cmd.Bool("json"))
	}

	if r.library == nil {
		return fmt.Errorf("%w: apple music service not configured (run 'amx auth import')", shared.ErrServiceUnavailable)
	}

	r.logger.Info("fetching catalog album", "id", id)
	album, err := r.library.CatalogAlbum(ctx, id)
	if err != nil {
		return err
	}

	return r.renderAlbum(album, cmd.Bool("json"))
}

// AlbumLibrary fetches and displays an album version from the user's library.
func (r *Runner) AlbumLibrary(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: album id required", shared.ErrMissingArgument)
	}
	if err := services.ValidateLibraryAlbumID(id); err != nil {
		return err
	}

	if cmd.Bool("cached") {
		return r.showCachedAlbum(id, cmd.Bool("json"))
	}

	if r.library == nil {
		return fmt.Errorf("%w: apple music service not configured (run 'amx auth import')", shared.ErrServiceUnavailable)
	}

	r.logger.Info("fetching library album", "id", id)
	album, err := r.library.LibraryAlbum(ctx, id)
	if err != nil {
		return err
	}

	return r.renderAlbum(album, cmd.Bool("json"))
}

// AlbumExport fetches album snapshots concurrently and writes them to files.
func (r *Runner) AlbumExport(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one --id is required", shared.ErrMissingArgument)
	}
	if r.library == nil {
		return fmt.Errorf("%w: apple music service not configured (run 'amx auth import')", shared.ErrServiceUnavailable)
	}

	opts := tasks.SnapshotExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  float64(cmd.Int("rate")),
	}

	// Cache snapshots along the way when the database is available.
	engine := r.engine
	if db, err := r.openDatabase(); err == nil {
		defer db.Close()
		engine = r.storedEngine(db)
	}

	r.logger.Info("exporting album snapshots", "count", len(ids), "format", opts.Format)

	progress, done := r.printProgress()
	result, err := engine.Export(ctx, progress, ids, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Export Complete")
	r.writePlain("Albums: %d requested\n", result.TotalAlbums)
	r.writePlain("Exported: %d\n", result.SuccessfulExports)
	if result.FailedExports > 0 {
		r.writePlain("Failed: %d\n", result.FailedExports)
	}
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

// showCachedAlbum renders the most recently cached snapshot for the id.
func (r *Runner) showCachedAlbum(id string, useJSON bool) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	cached, err := repositories.NewAlbumRepository(db).GetByAlbumID(id)
	if err != nil {
		return fmt.Errorf("%w: no cached snapshot for %s", shared.ErrAlbumNotFound, id)
	}

	album, err := cached.Snapshot()
	if err != nil {
		return fmt.Errorf("cached snapshot for %s is corrupt: %w", id, err)
	}

	if !useJSON {
		r.writePlain("Cached snapshot from %s\n\n", cached.FetchedAt().Format(time.RFC3339))
	}
	return r.renderAlbum(album, useJSON)
}

// renderAlbum writes one snapshot as JSON, a table on a terminal, or plain
// text otherwise.
func (r *Runner) renderAlbum(album *models.Album, useJSON bool) error {
	if useJSON {
		return r.writeJSON(album, true)
	}

	if r.isTTY() {
		return r.writePlain("%s\n", formatter.AlbumTable(album))
	}

	text, err := formatter.ExportToText(album)
	if err != nil {
		return fmt.Errorf("failed to render album: %w", err)
	}
	if _, err := r.output.Write(text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
