package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/amx/internal/formatter"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// SnapshotExportOpts contains configuration for bulk snapshot exports.
type SnapshotExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: amx_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4)
	RateLimit  float64 // Requests per second (default: 5)
}

// AlbumExportResult records the outcome of exporting one album snapshot.
type AlbumExportResult struct {
	AlbumID string   // Requested album id
	Name    string   // Album name once fetched
	Files   []string // Files written for this album
	Success bool
	Error   error
}

// SnapshotExportResult summarizes a bulk snapshot export.
type SnapshotExportResult struct {
	TotalAlbums       int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []AlbumExportResult
}

// Export fetches multiple album snapshots concurrently with rate limiting and progress tracking.
//
// This method implements a worker pool pattern where each worker fetches a
// snapshot and writes it under the output directory. Library ids (`l.` prefix)
// fetch the library view, catalog ids the catalog view. It respects API rate
// limits, handles partial failures gracefully, and generates a manifest file
// summarizing the export results.
func (e *AlbumEngine) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts SnapshotExportOpts,
) (*SnapshotExportResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no album ids to export", shared.ErrInvalidInput)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("amx_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &SnapshotExportResult{
		TotalAlbums:     len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]AlbumExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string, len(ids))
	results := make(chan AlbumExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	go func() {
		for i, id := range ids {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			e.sendProgress(prog, exportingAlbumUpdate(i+1, len(ids), id))
			jobs <- id
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.Name))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.AlbumID, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteSnapshotManifest(buildSnapshotManifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports albums from the jobs channel.
// The shared limiter gates each fetch so concurrent workers stay within the
// host API's rate budget.
func (e *AlbumEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan string,
	results chan<- AlbumExportResult,
	opts SnapshotExportOpts,
) {
	defer wg.Done()

	for id := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		results <- e.exportAlbum(ctx, id, opts)
	}
}

// exportAlbum fetches a single snapshot and writes it in the requested format.
func (e *AlbumEngine) exportAlbum(ctx context.Context, id string, opts SnapshotExportOpts) AlbumExportResult {
	result := AlbumExportResult{
		AlbumID: id,
		Files:   []string{},
	}

	var album *models.Album
	var err error
	if strings.HasPrefix(id, "l.") {
		album, err = e.library.LibraryAlbum(ctx, id)
	} else {
		album, err = e.library.CatalogAlbum(ctx, id)
	}
	if err != nil {
		result.Error = fmt.Errorf("failed to fetch album: %w", err)
		return result
	}

	e.cacheAlbum(album)
	result.Name = album.Name

	switch opts.Format {
	case "csv":
		baseFilepath := filepath.Join(opts.OutputDir, id)
		csvRes, err := formatter.WriteCSVExport(album, baseFilepath)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}
		result.Success = true

	case "markdown":
		outputDir := filepath.Join(opts.OutputDir, id)
		mdRes, err := formatter.WriteMarkdownExport(album, outputDir, album.ArtworkURL)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_tracks.txt", id))
		txtFile, err := formatter.WriteTextExport(album, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{txtFile}
		result.Success = true

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.json", id))
		jsonFile, err := formatter.WriteJSONExport(album, jsonPath)
		if err != nil {
			result.Error = fmt.Errorf("JSON export failed: %w", err)
			return result
		}
		result.Files = []string{jsonFile}
		result.Success = true
	}
	return result
}

// buildSnapshotManifest converts an export result into its manifest form.
func buildSnapshotManifest(result *SnapshotExportResult, format string) *formatter.SnapshotManifest {
	if format == "" {
		format = "json"
	}

	manifest := &formatter.SnapshotManifest{
		ExportedAt:        time.Now().UTC().Format(time.RFC3339),
		Format:            format,
		OutputDirectory:   result.OutputDirectory,
		TotalAlbums:       result.TotalAlbums,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Albums:            make([]formatter.SnapshotManifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := formatter.SnapshotManifestEntry{
			AlbumID: res.AlbumID,
			Name:    res.Name,
			Files:   res.Files,
			Success: res.Success,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		manifest.Albums = append(manifest.Albums, entry)
	}
	return manifest
}
