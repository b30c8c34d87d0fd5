// package formatter renders match outcomes, migration plans, and run history
// and exports album snapshots to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/amx/internal/match"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/plan"
	"github.com/desertthunder/amx/internal/shared"
)

// position renders a disc/track pair as "1-03".
func position(disc, number int) string {
	return fmt.Sprintf("%d-%02d", disc, number)
}

// trackLabel renders a track as "1-03 Song A [3:11]".
func trackLabel(t models.Track) string {
	return fmt.Sprintf("%s %s [%s]", position(t.DiscNumber, t.TrackNumber), t.Title, shared.FormatDuration(t.Duration))
}

// albumTracks returns the album's track listing, falling back to the entries'
// embedded tracks for library albums fetched without a catalog relationship.
func albumTracks(album *models.Album) []models.Track {
	if len(album.Tracks) > 0 {
		return album.Tracks
	}

	tracks := make([]models.Track, 0, len(album.Entries))
	for _, e := range album.Entries {
		t := e.Track
		if t.LibraryID == "" {
			t.LibraryID = e.LibraryID
		}
		tracks = append(tracks, t)
	}

	return tracks
}

// MatchTable renders the correspondence as a rounded table, one row per
// source entry.
func MatchTable(out match.Outcome) string {
	headers := []string{"Entry", "Source", "Tier", "Destination", "Note"}
	rows := make([][]string, 0, len(out.Results))

	for _, r := range out.Results {
		row := []string{r.Entry.LibraryID, trackLabel(r.Entry.Track)}
		switch {
		case r.Matched():
			row = append(row, r.Tier.String(), trackLabel(*r.Track), "")
		case r.Reason == match.ReasonDuplicateSource:
			row = append(row, r.Reason.String(), "-", fmt.Sprintf("duplicate of %s", r.Primary))
		default:
			row = append(row, r.Reason.String(), "-", r.Hint)
		}
		rows = append(rows, row)
	}

	return renderTable(headers, rows, nil)
}

// MatchText renders the correspondence as plain lines.
func MatchText(out match.Outcome) []byte {
	var buf bytes.Buffer

	for _, r := range out.Results {
		prefix := fmt.Sprintf("%s %s", r.Entry.LibraryID, trackLabel(r.Entry.Track))
		switch {
		case r.Matched():
			buf.WriteString(fmt.Sprintf("%s -> %s (%s)\n", prefix, trackLabel(*r.Track), r.Tier))
		case r.Reason == match.ReasonDuplicateSource:
			buf.WriteString(fmt.Sprintf("%s -> duplicate of %s\n", prefix, r.Primary))
		case r.Hint != "":
			buf.WriteString(fmt.Sprintf("%s -> %s; %s\n", prefix, r.Reason, r.Hint))
		default:
			buf.WriteString(fmt.Sprintf("%s -> %s\n", prefix, r.Reason))
		}
	}

	return buf.Bytes()
}

// planHeader renders the plan's source and destination line, falling back to
// album ids when names are missing.
func planHeader(p *plan.MigrationPlan) string {
	source, dest := p.SourceName, p.DestName
	if source == "" {
		source = p.SourceAlbumID
	}
	if dest == "" {
		dest = p.DestAlbumID
	}

	return fmt.Sprintf("Migration: %s -> %s\n", source, dest)
}

// opLine renders one operation with its position or entry reference.
func opLine(op plan.Operation) string {
	switch {
	case op.Kind == plan.OpAdd && op.Track != nil:
		return fmt.Sprintf("%s at %s [%s]", op, position(op.Track.DiscNumber, op.Track.TrackNumber), shared.FormatDuration(op.Track.Duration))
	case op.Entry != nil:
		return fmt.Sprintf("%s (%s)", op, op.Entry.LibraryID)
	}

	return op.String()
}

// writePlanSections appends the warnings, new-content, and summary sections
// shared by the table and text renderers.
func writePlanSections(buf *bytes.Buffer, p *plan.MigrationPlan) {
	if len(p.Warnings) > 0 {
		buf.WriteString(fmt.Sprintf("\nWarnings: %d\n", len(p.Warnings)))
		for _, w := range p.Warnings {
			buf.WriteString(fmt.Sprintf("  ! %s\n", w))
			if w.Hint != "" {
				buf.WriteString(fmt.Sprintf("    %s\n", w.Hint))
			}
		}
	}

	if len(p.NewTracks) > 0 {
		buf.WriteString(fmt.Sprintf("\nNew in destination: %d (left untouched)\n", len(p.NewTracks)))
		for _, t := range p.NewTracks {
			buf.WriteString(fmt.Sprintf("  + %s\n", trackLabel(t)))
		}
	}

	adds, removes := p.Counts()
	buf.WriteString(fmt.Sprintf("\n%d adds, %d removes, %d warnings\n", adds, removes, len(p.Warnings)))
}

// PlanTable renders the plan's operations as a rounded table followed by the
// warning and new-content sections.
func PlanTable(p *plan.MigrationPlan) string {
	var buf bytes.Buffer
	buf.WriteString(planHeader(p))

	if len(p.Operations) > 0 {
		headers := []string{"Op", "Track", "Time", "Cause"}
		rows := make([][]string, 0, len(p.Operations))
		for _, op := range p.Operations {
			switch {
			case op.Kind == plan.OpAdd && op.Track != nil:
				rows = append(rows, []string{
					string(op.Kind),
					fmt.Sprintf("%s %s", position(op.Track.DiscNumber, op.Track.TrackNumber), op.Track.Title),
					shared.FormatDuration(op.Track.Duration),
					"",
				})
			case op.Entry != nil:
				rows = append(rows, []string{
					string(op.Kind),
					fmt.Sprintf("%s %s (%s)", position(op.Entry.Track.DiscNumber, op.Entry.Track.TrackNumber), op.Entry.Track.Title, op.Entry.LibraryID),
					shared.FormatDuration(op.Entry.Track.Duration),
					string(op.Cause),
				})
			}
		}
		buf.WriteString(renderTable(headers, rows, nil))
		buf.WriteString("\n")
	} else {
		buf.WriteString("Nothing to do.\n")
	}

	writePlanSections(&buf, p)

	return buf.String()
}

// PlanText renders the plan as numbered plain-text operations.
func PlanText(p *plan.MigrationPlan) []byte {
	var buf bytes.Buffer
	buf.WriteString(planHeader(p))

	if p.Empty() {
		buf.WriteString("Nothing to do.\n")
	}
	for i, op := range p.Operations {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, opLine(op)))
	}

	writePlanSections(&buf, p)

	return buf.Bytes()
}

// PlanJSON encodes the plan as indented JSON.
func PlanJSON(p *plan.MigrationPlan) ([]byte, error) {
	return shared.MarshalJSON(p, true)
}

// AlbumTable renders an album's track listing as a rounded table.
func AlbumTable(album *models.Album) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s - %s\n", album.Name, album.ArtistName))

	headers := []string{"#", "Title", "Time", "Catalog", "Library"}
	tracks := albumTracks(album)
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{
			position(t.DiscNumber, t.TrackNumber),
			t.Title,
			shared.FormatDuration(t.Duration),
			t.CatalogID,
			t.LibraryID,
		})
	}
	buf.WriteString(renderTable(headers, rows, nil))
	buf.WriteString("\n")

	return buf.String()
}

// ExportToCSV converts an album's track listing to CSV with columns:
// Disc, Track, Title, Artist, Duration, ISRC, CatalogID, LibraryID
func ExportToCSV(album *models.Album) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Disc", "Track", "Title", "Artist", "Duration", "ISRC", "CatalogID", "LibraryID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range albumTracks(album) {
		record := []string{
			strconv.Itoa(track.DiscNumber),
			strconv.Itoa(track.TrackNumber),
			track.Title,
			track.ArtistName,
			strconv.Itoa(track.Duration),
			track.ISRC,
			track.CatalogID,
			track.LibraryID,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an album to Markdown format with optional cover image
func ExportToMarkdown(album *models.Album, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", album.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if album.ArtistName != "" {
		buf.WriteString(fmt.Sprintf("**Artist**: %s\n", album.ArtistName))
	}
	if album.ReleaseDate != "" {
		buf.WriteString(fmt.Sprintf("**Released**: %s\n", album.ReleaseDate))
	}

	tracks := albumTracks(album)
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, trackLabel(track)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an album to plain text format
func ExportToText(album *models.Album) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Album: %s\n", album.Name))
	if album.ArtistName != "" {
		buf.WriteString(fmt.Sprintf("Artist: %s\n", album.ArtistName))
	}

	tracks := albumTracks(album)
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, trackLabel(track)))
	}

	return buf.Bytes(), nil
}

// AlbumJSON encodes the full album snapshot as indented JSON.
func AlbumJSON(album *models.Album) ([]byte, error) {
	return shared.MarshalJSON(album, true)
}

// HistoryTable renders persisted migration runs as a rounded table.
func HistoryTable(runs []*models.MigrationRun) string {
	headers := []string{"ID", "Status", "Source", "Destination", "Adds", "Removes", "Warn", "Created"}
	rows := make([][]string, 0, len(runs))

	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID()),
			run.Status(),
			runName(run.SourceName(), run.SourceAlbumID()),
			runName(run.DestName(), run.DestAlbumID()),
			fmt.Sprintf("%d/%d", run.AddsApplied(), run.AddsPlanned()),
			fmt.Sprintf("%d/%d", run.RemovesApplied(), run.RemovesPlanned()),
			strconv.Itoa(run.WarningCount()),
			run.CreatedAt().Format("2006-01-02 15:04"),
		})
	}

	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
	return renderTable(headers, rows, aligns)
}

// HistoryText renders persisted migration runs as plain lines.
func HistoryText(runs []*models.MigrationRun) []byte {
	var buf bytes.Buffer

	for _, run := range runs {
		buf.WriteString(fmt.Sprintf("%s %s %s -> %s (adds %d/%d, removes %d/%d) %s\n",
			shortID(run.ID()),
			run.Status(),
			runName(run.SourceName(), run.SourceAlbumID()),
			runName(run.DestName(), run.DestAlbumID()),
			run.AddsApplied(), run.AddsPlanned(),
			run.RemovesApplied(), run.RemovesPlanned(),
			run.CreatedAt().Format("2006-01-02 15:04"),
		))
	}

	return buf.Bytes()
}

// RunDetail renders one run with its stored plan re-rendered when present.
func RunDetail(run *models.MigrationRun) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run:        %s\n", run.ID()))
	buf.WriteString(fmt.Sprintf("Status:     %s\n", run.Status()))
	if run.Storefront() != "" {
		buf.WriteString(fmt.Sprintf("Storefront: %s\n", run.Storefront()))
	}
	buf.WriteString(fmt.Sprintf("Source:     %s\n", runName(run.SourceName(), run.SourceAlbumID())))
	buf.WriteString(fmt.Sprintf("Dest:       %s\n", runName(run.DestName(), run.DestAlbumID())))
	buf.WriteString(fmt.Sprintf("Adds:       %d/%d\n", run.AddsApplied(), run.AddsPlanned()))
	buf.WriteString(fmt.Sprintf("Removes:    %d/%d\n", run.RemovesApplied(), run.RemovesPlanned()))
	buf.WriteString(fmt.Sprintf("Warnings:   %d\n", run.WarningCount()))
	buf.WriteString(fmt.Sprintf("Created:    %s\n", run.CreatedAt().Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("Updated:    %s\n", run.UpdatedAt().Format(time.RFC3339)))
	if run.ErrorMessage() != "" {
		buf.WriteString(fmt.Sprintf("Error:      %s\n", run.ErrorMessage()))
	}

	if run.PlanJSON() != "" {
		var p plan.MigrationPlan
		if err := json.Unmarshal([]byte(run.PlanJSON()), &p); err != nil {
			buf.WriteString("\nStored plan could not be decoded.\n")
		} else {
			buf.WriteString("\n")
			buf.Write(PlanText(&p))
		}
	}

	return buf.Bytes()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// albumBase returns the default base filename for an album's exports.
func albumBase(album *models.Album) string {
	if album.CatalogID != "" {
		return album.CatalogID
	}
	return album.LibraryID
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports an album to CSV format with accompanying metadata JSON file.
//
// Defaults to the album ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(album *models.Album, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = albumBase(album)
	}

	csvData, err := ExportToCSV(album)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	// Metadata omits the listings so the CSV stays the single track source.
	meta := *album
	meta.Tracks = nil
	meta.Entries = nil
	metadataJSON, err := shared.MarshalJSON(meta, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports an album to Markdown format in a dedicated directory.
//
// Directory name defaults to the album ID.
// The imageURL parameter is optional - if provided, attempts to download the cover art.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(album *models.Album, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = albumBase(album)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover art: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := fmt.Sprintf("%s/%s", outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover art: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(album, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports an album to plain text format.
//
// Defaults to {albumID}_tracks.txt as the filename.
func WriteTextExport(album *models.Album, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", albumBase(album))
	}

	textData, err := ExportToText(album)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// WriteJSONExport exports the full album snapshot as JSON.
//
// Defaults to {albumID}.json as the filename.
func WriteJSONExport(album *models.Album, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s.json", albumBase(album))
	}

	data, err := AlbumJSON(album)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return filepath, nil
}

// SnapshotManifest summarizes a bulk snapshot export run.
type SnapshotManifest struct {
	ExportedAt        string                  `json:"exported_at"`
	Format            string                  `json:"format"`
	OutputDirectory   string                  `json:"output_directory"`
	TotalAlbums       int                     `json:"total_albums"`
	SuccessfulExports int                     `json:"successful_exports"`
	FailedExports     int                     `json:"failed_exports"`
	Albums            []SnapshotManifestEntry `json:"albums"`
}

// SnapshotManifestEntry records one album's outcome within a manifest.
type SnapshotManifestEntry struct {
	AlbumID string   `json:"album_id"`
	Name    string   `json:"name,omitempty"`
	Files   []string `json:"files,omitempty"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
}

// WriteSnapshotManifest writes an export manifest as pretty JSON.
func WriteSnapshotManifest(manifest *SnapshotManifest, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}
