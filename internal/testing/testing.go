// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// MockLibrary is a test double for [services.Library]. Albums are served
// from the fixture maps; Add and Remove calls are recorded. The error
// fields make every boundary failable, and FailAddOn/FailRemoveOn target
// the nth call (1-based) so partial-apply paths can be exercised. With a
// fail index of zero a set error applies to every call.
type MockLibrary struct {
	CatalogAlbums map[string]*models.Album
	LibraryAlbums map[string]*models.Album

	CatalogErr   error
	LibraryErr   error
	AddErr       error
	RemoveErr    error
	FailAddOn    int
	FailRemoveOn int

	Added   []string
	Removed []string

	StorefrontCode string
}

func (m *MockLibrary) CatalogAlbum(ctx context.Context, catalogID string) (*models.Album, error) {
	if m.CatalogErr != nil {
		return nil, m.CatalogErr
	}
	if album, ok := m.CatalogAlbums[catalogID]; ok {
		return album, nil
	}

	return nil, shared.ErrAlbumNotFound
}

func (m *MockLibrary) LibraryAlbum(ctx context.Context, libraryID string) (*models.Album, error) {
	if m.LibraryErr != nil {
		return nil, m.LibraryErr
	}
	if album, ok := m.LibraryAlbums[libraryID]; ok {
		return album, nil
	}

	return nil, shared.ErrAlbumNotFound
}

func (m *MockLibrary) AddSong(ctx context.Context, catalogID string) error {
	if m.AddErr != nil && (m.FailAddOn == 0 || len(m.Added)+1 == m.FailAddOn) {
		return m.AddErr
	}
	m.Added = append(m.Added, catalogID)
	return nil
}

func (m *MockLibrary) RemoveEntry(ctx context.Context, libraryID string) error {
	if m.RemoveErr != nil && (m.FailRemoveOn == 0 || len(m.Removed)+1 == m.FailRemoveOn) {
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, libraryID)
	return nil
}

func (m *MockLibrary) Storefront() string {
	if m.StorefrontCode == "" {
		return "us"
	}
	return m.StorefrontCode
}

func (m *MockLibrary) Name() string { return "mock" }

// SourceAlbum returns a library album fixture: the standard edition with
// two entries plus a duplicate copy of the second one.
func SourceAlbum() *models.Album {
	intro := models.Track{
		CatalogID:   "900001",
		AlbumID:     "900000",
		Title:       "Intro",
		ArtistName:  "The Band",
		DiscNumber:  1,
		TrackNumber: 1,
		Duration:    45,
	}
	songA := models.Track{
		CatalogID:   "900002",
		AlbumID:     "900000",
		Title:       "Song A",
		ArtistName:  "The Band",
		DiscNumber:  1,
		TrackNumber: 2,
		Duration:    190,
	}

	return &models.Album{
		CatalogID:  "900000",
		LibraryID:  "l.source",
		Name:       "Greatest Songs",
		ArtistName: "The Band",
		TrackCount: 2,
		Entries: []models.LibraryEntry{
			{LibraryID: "i.1", AlbumID: "l.source", AddedAt: "2024-01-10T00:00:00Z", Track: intro},
			{LibraryID: "i.2", AlbumID: "l.source", AddedAt: "2024-01-10T00:00:00Z", Track: songA},
			{LibraryID: "i.3", AlbumID: "l.source", AddedAt: "2024-02-01T00:00:00Z", Track: songA},
		},
	}
}

// DeluxeAlbum returns the catalog fixture for the destination version:
// the same songs at shifted positions plus a remix new to the library.
func DeluxeAlbum() *models.Album {
	return &models.Album{
		CatalogID:  "910000",
		Name:       "Greatest Songs (Deluxe)",
		ArtistName: "The Band",
		TrackCount: 3,
		Tracks: []models.Track{
			{CatalogID: "910001", AlbumID: "910000", Title: "Intro", ArtistName: "The Band", DiscNumber: 1, TrackNumber: 1, Duration: 45},
			{CatalogID: "910002", AlbumID: "910000", Title: "Song A", ArtistName: "The Band", DiscNumber: 1, TrackNumber: 3, Duration: 191},
			{CatalogID: "910003", AlbumID: "910000", Title: "Song A (Remix)", ArtistName: "The Band", DiscNumber: 1, TrackNumber: 9, Duration: 220},
		},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
