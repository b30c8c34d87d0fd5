package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
	th "github.com/desertthunder/amx/internal/testing"
)

func TestInputValidators(t *testing.T) {
	t.Run("ValidateCatalogID", func(t *testing.T) {
		tests := []struct {
			name    string
			id      string
			wantErr bool
		}{
			{"valid numeric id", "1745159913", false},
			{"single digit", "7", false},
			{"empty", "", true},
			{"letters", "abc123", true},
			{"library prefix", "l.123", true},
			{"whitespace", "174 159", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := ValidateCatalogID(tt.id)
				if (err != nil) != tt.wantErr {
					t.Errorf("ValidateCatalogID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
				}
				if err != nil && !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})

	t.Run("ValidateLibraryAlbumID", func(t *testing.T) {
		tests := []struct {
			name    string
			id      string
			wantErr bool
		}{
			{"valid", "l.Abc123", false},
			{"empty", "", true},
			{"missing prefix", "Abc123", true},
			{"song prefix", "i.Abc123", true},
			{"prefix only", "l.", true},
			{"punctuation", "l.abc-123", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := ValidateLibraryAlbumID(tt.id)
				if (err != nil) != tt.wantErr {
					t.Errorf("ValidateLibraryAlbumID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
				}
			})
		}
	})

	t.Run("ValidateLibrarySongID", func(t *testing.T) {
		if err := ValidateLibrarySongID("i.xyz987"); err != nil {
			t.Errorf("expected valid song id, got %v", err)
		}
		if err := ValidateLibrarySongID("l.xyz987"); err == nil {
			t.Error("expected error for album prefix on a song id")
		}
		if err := ValidateLibrarySongID("i."); err == nil {
			t.Error("expected error for empty id body")
		}
	})

	t.Run("ValidateDeveloperToken", func(t *testing.T) {
		tests := []struct {
			name    string
			token   string
			wantErr bool
		}{
			{"valid shape", "eyJhbGc.eyJpc3M.c2lnbmF0dXJl", false},
			{"empty", "", true},
			{"two segments", "header.payload", true},
			{"four segments", "a.b.c.d", true},
			{"empty segment", "a..c", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := ValidateDeveloperToken(tt.token)
				if (err != nil) != tt.wantErr {
					t.Errorf("ValidateDeveloperToken error = %v, wantErr %v", err, tt.wantErr)
				}
				if err != nil && !errors.Is(err, shared.ErrInvalidCredentials) {
					t.Errorf("expected ErrInvalidCredentials, got %v", err)
				}
			})
		}
	})

	t.Run("ValidateStorefront", func(t *testing.T) {
		tests := []struct {
			name    string
			code    string
			wantErr bool
		}{
			{"valid us", "us", false},
			{"valid de", "de", false},
			{"empty", "", true},
			{"one letter", "u", true},
			{"three letters", "usa", true},
			{"uppercase", "US", true},
			{"digits", "u1", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := ValidateStorefront(tt.code)
				if (err != nil) != tt.wantErr {
					t.Errorf("ValidateStorefront(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
				}
			})
		}
	})
}

func TestValidateCatalogSnapshot(t *testing.T) {
	catalogTrack := func(id string, disc, number int) models.Track {
		return models.Track{CatalogID: id, Title: "Track " + id, DiscNumber: disc, TrackNumber: number, Duration: 200}
	}

	tests := []struct {
		name    string
		album   *models.Album
		wantErr bool
	}{
		{
			name:  "valid single disc",
			album: &models.Album{CatalogID: "100", TrackCount: 2, Tracks: []models.Track{catalogTrack("1", 1, 1), catalogTrack("2", 1, 2)}},
		},
		{
			name: "valid multi disc",
			album: &models.Album{CatalogID: "100", TrackCount: 3, Tracks: []models.Track{
				catalogTrack("1", 1, 1), catalogTrack("2", 1, 2), catalogTrack("3", 2, 1),
			}},
		},
		{
			name:    "missing album id",
			album:   &models.Album{TrackCount: 1, Tracks: []models.Track{catalogTrack("1", 1, 1)}},
			wantErr: true,
		},
		{
			name:    "no tracks",
			album:   &models.Album{CatalogID: "100", TrackCount: 2},
			wantErr: true,
		},
		{
			name:    "count mismatch",
			album:   &models.Album{CatalogID: "100", TrackCount: 3, Tracks: []models.Track{catalogTrack("1", 1, 1), catalogTrack("2", 1, 2)}},
			wantErr: true,
		},
		{
			name:    "numbering gap",
			album:   &models.Album{CatalogID: "100", TrackCount: 2, Tracks: []models.Track{catalogTrack("1", 1, 1), catalogTrack("2", 1, 3)}},
			wantErr: true,
		},
		{
			name:    "starts past one",
			album:   &models.Album{CatalogID: "100", TrackCount: 1, Tracks: []models.Track{catalogTrack("1", 1, 2)}},
			wantErr: true,
		},
		{
			name:    "disc skipped",
			album:   &models.Album{CatalogID: "100", TrackCount: 2, Tracks: []models.Track{catalogTrack("1", 1, 1), catalogTrack("2", 3, 1)}},
			wantErr: true,
		},
		{
			name:    "unsorted",
			album:   &models.Album{CatalogID: "100", TrackCount: 2, Tracks: []models.Track{catalogTrack("1", 1, 2), catalogTrack("2", 1, 1)}},
			wantErr: true,
		},
		{
			name:    "duplicate track ids",
			album:   &models.Album{CatalogID: "100", TrackCount: 2, Tracks: []models.Track{catalogTrack("1", 1, 1), catalogTrack("1", 1, 2)}},
			wantErr: true,
		},
		{
			name:    "track without id",
			album:   &models.Album{CatalogID: "100", TrackCount: 1, Tracks: []models.Track{catalogTrack("", 1, 1)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalogSnapshot(tt.album)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCatalogSnapshot error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrInvalidSnapshot) {
				t.Errorf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestValidateLibrarySnapshot(t *testing.T) {
	entry := func(id string) models.LibraryEntry {
		return models.LibraryEntry{LibraryID: id, Track: models.Track{Title: "Song", DiscNumber: 1, TrackNumber: 1}}
	}

	tests := []struct {
		name    string
		album   *models.Album
		wantErr bool
	}{
		{
			name:  "valid",
			album: &models.Album{LibraryID: "l.a", TrackCount: 2, Entries: []models.LibraryEntry{entry("i.1"), entry("i.2")}},
		},
		{
			name:  "duplicate catalog tracks allowed",
			album: th.SourceAlbum(),
		},
		{
			name:    "missing album id",
			album:   &models.Album{Entries: []models.LibraryEntry{entry("i.1")}},
			wantErr: true,
		},
		{
			name:    "no entries",
			album:   &models.Album{LibraryID: "l.a"},
			wantErr: true,
		},
		{
			name:  "entry count above track count",
			album: &models.Album{LibraryID: "l.a", TrackCount: 1, Entries: []models.LibraryEntry{entry("i.1"), entry("i.2")}},
		},
		{
			name:    "repeated entry id",
			album:   &models.Album{LibraryID: "l.a", TrackCount: 2, Entries: []models.LibraryEntry{entry("i.1"), entry("i.1")}},
			wantErr: true,
		},
		{
			name:    "entry without id",
			album:   &models.Album{LibraryID: "l.a", TrackCount: 1, Entries: []models.LibraryEntry{entry("")}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLibrarySnapshot(tt.album)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLibrarySnapshot error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePair(t *testing.T) {
	t.Run("fixture pair is migratable", func(t *testing.T) {
		if err := ValidatePair(th.SourceAlbum(), th.DeluxeAlbum()); err != nil {
			t.Errorf("expected valid pair, got %v", err)
		}
	})

	t.Run("nil snapshot", func(t *testing.T) {
		if err := ValidatePair(nil, th.DeluxeAlbum()); !errors.Is(err, shared.ErrSnapshotPair) {
			t.Errorf("expected ErrSnapshotPair, got %v", err)
		}
	})

	t.Run("same version", func(t *testing.T) {
		source := th.SourceAlbum()
		dest := th.DeluxeAlbum()
		dest.CatalogID = source.CatalogID

		if err := ValidatePair(source, dest); !errors.Is(err, shared.ErrSnapshotPair) {
			t.Errorf("expected ErrSnapshotPair, got %v", err)
		}
	})

	t.Run("shared track", func(t *testing.T) {
		source := th.SourceAlbum()
		dest := th.DeluxeAlbum()
		dest.Tracks[1].CatalogID = source.Entries[0].Track.CatalogID

		if err := ValidatePair(source, dest); !errors.Is(err, shared.ErrSnapshotPair) {
			t.Errorf("expected ErrSnapshotPair, got %v", err)
		}
	})

	t.Run("source without catalog relationship", func(t *testing.T) {
		source := th.SourceAlbum()
		source.CatalogID = ""

		if err := ValidatePair(source, th.DeluxeAlbum()); err != nil {
			t.Errorf("expected valid pair, got %v", err)
		}
	})
}
