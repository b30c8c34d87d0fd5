// Input and snapshot validation for the Apple Music boundary.
//
// Input validators run in command pre-flight and again inside the client.
// Snapshot validators are hard errors at the fetch boundary: the matcher
// only ever sees albums that passed them.
package services

import (
	"fmt"
	"strings"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// ValidateCatalogID checks that an ID names a catalog resource: non-empty
// ASCII digits.
func ValidateCatalogID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty catalog id", shared.ErrInvalidInput)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: catalog id %q must be numeric", shared.ErrInvalidInput, id)
		}
	}
	return nil
}

// ValidateLibraryAlbumID checks the "l." prefixed form of a library album ID.
func ValidateLibraryAlbumID(id string) error {
	return validateLibraryID(id, "l.", "library album")
}

// ValidateLibrarySongID checks the "i." prefixed form of a library song ID.
func ValidateLibrarySongID(id string) error {
	return validateLibraryID(id, "i.", "library song")
}

func validateLibraryID(id, prefix, kind string) error {
	if id == "" {
		return fmt.Errorf("%w: empty %s id", shared.ErrInvalidInput, kind)
	}
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || rest == "" {
		return fmt.Errorf("%w: %s id %q must start with %q", shared.ErrInvalidInput, kind, id, prefix)
	}
	for _, r := range rest {
		if !isAlphanumeric(r) {
			return fmt.Errorf("%w: %s id %q contains invalid characters", shared.ErrInvalidInput, kind, id)
		}
	}
	return nil
}

func isAlphanumeric(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ValidateDeveloperToken checks the JWT shape of a developer token: three
// non-empty dot-separated segments. The signature is the API's concern.
func ValidateDeveloperToken(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty developer token", shared.ErrInvalidCredentials)
	}
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return fmt.Errorf("%w: developer token must have three segments", shared.ErrInvalidCredentials)
	}
	for _, segment := range segments {
		if segment == "" {
			return fmt.Errorf("%w: developer token has an empty segment", shared.ErrInvalidCredentials)
		}
	}
	return nil
}

// ValidateStorefront checks a storefront code: exactly two lowercase ASCII
// letters.
func ValidateStorefront(code string) error {
	if len(code) != 2 {
		return fmt.Errorf("%w: storefront %q must be two letters", shared.ErrInvalidInput, code)
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return fmt.Errorf("%w: storefront %q must be lowercase letters", shared.ErrInvalidInput, code)
		}
	}
	return nil
}

// ValidateCatalogSnapshot checks the invariants of a catalog album snapshot:
// tracks sorted by disc then track number, each disc numbered contiguously
// from 1, unique track catalog IDs, and a listing that matches the album's
// own track count.
func ValidateCatalogSnapshot(album *models.Album) error {
	if album.CatalogID == "" {
		return fmt.Errorf("%w: missing catalog album id", shared.ErrInvalidSnapshot)
	}
	if len(album.Tracks) == 0 {
		return fmt.Errorf("%w: catalog album %s has no tracks", shared.ErrInvalidSnapshot, album.CatalogID)
	}
	if album.TrackCount > 0 && len(album.Tracks) != album.TrackCount {
		return fmt.Errorf("%w: catalog album %s lists %d tracks but reports %d",
			shared.ErrInvalidSnapshot, album.CatalogID, len(album.Tracks), album.TrackCount)
	}

	seen := make(map[string]bool, len(album.Tracks))
	disc, number := 0, 0
	for _, t := range album.Tracks {
		if t.CatalogID == "" {
			return fmt.Errorf("%w: catalog album %s has a track without a catalog id", shared.ErrInvalidSnapshot, album.CatalogID)
		}
		if seen[t.CatalogID] {
			return fmt.Errorf("%w: catalog album %s repeats track id %s", shared.ErrInvalidSnapshot, album.CatalogID, t.CatalogID)
		}
		seen[t.CatalogID] = true

		switch {
		case t.DiscNumber == disc && t.TrackNumber == number+1:
			number = t.TrackNumber
		case t.DiscNumber == disc+1 && t.TrackNumber == 1:
			disc, number = t.DiscNumber, 1
		default:
			return fmt.Errorf("%w: catalog album %s track numbering breaks at disc %d track %d",
				shared.ErrInvalidSnapshot, album.CatalogID, t.DiscNumber, t.TrackNumber)
		}
	}

	return nil
}

// ValidateLibrarySnapshot checks the invariants of a library album snapshot:
// at least one entry, each with its own unique library ID. No count check
// here: duplicates inflate the entry list and partial saves shrink it, and
// both are states this tool exists to handle. Collapsing duplicate catalog
// tracks is the matcher's job.
func ValidateLibrarySnapshot(album *models.Album) error {
	if album.LibraryID == "" {
		return fmt.Errorf("%w: missing library album id", shared.ErrInvalidSnapshot)
	}
	if len(album.Entries) == 0 {
		return fmt.Errorf("%w: library album %s has no entries", shared.ErrInvalidSnapshot, album.LibraryID)
	}

	seen := make(map[string]bool, len(album.Entries))
	for _, e := range album.Entries {
		if e.LibraryID == "" {
			return fmt.Errorf("%w: library album %s has an entry without an id", shared.ErrInvalidSnapshot, album.LibraryID)
		}
		if seen[e.LibraryID] {
			return fmt.Errorf("%w: library album %s repeats entry id %s", shared.ErrInvalidSnapshot, album.LibraryID, e.LibraryID)
		}
		seen[e.LibraryID] = true
	}

	return nil
}

// ValidatePair checks that two snapshots form a migratable pair: different
// album versions that share no track catalog IDs. The same catalog ID on
// both sides would make an Add and a Remove of the same song meaningful,
// which this tool never intends.
func ValidatePair(source, dest *models.Album) error {
	if source == nil || dest == nil {
		return fmt.Errorf("%w: missing album snapshot", shared.ErrSnapshotPair)
	}
	if source.CatalogID != "" && source.CatalogID == dest.CatalogID {
		return fmt.Errorf("%w: source and destination are the same version (%s)", shared.ErrSnapshotPair, source.CatalogID)
	}

	sourceIDs := make(map[string]bool, len(source.Entries))
	for _, e := range source.Entries {
		if e.Track.CatalogID != "" {
			sourceIDs[e.Track.CatalogID] = true
		}
	}
	for _, t := range dest.Tracks {
		if t.CatalogID != "" && sourceIDs[t.CatalogID] {
			return fmt.Errorf("%w: track %s appears in both versions", shared.ErrSnapshotPair, t.CatalogID)
		}
	}

	return nil
}
