package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/models"
)

// AlbumCacheAdapter implements tasks.AlbumCacher using AlbumRepository.
//
// Provides automatic snapshot caching after album fetches. A refetch of the
// same album version refreshes its existing row instead of inserting a
// duplicate, so the cache always holds the latest snapshot per version.
type AlbumCacheAdapter struct {
	repo *AlbumRepository
}

// NewAlbumCacheAdapter creates a new AlbumCacheAdapter with the given repository
func NewAlbumCacheAdapter(repo *AlbumRepository) *AlbumCacheAdapter {
	return &AlbumCacheAdapter{repo: repo}
}

// CacheAlbum stores or refreshes the cached snapshot for an album version.
// Library and catalog views of the same version are cached as separate rows
// because they carry different track data.
func (a *AlbumCacheAdapter) CacheAlbum(album *models.Album) error {
	if album == nil {
		return fmt.Errorf("failed to cache album: no snapshot")
	}
	if album.CatalogID == "" && album.LibraryID == "" {
		return fmt.Errorf("failed to cache album: no album identifier")
	}

	existing := a.findExisting(album)
	if existing != nil {
		data, err := json.Marshal(album)
		if err != nil {
			return fmt.Errorf("failed to encode album snapshot: %w", err)
		}

		// A library refetch can lose the catalog relationship; keep the known id.
		if album.CatalogID != "" {
			existing.SetCatalogID(album.CatalogID)
		}
		existing.SetName(album.Name)
		existing.SetArtistName(album.ArtistName)
		existing.SetReleaseDate(album.ReleaseDate)
		existing.SetTrackCount(album.TrackCount)
		existing.SetSnapshotJSON(string(data))
		existing.SetFetchedAt(time.Now())

		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached album: %w", err)
		}
		return nil
	}

	cached, err := models.NewCachedAlbum(0, album)
	if err != nil {
		return fmt.Errorf("failed to cache album: %w", err)
	}

	if err := a.repo.Create(cached); err != nil {
		return fmt.Errorf("failed to cache album: %w", err)
	}

	return nil
}

// findExisting locates the cached row holding the same view of the same album
// version, or nil when this view has not been cached yet. A library view and
// a catalog view can share a catalog id, so rows are matched on the library
// id as well.
func (a *AlbumCacheAdapter) findExisting(album *models.Album) *models.CachedAlbum {
	criteria := map[string]any{"catalog_id": album.CatalogID}
	if album.LibraryID != "" {
		criteria = map[string]any{"library_id": album.LibraryID}
	}

	rows, err := a.repo.List(criteria)
	if err != nil {
		return nil
	}

	for _, row := range rows {
		if row.LibraryID() == album.LibraryID {
			return row
		}
	}

	return nil
}
