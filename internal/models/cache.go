package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CachedAlbum is a stored album snapshot with its raw JSON payload.
//
// Snapshots are cached so planning and review can be replayed without
// refetching, and so exports work offline.
type CachedAlbum struct {
	id           string
	sequence     int
	catalogID    string
	libraryID    string
	name         string
	artistName   string
	releaseDate  string
	trackCount   int
	snapshotJSON string
	fetchedAt    time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

var _ Model = (*CachedAlbum)(nil)

// NewCachedAlbum creates a cache entry for the given album snapshot.
func NewCachedAlbum(sequence int, album *Album) (*CachedAlbum, error) {
	data, err := json.Marshal(album)
	if err != nil {
		return nil, fmt.Errorf("failed to encode album snapshot: %w", err)
	}

	now := time.Now()
	return &CachedAlbum{
		sequence:     sequence,
		catalogID:    album.CatalogID,
		libraryID:    album.LibraryID,
		name:         album.Name,
		artistName:   album.ArtistName,
		releaseDate:  album.ReleaseDate,
		trackCount:   album.TrackCount,
		snapshotJSON: string(data),
		fetchedAt:    now,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

func (c *CachedAlbum) ID() string            { return c.id }
func (c *CachedAlbum) Sequence() int         { return c.sequence }
func (c *CachedAlbum) CatalogID() string     { return c.catalogID }
func (c *CachedAlbum) LibraryID() string     { return c.libraryID }
func (c *CachedAlbum) Name() string          { return c.name }
func (c *CachedAlbum) ArtistName() string    { return c.artistName }
func (c *CachedAlbum) ReleaseDate() string   { return c.releaseDate }
func (c *CachedAlbum) TrackCount() int       { return c.trackCount }
func (c *CachedAlbum) SnapshotJSON() string  { return c.snapshotJSON }
func (c *CachedAlbum) FetchedAt() time.Time  { return c.fetchedAt }
func (c *CachedAlbum) CreatedAt() time.Time  { return c.createdAt }
func (c *CachedAlbum) UpdatedAt() time.Time  { return c.updatedAt }
func (c *CachedAlbum) DeletedAt() *time.Time { return c.deletedAt }

func (c *CachedAlbum) SetID(id string)             { c.id = id }
func (c *CachedAlbum) SetSequence(n int)           { c.sequence = n }
func (c *CachedAlbum) SetCatalogID(id string)      { c.catalogID = id }
func (c *CachedAlbum) SetLibraryID(id string)      { c.libraryID = id }
func (c *CachedAlbum) SetName(name string)         { c.name = name }
func (c *CachedAlbum) SetArtistName(name string)   { c.artistName = name }
func (c *CachedAlbum) SetReleaseDate(date string)  { c.releaseDate = date }
func (c *CachedAlbum) SetTrackCount(n int)         { c.trackCount = n }
func (c *CachedAlbum) SetSnapshotJSON(data string) { c.snapshotJSON = data }
func (c *CachedAlbum) SetFetchedAt(t time.Time)    { c.fetchedAt = t }
func (c *CachedAlbum) SetCreatedAt(t time.Time)    { c.createdAt = t }
func (c *CachedAlbum) SetUpdatedAt(t time.Time)    { c.updatedAt = t }
func (c *CachedAlbum) SetDeletedAt(t *time.Time)   { c.deletedAt = t }

// Snapshot decodes the stored album payload.
func (c *CachedAlbum) Snapshot() (*Album, error) {
	var album Album
	if err := json.Unmarshal([]byte(c.snapshotJSON), &album); err != nil {
		return nil, fmt.Errorf("failed to decode album snapshot: %w", err)
	}
	return &album, nil
}

// Validate checks cache entry invariants before persistence.
func (c *CachedAlbum) Validate() error {
	// Library albums with no catalog relationship only carry a library id.
	if c.catalogID == "" && c.libraryID == "" {
		return fmt.Errorf("an album id is required")
	}
	if c.name == "" {
		return fmt.Errorf("album name is required")
	}
	if c.trackCount < 0 {
		return fmt.Errorf("track count cannot be negative")
	}
	if c.snapshotJSON == "" {
		return fmt.Errorf("snapshot payload is required")
	}
	return nil
}
