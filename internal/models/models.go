// package models defines the data model for the album migration tool
package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the album migration tool.
// Implementations include MigrationRun and CachedAlbum.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Track is a single track of an album version as the catalog describes it.
//
// LibraryID is set when the user's library already contains this catalog
// track, which lets planning skip adds that have already happened.
type Track struct {
	CatalogID   string `json:"catalog_id"`
	LibraryID   string `json:"library_id,omitempty"`
	AlbumID     string `json:"album_id,omitempty"`
	Title       string `json:"title"`
	ArtistName  string `json:"artist_name"`
	DiscNumber  int    `json:"disc_number"`
	TrackNumber int    `json:"track_number"`
	Duration    int    `json:"duration"` // whole seconds, 0 when unknown
	ISRC        string `json:"isrc,omitempty"`
	Explicit    bool   `json:"explicit,omitempty"`
}

// LibraryEntry is one copy of a track in the user's library.
//
// The same catalog track can appear more than once when the user added it
// repeatedly, so entries carry their own library identifier.
type LibraryEntry struct {
	LibraryID string `json:"library_id"`
	AlbumID   string `json:"album_id,omitempty"`
	AddedAt   string `json:"added_at,omitempty"`
	Track     Track  `json:"track"`
}

// Album is a point-in-time snapshot of one album version.
//
// Catalog snapshots populate Tracks. Library snapshots also populate Entries,
// one per library copy, which is where duplicates show up.
type Album struct {
	CatalogID   string         `json:"catalog_id"`
	LibraryID   string         `json:"library_id,omitempty"`
	Name        string         `json:"name"`
	ArtistName  string         `json:"artist_name"`
	ReleaseDate string         `json:"release_date,omitempty"`
	ArtworkURL  string         `json:"artwork_url,omitempty"`
	TrackCount  int            `json:"track_count"`
	Tracks      []Track        `json:"tracks"`
	Entries     []LibraryEntry `json:"entries,omitempty"`
}
