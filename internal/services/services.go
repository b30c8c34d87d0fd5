// package services defines the Library boundary to the host music service
// and its Apple Music implementation
package services

import (
	"context"

	"github.com/desertthunder/amx/internal/models"
)

// Library is the boundary between the matching core and the user's music
// service. It materializes immutable album snapshots for planning and
// carries out a plan's mutations one operation at a time. The core never
// talks to the network; callers re-fetch fresh snapshots before any re-run.
type Library interface {
	// CatalogAlbum fetches one catalog album with its full track listing.
	// Tracks already saved to the user's library carry their library ID.
	CatalogAlbum(ctx context.Context, catalogID string) (*models.Album, error)

	// LibraryAlbum fetches one library album with its entries and the
	// catalog release they attribute to.
	LibraryAlbum(ctx context.Context, libraryID string) (*models.Album, error)

	// AddSong saves one catalog song to the user's library.
	AddSong(ctx context.Context, catalogID string) error

	// RemoveEntry deletes one entry from the user's library.
	RemoveEntry(ctx context.Context, libraryID string) error

	// Storefront returns the two-letter storefront the client is bound to.
	Storefront() string

	// Name returns the service name (e.g. "Apple Music")
	Name() string
}
