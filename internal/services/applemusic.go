// Apple Music implementation of [Library]
//
// Response shapes follow the amp-api storefront service: every lookup wraps
// its records in a data array, track listings hang off a relationships
// object, and long listings paginate through next links.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	appleMusicBaseURL        = "https://amp-api.music.apple.com"
	defaultStorefront        = "us"
	defaultRequestsPerSecond = 10.0
	defaultTimeoutSeconds    = 30
)

// errStatusNotFound lets callers translate a bare 404 into the resource
// that was actually missing.
var errStatusNotFound = fmt.Errorf("%w: status 404", shared.ErrAPIRequest)

type artwork struct {
	URL string `json:"url"`
}

type playParams struct {
	ID        string `json:"id"`
	CatalogID string `json:"catalogId"`
}

type songAttributes struct {
	Name             string     `json:"name"`
	ArtistName       string     `json:"artistName"`
	DiscNumber       int        `json:"discNumber"`
	TrackNumber      int        `json:"trackNumber"`
	DurationInMillis int        `json:"durationInMillis"`
	ISRC             string     `json:"isrc"`
	ContentRating    string     `json:"contentRating"`
	DateAdded        string     `json:"dateAdded"`
	PlayParams       playParams `json:"playParams"`
}

type albumAttributes struct {
	Name        string  `json:"name"`
	ArtistName  string  `json:"artistName"`
	ReleaseDate string  `json:"releaseDate"`
	TrackCount  int     `json:"trackCount"`
	Artwork     artwork `json:"artwork"`
}

type resourceRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type refRelationship struct {
	Data []resourceRef `json:"data"`
}

type songResource struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Attributes    songAttributes `json:"attributes"`
	Relationships struct {
		Library refRelationship `json:"library"`
	} `json:"relationships"`
}

type trackRelationship struct {
	Data []songResource `json:"data"`
	Next string         `json:"next"`
}

type albumResource struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Attributes    albumAttributes `json:"attributes"`
	Relationships struct {
		Tracks  trackRelationship `json:"tracks"`
		Catalog refRelationship   `json:"catalog"`
	} `json:"relationships"`
}

type albumResponse struct {
	Data []albumResource `json:"data"`
}

// AppleMusicService implements the Library interface for Apple Music API
// interactions. The developer token rides on every request as a Bearer
// header through a static [oauth2] token source; library endpoints also
// send the Media-User-Token header. A client-level [rate.Limiter] paces
// all requests.
type AppleMusicService struct {
	baseURL    string
	storefront string
	userToken  string
	origin     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAppleMusicService creates an Apple Music service from the loaded
// configuration. The developer token is required; the user token may be
// absent, which limits the service to catalog reads.
func NewAppleMusicService(config *shared.Config) (*AppleMusicService, error) {
	creds := config.Credentials.AppleMusic
	if creds.DeveloperToken == "" {
		return nil, fmt.Errorf("%w: developer token", shared.ErrMissingCredentials)
	}
	if err := ValidateDeveloperToken(creds.DeveloperToken); err != nil {
		return nil, err
	}

	storefront := creds.Storefront
	if storefront == "" {
		storefront = defaultStorefront
	}
	if err := ValidateStorefront(storefront); err != nil {
		return nil, err
	}

	baseURL := config.API.BaseURL
	if baseURL == "" {
		baseURL = appleMusicBaseURL
	}

	rps := config.API.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	timeout := config.API.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds.DeveloperToken,
		TokenType:   "Bearer",
	})
	client := oauth2.NewClient(context.Background(), source)
	client.Timeout = time.Duration(timeout) * time.Second

	return &AppleMusicService{
		baseURL:    baseURL,
		storefront: storefront,
		userToken:  creds.UserToken,
		origin:     creds.Origin,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (s *AppleMusicService) Name() string {
	return "Apple Music"
}

func (s *AppleMusicService) Storefront() string {
	return s.storefront
}

// doRequest performs a rate-limited request against the Apple Music API.
func (s *AppleMusicService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if s.origin != "" {
		req.Header.Set("Origin", s.origin)
	}
	if s.userToken != "" {
		req.Header.Set("Media-User-Token", s.userToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", shared.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return errStatusNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// singleAlbum enforces the one-record shape of an album lookup and checks
// that the record is the one that was asked for.
func singleAlbum(response albumResponse, id string) (albumResource, error) {
	if len(response.Data) != 1 {
		return albumResource{}, fmt.Errorf("%w: expected one record for album %s, got %d",
			shared.ErrInvalidSnapshot, id, len(response.Data))
	}
	if response.Data[0].ID != id {
		return albumResource{}, fmt.Errorf("%w: requested album %s but received %s",
			shared.ErrInvalidSnapshot, id, response.Data[0].ID)
	}
	return response.Data[0], nil
}

// collectTracks drains a track relationship, following next links until the
// listing is complete.
func (s *AppleMusicService) collectTracks(ctx context.Context, rel trackRelationship) ([]songResource, error) {
	songs := rel.Data
	next := rel.Next

	for next != "" {
		var page trackRelationship
		if err := s.doRequest(ctx, http.MethodGet, next, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch track page: %w", err)
		}
		songs = append(songs, page.Data...)
		next = page.Next
	}

	return songs, nil
}

func catalogTrack(song songResource, albumID string) models.Track {
	t := models.Track{
		CatalogID:   song.ID,
		AlbumID:     albumID,
		Title:       song.Attributes.Name,
		ArtistName:  song.Attributes.ArtistName,
		DiscNumber:  song.Attributes.DiscNumber,
		TrackNumber: song.Attributes.TrackNumber,
		Duration:    song.Attributes.DurationInMillis / 1000,
		ISRC:        song.Attributes.ISRC,
		Explicit:    song.Attributes.ContentRating == "explicit",
	}
	if refs := song.Relationships.Library.Data; len(refs) > 0 {
		t.LibraryID = refs[0].ID
	}
	return t
}

func libraryTrack(song songResource, albumID string) models.Track {
	return models.Track{
		CatalogID:   song.Attributes.PlayParams.CatalogID,
		LibraryID:   song.ID,
		AlbumID:     albumID,
		Title:       song.Attributes.Name,
		ArtistName:  song.Attributes.ArtistName,
		DiscNumber:  song.Attributes.DiscNumber,
		TrackNumber: song.Attributes.TrackNumber,
		Duration:    song.Attributes.DurationInMillis / 1000,
		Explicit:    song.Attributes.ContentRating == "explicit",
	}
}

// CatalogAlbum fetches one album version from the storefront catalog.
//
// When a user token is configured the song resources include their library
// relationship, so tracks the user already saved carry a library ID. The
// snapshot is validated before it is returned.
func (s *AppleMusicService) CatalogAlbum(ctx context.Context, catalogID string) (*models.Album, error) {
	if err := ValidateCatalogID(catalogID); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/v1/catalog/%s/albums/%s?include=tracks&include[songs]=library",
		s.storefront, url.PathEscape(catalogID))

	var response albumResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		if errors.Is(err, errStatusNotFound) {
			return nil, fmt.Errorf("%w: catalog album %s", shared.ErrAlbumNotFound, catalogID)
		}
		return nil, err
	}

	resource, err := singleAlbum(response, catalogID)
	if err != nil {
		return nil, err
	}

	songs, err := s.collectTracks(ctx, resource.Relationships.Tracks)
	if err != nil {
		return nil, err
	}

	album := &models.Album{
		CatalogID:   resource.ID,
		Name:        resource.Attributes.Name,
		ArtistName:  resource.Attributes.ArtistName,
		ReleaseDate: resource.Attributes.ReleaseDate,
		ArtworkURL:  resource.Attributes.Artwork.URL,
		TrackCount:  resource.Attributes.TrackCount,
		Tracks:      make([]models.Track, 0, len(songs)),
	}
	for _, song := range songs {
		album.Tracks = append(album.Tracks, catalogTrack(song, resource.ID))
	}

	if err := ValidateCatalogSnapshot(album); err != nil {
		return nil, err
	}

	return album, nil
}

// LibraryAlbum fetches the user's saved copy of an album, one entry per
// library copy, with the catalog relationship resolved so every entry's
// track carries its catalog ID. Requires the user token.
func (s *AppleMusicService) LibraryAlbum(ctx context.Context, libraryID string) (*models.Album, error) {
	if err := ValidateLibraryAlbumID(libraryID); err != nil {
		return nil, err
	}
	if s.userToken == "" {
		return nil, fmt.Errorf("%w: user token required for library reads", shared.ErrNotAuthenticated)
	}

	endpoint := fmt.Sprintf("/v1/me/library/albums/%s?include=catalog,tracks", url.PathEscape(libraryID))

	var response albumResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		if errors.Is(err, errStatusNotFound) {
			return nil, fmt.Errorf("%w: library album %s", shared.ErrAlbumNotFound, libraryID)
		}
		return nil, err
	}

	resource, err := singleAlbum(response, libraryID)
	if err != nil {
		return nil, err
	}

	songs, err := s.collectTracks(ctx, resource.Relationships.Tracks)
	if err != nil {
		return nil, err
	}

	album := &models.Album{
		LibraryID:  resource.ID,
		Name:       resource.Attributes.Name,
		ArtistName: resource.Attributes.ArtistName,
		ArtworkURL: resource.Attributes.Artwork.URL,
		TrackCount: resource.Attributes.TrackCount,
		Entries:    make([]models.LibraryEntry, 0, len(songs)),
	}
	if refs := resource.Relationships.Catalog.Data; len(refs) > 0 {
		album.CatalogID = refs[0].ID
	}

	for _, song := range songs {
		album.Entries = append(album.Entries, models.LibraryEntry{
			LibraryID: song.ID,
			AlbumID:   resource.ID,
			AddedAt:   song.Attributes.DateAdded,
			Track:     libraryTrack(song, resource.ID),
		})
	}

	if err := ValidateLibrarySnapshot(album); err != nil {
		return nil, err
	}

	return album, nil
}

// AddSong saves one catalog song to the user's library. The API acknowledges
// with 202 and an empty body. Requires the user token.
func (s *AppleMusicService) AddSong(ctx context.Context, catalogID string) error {
	if err := ValidateCatalogID(catalogID); err != nil {
		return err
	}
	if s.userToken == "" {
		return fmt.Errorf("%w: user token required for library writes", shared.ErrNotAuthenticated)
	}

	endpoint := fmt.Sprintf("/v1/me/library?ids[songs]=%s", url.QueryEscape(catalogID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, nil); err != nil {
		if errors.Is(err, errStatusNotFound) {
			return fmt.Errorf("%w: catalog song %s", shared.ErrTrackNotFound, catalogID)
		}
		return err
	}

	return nil
}

// RemoveEntry deletes one library entry. Removing a single copy leaves any
// other copies of the same song in place. Requires the user token.
func (s *AppleMusicService) RemoveEntry(ctx context.Context, libraryID string) error {
	if err := ValidateLibrarySongID(libraryID); err != nil {
		return err
	}
	if s.userToken == "" {
		return fmt.Errorf("%w: user token required for library writes", shared.ErrNotAuthenticated)
	}

	endpoint := fmt.Sprintf("/v1/me/library/songs/%s", url.PathEscape(libraryID))
	if err := s.doRequest(ctx, http.MethodDelete, endpoint, nil); err != nil {
		if errors.Is(err, errStatusNotFound) {
			return fmt.Errorf("%w: library entry %s", shared.ErrTrackNotFound, libraryID)
		}
		return err
	}

	return nil
}
