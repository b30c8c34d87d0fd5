package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// AlbumRepository implements models.Repository[*models.CachedAlbum] for snapshot caching.
//
// Handles cached album CRUD operations with soft delete support and lookups
// by catalog or library identifier.
type AlbumRepository struct {
	db *sql.DB
}

// NewAlbumRepository creates a new AlbumRepository with the given database connection
func NewAlbumRepository(db *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// Create inserts a new cached album into the database with generated ID and sequence
func (r *AlbumRepository) Create(cached *models.CachedAlbum) error {
	sequence, err := NextSequence(r.db, "albums")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	cached.SetID(id)

	if err := cached.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO albums (
			id, sequence, catalog_id, library_id, name, artist_name,
			release_date, track_count, snapshot_json, fetched_at,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var libraryID any = cached.LibraryID()
	if libraryID == "" {
		libraryID = nil
	}

	var artistName any = cached.ArtistName()
	if artistName == "" {
		artistName = nil
	}

	var releaseDate any = cached.ReleaseDate()
	if releaseDate == "" {
		releaseDate = nil
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		cached.CatalogID(),
		libraryID,
		cached.Name(),
		artistName,
		releaseDate,
		cached.TrackCount(),
		cached.SnapshotJSON(),
		cached.FetchedAt(),
		cached.CreatedAt(),
		cached.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cached album: %w", err)
	}

	return nil
}

// Get retrieves a cached album by ID, excluding soft-deleted entries
func (r *AlbumRepository) Get(id string) (*models.CachedAlbum, error) {
	query := `
		SELECT
			id, sequence, catalog_id, library_id, name, artist_name,
			release_date, track_count, snapshot_json, fetched_at,
			created_at, updated_at, deleted_at
		FROM albums
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByAlbumID retrieves the most recent cached snapshot whose catalog or
// library identifier matches the given album ID.
func (r *AlbumRepository) GetByAlbumID(albumID string) (*models.CachedAlbum, error) {
	query := `
		SELECT
			id, sequence, catalog_id, library_id, name, artist_name,
			release_date, track_count, snapshot_json, fetched_at,
			created_at, updated_at, deleted_at
		FROM albums
		WHERE (catalog_id = ? OR library_id = ?) AND deleted_at IS NULL
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRow(query, albumID, albumID))
}

// Update modifies an existing cached album in the database
func (r *AlbumRepository) Update(cached *models.CachedAlbum) error {
	if err := cached.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	cached.SetUpdatedAt(now)

	query := `
		UPDATE albums
		SET catalog_id = ?, library_id = ?, name = ?, artist_name = ?,
			release_date = ?, track_count = ?, snapshot_json = ?,
			fetched_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	var libraryID any = cached.LibraryID()
	if libraryID == "" {
		libraryID = nil
	}

	var artistName any = cached.ArtistName()
	if artistName == "" {
		artistName = nil
	}

	var releaseDate any = cached.ReleaseDate()
	if releaseDate == "" {
		releaseDate = nil
	}

	result, err := r.db.Exec(query,
		cached.CatalogID(),
		libraryID,
		cached.Name(),
		artistName,
		releaseDate,
		cached.TrackCount(),
		cached.SnapshotJSON(),
		cached.FetchedAt(),
		now,
		cached.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update cached album: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, cached.ID())
	}

	return nil
}

// Delete soft-deletes a cached album by ID
func (r *AlbumRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE albums
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete cached album: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, id)
	}

	return nil
}

// List retrieves all cached albums matching the given criteria, excluding
// soft-deleted entries. Newest entries come first.
func (r *AlbumRepository) List(criteria map[string]any) ([]*models.CachedAlbum, error) {
	query := `
		SELECT
			id, sequence, catalog_id, library_id, name, artist_name,
			release_date, track_count, snapshot_json, fetched_at,
			created_at, updated_at, deleted_at
		FROM albums
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if catalogID, ok := criteria["catalog_id"].(string); ok && catalogID != "" {
		query += " AND catalog_id = ?"
		args = append(args, catalogID)
	}

	if libraryID, ok := criteria["library_id"].(string); ok && libraryID != "" {
		query += " AND library_id = ?"
		args = append(args, libraryID)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached albums: %w", err)
	}
	defer rows.Close()

	var albums []*models.CachedAlbum
	for rows.Next() {
		cached, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, cached)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return albums, nil
}

// scanOne scans a single [sql.Row] into a [models.CachedAlbum]
func (r *AlbumRepository) scanOne(row *sql.Row) (*models.CachedAlbum, error) {
	var (
		id           string
		sequence     int
		catalogID    string
		libraryID    sql.NullString
		name         string
		artistName   sql.NullString
		releaseDate  sql.NullString
		trackCount   int
		snapshotJSON string
		fetchedAt    time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &catalogID, &libraryID, &name, &artistName,
		&releaseDate, &trackCount, &snapshotJSON, &fetchedAt,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, shared.ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached album: %w", err)
	}

	cached := &models.CachedAlbum{}
	cached.SetID(id)
	cached.SetSequence(sequence)
	cached.SetCatalogID(catalogID)
	cached.SetName(name)
	cached.SetTrackCount(trackCount)
	cached.SetSnapshotJSON(snapshotJSON)
	cached.SetFetchedAt(fetchedAt)
	cached.SetCreatedAt(createdAt)
	cached.SetUpdatedAt(updatedAt)

	if libraryID.Valid {
		cached.SetLibraryID(libraryID.String)
	}
	if artistName.Valid {
		cached.SetArtistName(artistName.String)
	}
	if releaseDate.Valid {
		cached.SetReleaseDate(releaseDate.String)
	}
	if deletedAt.Valid {
		cached.SetDeletedAt(&deletedAt.Time)
	}

	return cached, nil
}

// scanRow scans a row from [sql.Rows] into a [models.CachedAlbum]
func (r *AlbumRepository) scanRow(rows *sql.Rows) (*models.CachedAlbum, error) {
	var (
		id           string
		sequence     int
		catalogID    string
		libraryID    sql.NullString
		name         string
		artistName   sql.NullString
		releaseDate  sql.NullString
		trackCount   int
		snapshotJSON string
		fetchedAt    time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := rows.Scan(
		&id, &sequence, &catalogID, &libraryID, &name, &artistName,
		&releaseDate, &trackCount, &snapshotJSON, &fetchedAt,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached album: %w", err)
	}

	cached := &models.CachedAlbum{}
	cached.SetID(id)
	cached.SetSequence(sequence)
	cached.SetCatalogID(catalogID)
	cached.SetName(name)
	cached.SetTrackCount(trackCount)
	cached.SetSnapshotJSON(snapshotJSON)
	cached.SetFetchedAt(fetchedAt)
	cached.SetCreatedAt(createdAt)
	cached.SetUpdatedAt(updatedAt)

	if libraryID.Valid {
		cached.SetLibraryID(libraryID.String)
	}
	if artistName.Valid {
		cached.SetArtistName(artistName.String)
	}
	if releaseDate.Valid {
		cached.SetReleaseDate(releaseDate.String)
	}
	if deletedAt.Valid {
		cached.SetDeletedAt(&deletedAt.Time)
	}

	return cached, nil
}
