package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// RunRepository implements models.Repository[*models.MigrationRun] for run history.
//
// Handles run CRUD operations with soft delete support and status-based queries.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new migration run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.MigrationRun) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, sequence, source_album_id, dest_album_id, source_name,
			dest_name, storefront, status, adds_planned, removes_planned,
			adds_applied, removes_applied, warning_count, plan_json, error,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var planJSON any = run.PlanJSON()
	if planJSON == "" {
		planJSON = nil
	}

	var errorMessage any = run.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.SourceAlbumID(),
		run.DestAlbumID(),
		run.SourceName(),
		run.DestName(),
		run.Storefront(),
		run.Status(),
		run.AddsPlanned(),
		run.RemovesPlanned(),
		run.AddsApplied(),
		run.RemovesApplied(),
		run.WarningCount(),
		planJSON,
		errorMessage,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a migration run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.MigrationRun, error) {
	query := `
		SELECT
			id, sequence, source_album_id, dest_album_id, source_name,
			dest_name, storefront, status, adds_planned, removes_planned,
			adds_applied, removes_applied, warning_count, plan_json, error,
			created_at, updated_at, deleted_at
		FROM runs
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing migration run in the database
func (r *RunRepository) Update(run *models.MigrationRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET status = ?, adds_planned = ?, removes_planned = ?,
			adds_applied = ?, removes_applied = ?, warning_count = ?,
			plan_json = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	var planJSON any = run.PlanJSON()
	if planJSON == "" {
		planJSON = nil
	}

	var errorMessage any = run.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	result, err := r.db.Exec(query,
		run.Status(),
		run.AddsPlanned(),
		run.RemovesPlanned(),
		run.AddsApplied(),
		run.RemovesApplied(),
		run.WarningCount(),
		planJSON,
		errorMessage,
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a migration run by ID
func (r *RunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

// List retrieves all migration runs matching the given criteria, excluding
// soft-deleted runs. Newest runs come first.
func (r *RunRepository) List(criteria map[string]any) ([]*models.MigrationRun, error) {
	query := `
		SELECT
			id, sequence, source_album_id, dest_album_id, source_name,
			dest_name, storefront, status, adds_planned, removes_planned,
			adds_applied, removes_applied, warning_count, plan_json, error,
			created_at, updated_at, deleted_at
		FROM runs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if storefront, ok := criteria["storefront"].(string); ok && storefront != "" {
		query += " AND storefront = ?"
		args = append(args, storefront)
	}

	if sourceAlbumID, ok := criteria["source_album_id"].(string); ok && sourceAlbumID != "" {
		query += " AND source_album_id = ?"
		args = append(args, sourceAlbumID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.MigrationRun
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanOne scans a single [sql.Row] into a [models.MigrationRun]
func (r *RunRepository) scanOne(row *sql.Row) (*models.MigrationRun, error) {
	var (
		id             string
		sequence       int
		sourceAlbumID  string
		destAlbumID    string
		sourceName     sql.NullString
		destName       sql.NullString
		storefront     sql.NullString
		status         string
		addsPlanned    int
		removesPlanned int
		addsApplied    int
		removesApplied int
		warningCount   int
		planJSON       sql.NullString
		errorMessage   sql.NullString
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &sourceAlbumID, &destAlbumID, &sourceName,
		&destName, &storefront, &status, &addsPlanned, &removesPlanned,
		&addsApplied, &removesApplied, &warningCount, &planJSON,
		&errorMessage, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, shared.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewMigrationRun(sequence, sourceAlbumID, destAlbumID)
	run.SetID(id)
	run.SetStatus(status)
	run.SetAddsPlanned(addsPlanned)
	run.SetRemovesPlanned(removesPlanned)
	run.SetAddsApplied(addsApplied)
	run.SetRemovesApplied(removesApplied)
	run.SetWarningCount(warningCount)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)

	if sourceName.Valid {
		run.SetSourceName(sourceName.String)
	}
	if destName.Valid {
		run.SetDestName(destName.String)
	}
	if storefront.Valid {
		run.SetStorefront(storefront.String)
	}
	if planJSON.Valid {
		run.SetPlanJSON(planJSON.String)
	}
	if errorMessage.Valid {
		run.SetErrorMessage(errorMessage.String)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

// scanRow scans a row from [sql.Rows] into a [models.MigrationRun]
func (r *RunRepository) scanRow(rows *sql.Rows) (*models.MigrationRun, error) {
	var (
		id             string
		sequence       int
		sourceAlbumID  string
		destAlbumID    string
		sourceName     sql.NullString
		destName       sql.NullString
		storefront     sql.NullString
		status         string
		addsPlanned    int
		removesPlanned int
		addsApplied    int
		removesApplied int
		warningCount   int
		planJSON       sql.NullString
		errorMessage   sql.NullString
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	err := rows.Scan(
		&id, &sequence, &sourceAlbumID, &destAlbumID, &sourceName,
		&destName, &storefront, &status, &addsPlanned, &removesPlanned,
		&addsApplied, &removesApplied, &warningCount, &planJSON,
		&errorMessage, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewMigrationRun(sequence, sourceAlbumID, destAlbumID)
	run.SetID(id)
	run.SetStatus(status)
	run.SetAddsPlanned(addsPlanned)
	run.SetRemovesPlanned(removesPlanned)
	run.SetAddsApplied(addsApplied)
	run.SetRemovesApplied(removesApplied)
	run.SetWarningCount(warningCount)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)

	if sourceName.Valid {
		run.SetSourceName(sourceName.String)
	}
	if destName.Valid {
		run.SetDestName(destName.String)
	}
	if storefront.Valid {
		run.SetStorefront(storefront.String)
	}
	if planJSON.Valid {
		run.SetPlanJSON(planJSON.String)
	}
	if errorMessage.Valid {
		run.SetErrorMessage(errorMessage.String)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
