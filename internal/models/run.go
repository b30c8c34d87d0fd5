package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Migration run statuses.
const (
	RunStatusPlanned = "planned"
	RunStatusApplied = "applied"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// MigrationRun tracks one planned or executed album migration.
//
// A run is created when a plan is built and updated as the executor applies
// operations, so interrupted runs keep their partial counts.
type MigrationRun struct {
	id             string
	sequence       int
	sourceAlbumID  string
	destAlbumID    string
	sourceName     string
	destName       string
	storefront     string
	status         string
	addsPlanned    int
	removesPlanned int
	addsApplied    int
	removesApplied int
	warningCount   int
	planJSON       string
	errorMessage   string
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

var _ Model = (*MigrationRun)(nil)

// NewMigrationRun creates a run in the planned state for the given album pair.
func NewMigrationRun(sequence int, sourceAlbumID, destAlbumID string) *MigrationRun {
	now := time.Now()
	return &MigrationRun{
		sequence:      sequence,
		sourceAlbumID: sourceAlbumID,
		destAlbumID:   destAlbumID,
		status:        RunStatusPlanned,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (m *MigrationRun) ID() string            { return m.id }
func (m *MigrationRun) Sequence() int         { return m.sequence }
func (m *MigrationRun) SourceAlbumID() string { return m.sourceAlbumID }
func (m *MigrationRun) DestAlbumID() string   { return m.destAlbumID }
func (m *MigrationRun) SourceName() string    { return m.sourceName }
func (m *MigrationRun) DestName() string      { return m.destName }
func (m *MigrationRun) Storefront() string    { return m.storefront }
func (m *MigrationRun) Status() string        { return m.status }
func (m *MigrationRun) AddsPlanned() int      { return m.addsPlanned }
func (m *MigrationRun) RemovesPlanned() int   { return m.removesPlanned }
func (m *MigrationRun) AddsApplied() int      { return m.addsApplied }
func (m *MigrationRun) RemovesApplied() int   { return m.removesApplied }
func (m *MigrationRun) WarningCount() int     { return m.warningCount }
func (m *MigrationRun) PlanJSON() string      { return m.planJSON }
func (m *MigrationRun) ErrorMessage() string  { return m.errorMessage }
func (m *MigrationRun) CreatedAt() time.Time  { return m.createdAt }
func (m *MigrationRun) UpdatedAt() time.Time  { return m.updatedAt }
func (m *MigrationRun) DeletedAt() *time.Time { return m.deletedAt }

func (m *MigrationRun) SetID(id string)            { m.id = id }
func (m *MigrationRun) SetSourceName(name string)  { m.sourceName = name }
func (m *MigrationRun) SetDestName(name string)    { m.destName = name }
func (m *MigrationRun) SetStorefront(sf string)    { m.storefront = sf }
func (m *MigrationRun) SetStatus(status string)    { m.status = status }
func (m *MigrationRun) SetAddsPlanned(n int)       { m.addsPlanned = n }
func (m *MigrationRun) SetRemovesPlanned(n int)    { m.removesPlanned = n }
func (m *MigrationRun) SetAddsApplied(n int)       { m.addsApplied = n }
func (m *MigrationRun) SetRemovesApplied(n int)    { m.removesApplied = n }
func (m *MigrationRun) SetWarningCount(n int)      { m.warningCount = n }
func (m *MigrationRun) SetPlanJSON(data string)    { m.planJSON = data }
func (m *MigrationRun) SetErrorMessage(msg string) { m.errorMessage = msg }
func (m *MigrationRun) SetCreatedAt(t time.Time)   { m.createdAt = t }
func (m *MigrationRun) SetUpdatedAt(t time.Time)   { m.updatedAt = t }
func (m *MigrationRun) SetDeletedAt(t *time.Time)  { m.deletedAt = t }

// Validate checks run invariants before persistence.
func (m *MigrationRun) Validate() error {
	if m.sourceAlbumID == "" {
		return fmt.Errorf("source album id is required")
	}
	if m.destAlbumID == "" {
		return fmt.Errorf("destination album id is required")
	}
	switch m.status {
	case RunStatusPlanned, RunStatusApplied, RunStatusPartial, RunStatusFailed:
	default:
		return fmt.Errorf("invalid run status: %s", m.status)
	}
	if m.addsPlanned < 0 || m.removesPlanned < 0 {
		return fmt.Errorf("planned operation counts cannot be negative")
	}
	if m.addsApplied < 0 || m.removesApplied < 0 {
		return fmt.Errorf("applied operation counts cannot be negative")
	}
	if m.addsApplied > m.addsPlanned || m.removesApplied > m.removesPlanned {
		return fmt.Errorf("applied operation counts cannot exceed planned counts")
	}
	return nil
}

// MarshalJSON exposes the run's recorded fields, which are unexported for
// persistence encapsulation. The stored plan JSON is omitted; callers that
// want it read PlanJSON directly.
func (m *MigrationRun) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID             string    `json:"id"`
		Sequence       int       `json:"sequence"`
		SourceAlbumID  string    `json:"source_album_id"`
		DestAlbumID    string    `json:"dest_album_id"`
		SourceName     string    `json:"source_name,omitempty"`
		DestName       string    `json:"dest_name,omitempty"`
		Storefront     string    `json:"storefront,omitempty"`
		Status         string    `json:"status"`
		AddsPlanned    int       `json:"adds_planned"`
		RemovesPlanned int       `json:"removes_planned"`
		AddsApplied    int       `json:"adds_applied"`
		RemovesApplied int       `json:"removes_applied"`
		WarningCount   int       `json:"warning_count"`
		Error          string    `json:"error,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}{
		ID:             m.id,
		Sequence:       m.sequence,
		SourceAlbumID:  m.sourceAlbumID,
		DestAlbumID:    m.destAlbumID,
		SourceName:     m.sourceName,
		DestName:       m.destName,
		Storefront:     m.storefront,
		Status:         m.status,
		AddsPlanned:    m.addsPlanned,
		RemovesPlanned: m.removesPlanned,
		AddsApplied:    m.addsApplied,
		RemovesApplied: m.removesApplied,
		WarningCount:   m.warningCount,
		Error:          m.errorMessage,
		CreatedAt:      m.createdAt,
		UpdatedAt:      m.updatedAt,
	})
}
