package domain

import (
	"time"

	"github.com/google/uuid"
)

// Student is a canonical roster entry. The portal is the sole authority for
// identity and active status; records here are upserted by the roster sync
// and read-only everywhere else.
type Student struct {
	ID           uuid.UUID  `json:"id"`
	ClickeduID   int64      `json:"clickedu_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	ClassID      int        `json:"class_id"`
	ClassName    string     `json:"class_name"`
	IsActive     bool       `json:"is_active"`
	ListSyncedAt *time.Time `json:"list_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ScrapedStudent is one row parsed out of the portal's listing table,
// before reconciliation against the stored roster.
type ScrapedStudent struct {
	ClickeduID int64  `json:"clickedu_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ClassID    int    `json:"class_id"`
	ClassName  string `json:"class_name"`
}

// SchoolYear is the recurring period that scopes yearly and support records.
type SchoolYear struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	IsCurrent bool      `json:"is_current"`
}

// RosterSyncStatus is the overall outcome of one roster sync run.
type RosterSyncStatus string

const (
	RosterSyncCompleted RosterSyncStatus = "completed"
	RosterSyncPartial   RosterSyncStatus = "partial"
	RosterSyncFailed    RosterSyncStatus = "failed"
)

// RosterError records one failed per-student upsert within a sync run.
type RosterError struct {
	ClickeduID int64  `json:"clickedu_id"`
	Error      string `json:"error"`
}

// RosterSyncResult summarizes one roster sync run.
type RosterSyncResult struct {
	Status        RosterSyncStatus `json:"status"`
	StudentsFound int              `json:"students_found"`
	RecordsOk     int              `json:"records_ok"`
	RecordsError  int              `json:"records_error"`
	Deactivated   int              `json:"deactivated"`
	DurationMs    int64            `json:"duration_ms"`
	Errors        []RosterError    `json:"errors,omitempty"`
}

// SyncLog is the persisted audit row for a sync run attempt, written on
// every outcome including top-level failures.
type SyncLog struct {
	ID           uuid.UUID        `json:"id"`
	SyncType     string           `json:"sync_type"`
	Status       RosterSyncStatus `json:"status"`
	RecordsTotal int              `json:"records_total"`
	RecordsOk    int              `json:"records_ok"`
	RecordsError int              `json:"records_error"`
	DurationMs   int64            `json:"duration_ms"`
	ErrorDetails any              `json:"error_details,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
