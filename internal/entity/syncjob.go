package entity

import (
	"time"

	"github.com/google/uuid"
)

type SyncJobStatus string

const (
	SyncStatusQueued    SyncJobStatus = "QUEUED"
	SyncStatusRunning   SyncJobStatus = "RUNNING"
	SyncStatusCompleted SyncJobStatus = "COMPLETED"
	SyncStatusFailed    SyncJobStatus = "FAILED"
)

// ActiveSyncStatuses are the states in which a job owns the sweep.
// At most one job may be in one of these states at a time.
var ActiveSyncStatuses = []SyncJobStatus{SyncStatusQueued, SyncStatusRunning}

// SyncJob is the persisted ledger for one sweep over the stale-artist
// population. It is the single source of truth for sweep progress: worker
// invocations are stateless and coordinate only through this row.
type SyncJob struct {
	ID        uuid.UUID     `json:"id"`
	Status    SyncJobStatus `json:"status"`
	Total     int           `json:"total"`
	Synced    int           `json:"synced"`
	Failed    int           `json:"failed"`
	BatchSize int           `json:"batch_size"`

	// Cursor is the id of the last artist handed to a batch. Batch
	// selection resumes strictly after it, so a sweep never repeats rows.
	Cursor *uuid.UUID `json:"cursor,omitempty"`

	// RequestedBy is nil for cron-created jobs.
	RequestedBy *string `json:"requested_by,omitempty"`
	LastError   *string `json:"last_error,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Active reports whether the job still owns the sweep.
func (j *SyncJob) Active() bool {
	return j.Status == SyncStatusQueued || j.Status == SyncStatusRunning
}
