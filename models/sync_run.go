package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncRunStatus represents the lifecycle state of a sync run
type SyncRunStatus string

const (
	SyncRunPending   SyncRunStatus = "pending"
	SyncRunRunning   SyncRunStatus = "running"
	SyncRunCompleted SyncRunStatus = "completed"
	SyncRunFailed    SyncRunStatus = "failed"
)

// SyncRun records one execution of the contact sync pipeline
type SyncRun struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Source       string        `json:"source" db:"source"`
	Target       string        `json:"target" db:"target"`
	Status       SyncRunStatus `json:"status" db:"status"`
	TriggeredBy  *uuid.UUID    `json:"triggered_by,omitempty" db:"triggered_by"`
	TotalCount   int           `json:"total_count" db:"total_count"`
	CreatedCount int           `json:"created_count" db:"created_count"`
	UpdatedCount int           `json:"updated_count" db:"updated_count"`
	SkippedCount int           `json:"skipped_count" db:"skipped_count"`
	FailedCount  int           `json:"failed_count" db:"failed_count"`
	ErrorMessage *string       `json:"error_message,omitempty" db:"error_message"`
	StartedAt    time.Time     `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}

// TableName returns the table name for the SyncRun model
func (SyncRun) TableName() string {
	return "sync_runs"
}

// NewSyncRun creates a pending run between the named providers
func NewSyncRun(source, target string, triggeredBy *uuid.UUID) *SyncRun {
	return &SyncRun{
		ID:          uuid.New(),
		Source:      source,
		Target:      target,
		Status:      SyncRunPending,
		TriggeredBy: triggeredBy,
		StartedAt:   time.Now().UTC(),
	}
}

// Complete marks the run as finished
func (r *SyncRun) Complete() {
	now := time.Now().UTC()
	r.Status = SyncRunCompleted
	r.CompletedAt = &now
}

// Fail marks the run as failed with the given message
func (r *SyncRun) Fail(msg string) {
	now := time.Now().UTC()
	r.Status = SyncRunFailed
	r.ErrorMessage = &msg
	r.CompletedAt = &now
}

// IsTerminal returns true once the run can no longer change state
func (r *SyncRun) IsTerminal() bool {
	return r.Status == SyncRunCompleted || r.Status == SyncRunFailed
}
