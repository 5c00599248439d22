package models

import (
	"encoding/json"
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunStage tracks how far a migration invocation has progressed. A failed run
// keeps the stage it died in; batches committed before that stay committed.
type RunStage string

const (
	StageNotStarted    RunStage = "not_started"
	StageReadingSource RunStage = "reading_source"
	StageClassifying   RunStage = "classifying"
	StageDeduplicating RunStage = "deduplicating"
	StageNormalizing   RunStage = "normalizing"
	StageWriting       RunStage = "writing"
	StageVerifying     RunStage = "verifying"
	StageDone          RunStage = "done"
)

// MigrationRun is the bookkeeping record for one pipeline invocation.
type MigrationRun struct {
	ID           int64           `json:"id" db:"id"`
	Pipeline     string          `json:"pipeline" db:"pipeline"`
	StartedAt    time.Time       `json:"started_at" db:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at" db:"finished_at"`
	Stage        RunStage        `json:"stage" db:"stage"`
	Status       RunStatus       `json:"status" db:"status"`
	Watermark    int64           `json:"watermark" db:"watermark"`
	RowsRead     int             `json:"rows_read" db:"rows_read"`
	RowsSkipped  int             `json:"rows_skipped" db:"rows_skipped"`
	RowsDeduped  int             `json:"rows_deduped" db:"rows_deduped"`
	RowsMigrated int             `json:"rows_migrated" db:"rows_migrated"`
	RowsErrored  int             `json:"rows_errored" db:"rows_errored"`
	ErrorMessage string          `json:"error_message" db:"error_message"`
	Metadata     json.RawMessage `json:"metadata" db:"metadata"`
}

// SuccessRate returns migrated / (migrated + errored) as a percentage.
func (r *MigrationRun) SuccessRate() float64 {
	total := r.RowsMigrated + r.RowsErrored
	if total == 0 {
		return 100
	}
	return 100 * float64(r.RowsMigrated) / float64(total)
}
