package models

import (
	"database/sql"
	"time"
)

// GenerationAttempt is one row of GENERATION_ATTEMPTS.
type GenerationAttempt struct {
	ID           string         `db:"ID"`            // ULID
	RunID        string         `db:"RUN_ID"`        // ULID shared by every attempt of a batch run
	Artifact     string         `db:"ARTIFACT"`      // Video path relative to the data root
	Status       string         `db:"STATUS"`        // succeeded | failed
	Stage        string         `db:"STAGE"`         // Last pipeline stage reached
	ErrorMessage sql.NullString `db:"ERROR_MESSAGE"` // Failure detail
	RawSaved     int            `db:"RAW_SAVED"`     // 1 when the raw response was written
	StartedAt    time.Time      `db:"STARTED_AT"`
	FinishedAt   time.Time      `db:"FINISHED_AT"`
}
