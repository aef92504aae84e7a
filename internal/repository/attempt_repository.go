package repository

import (
	"context"
	"fmt"
	"time"

	"reel-quizzer/internal/database"
	"reel-quizzer/internal/domain"
	"reel-quizzer/internal/repository/models"
	"reel-quizzer/internal/util"
)

// Columns are aliased in upper case so Oracle and SQLite map onto the same db tags.
const attemptColumns = `id AS "ID", run_id AS "RUN_ID", artifact AS "ARTIFACT", status AS "STATUS",
	stage AS "STAGE", error_message AS "ERROR_MESSAGE", raw_saved AS "RAW_SAVED",
	started_at AS "STARTED_AT", finished_at AS "FINISHED_AT"`

// defaultAttemptLimit bounds ListByArtifact when no limit is given.
const defaultAttemptLimit = 50

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db DBTX
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
// db may be a *sqlx.DB or a *sqlx.Tx.
func NewSQLXAttemptRepository(db DBTX) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

func toDomainAttempt(m *models.GenerationAttempt) domain.ArtifactOutcome {
	return domain.ArtifactOutcome{
		ID:         m.ID,
		RunID:      m.RunID,
		Artifact:   m.Artifact,
		Decision:   domain.DecisionRun,
		Status:     domain.OutcomeStatus(m.Status),
		Stage:      domain.Stage(m.Stage),
		Error:      m.ErrorMessage.String,
		RawSaved:   m.RawSaved != 0,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
}

func fromDomainAttempt(o *domain.ArtifactOutcome) *models.GenerationAttempt {
	return &models.GenerationAttempt{
		ID:           o.ID,
		RunID:        o.RunID,
		Artifact:     o.Artifact,
		Status:       string(o.Status),
		Stage:        string(o.Stage),
		ErrorMessage: util.StringToNullString(o.Error),
		RawSaved:     util.BoolToFlag(o.RawSaved),
		StartedAt:    o.StartedAt.UTC(),
		FinishedAt:   o.FinishedAt.UTC(),
	}
}

// Save inserts the outcome, assigning an ID when it has none.
func (r *sqlxAttemptRepository) Save(ctx context.Context, outcome *domain.ArtifactOutcome) error {
	if outcome.ID == "" {
		outcome.ID = util.NewULID()
	}
	if outcome.FinishedAt.IsZero() {
		outcome.FinishedAt = time.Now()
	}
	if outcome.StartedAt.IsZero() {
		outcome.StartedAt = outcome.FinishedAt
	}
	m := fromDomainAttempt(outcome)

	query := r.db.Rebind(`INSERT INTO generation_attempts
		(id, run_id, artifact, status, stage, error_message, raw_saved, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.RunID, m.Artifact, m.Status, m.Stage,
		m.ErrorMessage, m.RawSaved, m.StartedAt, m.FinishedAt,
	)
	if err != nil {
		return domain.NewPersistenceError("failed to save generation attempt", err).
			WithContext("artifact", outcome.Artifact)
	}
	return nil
}

// ListByArtifact returns the newest attempts for one artifact first.
func (r *sqlxAttemptRepository) ListByArtifact(ctx context.Context, artifact string, limit int) ([]domain.ArtifactOutcome, error) {
	if limit <= 0 {
		limit = defaultAttemptLimit
	}
	query := r.db.Rebind(fmt.Sprintf(`SELECT %s FROM generation_attempts
		WHERE artifact = ? ORDER BY started_at DESC, id DESC %s`, attemptColumns, r.limitClause()))

	var rows []models.GenerationAttempt
	if err := r.db.SelectContext(ctx, &rows, query, artifact, limit); err != nil {
		return nil, domain.NewPersistenceError("failed to list generation attempts", err).
			WithContext("artifact", artifact)
	}
	return toDomainAttempts(rows), nil
}

// limitClause bounds a query to a single ? row count.
func (r *sqlxAttemptRepository) limitClause() string {
	if r.db.DriverName() == database.DriverOracle {
		return "FETCH FIRST ? ROWS ONLY"
	}
	return "LIMIT ?"
}

// ListByRun returns a run's attempts in processing order.
func (r *sqlxAttemptRepository) ListByRun(ctx context.Context, runID string) ([]domain.ArtifactOutcome, error) {
	query := r.db.Rebind(fmt.Sprintf(`SELECT %s FROM generation_attempts
		WHERE run_id = ? ORDER BY started_at ASC, id ASC`, attemptColumns))

	var rows []models.GenerationAttempt
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, domain.NewPersistenceError("failed to list generation attempts", err).
			WithContext("run_id", runID)
	}
	return toDomainAttempts(rows), nil
}

func toDomainAttempts(rows []models.GenerationAttempt) []domain.ArtifactOutcome {
	out := make([]domain.ArtifactOutcome, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainAttempt(&rows[i]))
	}
	return out
}
