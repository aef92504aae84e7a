package domain

import (
	"context"
	"path/filepath"
	"time"
)

// GenerationParams are the sampling parameters passed to the hosted model.
type GenerationParams struct {
	Model           string
	TopP            float64
	Temperature     float64
	DynamicThinking bool
	MaxOutputTokens int
}

// GenerationRequest describes a single model call for one video.
type GenerationRequest struct {
	Prompt string
	// MediaURL is the publicly reachable URL of the video.
	MediaURL string
	// MediaPath is the local copy of the same video.
	MediaPath string
	Params    GenerationParams
}

// MediaName is the video's base name, used in error messages.
func (r GenerationRequest) MediaName() string {
	return filepath.Base(r.MediaPath)
}

// QuizGenerator defines the interface for turning a video into raw model text.
type QuizGenerator interface {
	// Generate blocks until the model returns. The returned text is
	// unprocessed and may contain prose or markdown fences.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// OutcomeStatus is the terminal state of a RUN artifact.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Stage names the pipeline step an artifact reached.
type Stage string

const (
	StageTransport       Stage = "transport"
	StagePersistRaw      Stage = "persist_raw"
	StageExtract         Stage = "extract"
	StageValidate        Stage = "validate"
	StagePersistDocument Stage = "persist_document"
)

// ArtifactOutcome is the result of processing one artifact.
type ArtifactOutcome struct {
	// ID is assigned when the outcome is stored.
	ID         string
	RunID      string
	Artifact   string
	Decision   WorkDecision
	Status     OutcomeStatus
	Stage      Stage
	Error      string
	RawSaved   bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// OutcomeRecorder persists per-artifact outcomes beyond the filesystem ledger.
// Recording never influences which artifacts run.
type OutcomeRecorder interface {
	Record(ctx context.Context, outcome ArtifactOutcome) error
}

// AttemptRepository keeps the history of RUN outcomes.
type AttemptRepository interface {
	Save(ctx context.Context, outcome *ArtifactOutcome) error
	ListByArtifact(ctx context.Context, artifact string, limit int) ([]ArtifactOutcome, error)
	ListByRun(ctx context.Context, runID string) ([]ArtifactOutcome, error)
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	RunID     string
	Total     int
	Ran       int
	Succeeded int
	Failed    int
	Skipped   int
	Outcomes  []ArtifactOutcome
}

// BatchService defines the interface for batch operations.
type BatchService interface {
	Run(ctx context.Context) (*BatchReport, error)
}
