package adapter

import (
	"context"
	"errors"

	"reel-quizzer/internal/domain"
)

// NopOutcomeRecorder discards outcomes.
type NopOutcomeRecorder struct{}

func (NopOutcomeRecorder) Record(context.Context, domain.ArtifactOutcome) error { return nil }

// AttemptRecorder stores outcomes as attempt history rows.
type AttemptRecorder struct {
	repo domain.AttemptRepository
}

func NewAttemptRecorder(repo domain.AttemptRepository) *AttemptRecorder {
	return &AttemptRecorder{repo: repo}
}

func (r *AttemptRecorder) Record(ctx context.Context, o domain.ArtifactOutcome) error {
	return r.repo.Save(ctx, &o)
}

// MultiRecorder fans an outcome out to every recorder. All recorders are
// called even when one fails; the errors are joined.
type MultiRecorder []domain.OutcomeRecorder

func (m MultiRecorder) Record(ctx context.Context, o domain.ArtifactOutcome) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewOutcomeRecorder combines the configured recorders. With none configured
// it returns a NopOutcomeRecorder.
func NewOutcomeRecorder(recorders ...domain.OutcomeRecorder) domain.OutcomeRecorder {
	var active MultiRecorder
	for _, r := range recorders {
		if r != nil {
			active = append(active, r)
		}
	}
	switch len(active) {
	case 0:
		return NopOutcomeRecorder{}
	case 1:
		return active[0]
	default:
		return active
	}
}
