package service

import (
	"context"

	"reel-quizzer/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockQuizGenerator ---
type MockQuizGenerator struct {
	mock.Mock
}

func (m *MockQuizGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// --- MockOutcomeRecorder ---
type MockOutcomeRecorder struct {
	mock.Mock
}

func (m *MockOutcomeRecorder) Record(ctx context.Context, outcome domain.ArtifactOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

// --- MockArtifactStore ---
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Discover(ctx context.Context) ([]domain.InputArtifact, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InputArtifact), args.Error(1)
}

func (m *MockArtifactStore) OutputExists(a domain.InputArtifact) (bool, error) {
	args := m.Called(a)
	return args.Bool(0), args.Error(1)
}

func (m *MockArtifactStore) WriteRaw(a domain.InputArtifact, text string) error {
	args := m.Called(a, text)
	return args.Error(0)
}

func (m *MockArtifactStore) WriteDocument(a domain.InputArtifact, raw []byte) error {
	args := m.Called(a, raw)
	return args.Error(0)
}

// --- MockAttemptRepository ---
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Save(ctx context.Context, outcome *domain.ArtifactOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

func (m *MockAttemptRepository) ListByArtifact(ctx context.Context, artifact string, limit int) ([]domain.ArtifactOutcome, error) {
	args := m.Called(ctx, artifact, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtifactOutcome), args.Error(1)
}

func (m *MockAttemptRepository) ListByRun(ctx context.Context, runID string) ([]domain.ArtifactOutcome, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtifactOutcome), args.Error(1)
}
