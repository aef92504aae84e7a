package service

import (
	"context"

	"reel-quizzer/internal/domain"
	"reel-quizzer/internal/dto"
)

// defaultAttemptLimit caps the attempt history returned per entry.
const defaultAttemptLimit = 20

// AttemptService defines the interface for reading generation history.
type AttemptService interface {
	// History returns the newest attempts first for the entry with the given id.
	History(ctx context.Context, entryID string) ([]dto.AttemptResponse, error)
}

type attemptService struct {
	repo     domain.AttemptRepository
	videoExt string
}

// NewAttemptService creates an AttemptService. Entry ids map to artifacts by
// appending videoExt.
func NewAttemptService(repo domain.AttemptRepository, videoExt string) AttemptService {
	return &attemptService{repo: repo, videoExt: videoExt}
}

func (s *attemptService) History(ctx context.Context, entryID string) ([]dto.AttemptResponse, error) {
	if entryID == "" {
		return nil, domain.NewInvalidInputError("Missing id query param")
	}

	outcomes, err := s.repo.ListByArtifact(ctx, entryID+s.videoExt, defaultAttemptLimit)
	if err != nil {
		return nil, err
	}

	attempts := make([]dto.AttemptResponse, 0, len(outcomes))
	for _, o := range outcomes {
		attempts = append(attempts, dto.NewAttemptResponse(o))
	}
	return attempts, nil
}
