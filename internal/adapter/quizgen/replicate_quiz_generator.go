package quizgen

import (
	"context"
	"time"

	"github.com/replicate/replicate-go"
	"go.uber.org/zap"

	"reel-quizzer/internal/domain"
)

// runFunc runs a Replicate model to completion.
type runFunc func(ctx context.Context, model string, input replicate.PredictionInput) (replicate.PredictionOutput, error)

// ReplicateQuizGenerator implements domain.QuizGenerator by running a
// Replicate-hosted Gemini model that reads the video from its public URL.
type ReplicateQuizGenerator struct {
	run     runFunc
	timeout time.Duration
	logger  *zap.Logger
}

// NewReplicateQuizGenerator creates a generator authenticated with token.
func NewReplicateQuizGenerator(token string, timeout time.Duration, logger *zap.Logger) (*ReplicateQuizGenerator, error) {
	if token == "" {
		return nil, domain.NewConfigurationError("REPLICATE_API_TOKEN not set")
	}
	client, err := replicate.NewClient(replicate.WithToken(token))
	if err != nil {
		return nil, domain.NewError(domain.CodeConfiguration, "failed to create replicate client", err)
	}
	logger.Info("Initializing ReplicateQuizGenerator")
	return newReplicateQuizGenerator(func(ctx context.Context, model string, input replicate.PredictionInput) (replicate.PredictionOutput, error) {
		return client.Run(ctx, model, input, nil)
	}, timeout, logger), nil
}

func newReplicateQuizGenerator(run runFunc, timeout time.Duration, logger *zap.Logger) *ReplicateQuizGenerator {
	return &ReplicateQuizGenerator{run: run, timeout: timeout, logger: logger}
}

// replicateInput builds the model input. The image list is always present and empty.
func replicateInput(req domain.GenerationRequest) replicate.PredictionInput {
	return replicate.PredictionInput{
		"top_p":             req.Params.TopP,
		"temperature":       req.Params.Temperature,
		"dynamic_thinking":  req.Params.DynamicThinking,
		"max_output_tokens": req.Params.MaxOutputTokens,
		"prompt":            req.Prompt,
		"images":            []string{},
		"videos":            []string{req.MediaURL},
	}
}

// Generate implements domain.QuizGenerator.
func (g *ReplicateQuizGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.Debug("Running replicate model",
		zap.String("model", req.Params.Model),
		zap.String("media_url", req.MediaURL))

	out, err := g.run(ctx, req.Params.Model, replicateInput(req))
	if err != nil {
		return "", transportError("Replicate", req, err)
	}
	text, err := normalizeOutput(out)
	if err != nil {
		return "", transportError("Replicate", req, err)
	}
	return text, nil
}

var _ domain.QuizGenerator = (*ReplicateQuizGenerator)(nil)
