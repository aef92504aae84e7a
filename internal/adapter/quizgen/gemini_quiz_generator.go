package quizgen

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"reel-quizzer/internal/domain"
)

// contentGenerator is the subset of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiQuizGenerator implements domain.QuizGenerator with the Gemini API,
// passing the video as a URI part.
type GeminiQuizGenerator struct {
	models  contentGenerator
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiQuizGenerator creates a new instance of GeminiQuizGenerator.
func NewGeminiQuizGenerator(ctx context.Context, apiKey string, timeout time.Duration, logger *zap.Logger) (*GeminiQuizGenerator, error) {
	if apiKey == "" {
		return nil, domain.NewConfigurationError("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.NewError(domain.CodeConfiguration, "failed to create gemini client", err)
	}
	logger.Info("Initializing GeminiQuizGenerator")
	return newGeminiQuizGenerator(client.Models, timeout, logger), nil
}

func newGeminiQuizGenerator(models contentGenerator, timeout time.Duration, logger *zap.Logger) *GeminiQuizGenerator {
	return &GeminiQuizGenerator{models: models, timeout: timeout, logger: logger}
}

// geminiModelName drops a hosting prefix such as "google/" from the model id.
func geminiModelName(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

func geminiConfig(p domain.GenerationParams) *genai.GenerateContentConfig {
	budget := int32(0)
	if p.DynamicThinking {
		budget = -1
	}
	return &genai.GenerateContentConfig{
		TopP:            genai.Ptr(float32(p.TopP)),
		Temperature:     genai.Ptr(float32(p.Temperature)),
		MaxOutputTokens: int32(p.MaxOutputTokens),
		ThinkingConfig:  &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(budget)},
	}
}

// Generate implements domain.QuizGenerator.
func (g *GeminiQuizGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(req.MediaURL, videoMIMEType(req.MediaURL)),
			genai.NewPartFromText(req.Prompt),
		}, genai.RoleUser),
	}

	model := geminiModelName(req.Params.Model)
	g.logger.Debug("Calling gemini", zap.String("model", model), zap.String("media_url", req.MediaURL))

	resp, err := g.models.GenerateContent(ctx, model, contents, geminiConfig(req.Params))
	if err != nil {
		return "", transportError("Gemini", req, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", transportError("Gemini", req, errors.New("model returned no candidates"))
	}
	text, err := normalizeOutput(resp.Text())
	if err != nil {
		return "", transportError("Gemini", req, err)
	}
	return text, nil
}

var _ domain.QuizGenerator = (*GeminiQuizGenerator)(nil)
