package quizgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"

	"reel-quizzer/internal/domain"
)

// maxInlineVideoBytes caps videos sent inline with the request.
const maxInlineVideoBytes = 512 << 20

// LangchainQuizGenerator implements domain.QuizGenerator with a langchaingo
// model. The video is sent inline: read from MediaPath when set, otherwise
// downloaded from MediaURL.
type LangchainQuizGenerator struct {
	llm        llms.Model
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewLangchainQuizGenerator creates a generator backed by googleai.
func NewLangchainQuizGenerator(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*LangchainQuizGenerator, error) {
	if apiKey == "" {
		return nil, domain.NewConfigurationError("GEMINI_API_KEY not set")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(geminiModelName(model)),
	)
	if err != nil {
		return nil, domain.NewError(domain.CodeConfiguration, "failed to create googleai client", err)
	}
	logger.Info("Initializing LangchainQuizGenerator", zap.String("model", geminiModelName(model)))
	return newLangchainQuizGenerator(llm, http.DefaultClient, timeout, logger), nil
}

func newLangchainQuizGenerator(llm llms.Model, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *LangchainQuizGenerator {
	return &LangchainQuizGenerator{llm: llm, httpClient: httpClient, timeout: timeout, logger: logger}
}

// Generate implements domain.QuizGenerator. Dynamic thinking has no
// langchaingo option and is left to the model default.
func (g *LangchainQuizGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	video, err := g.loadVideo(ctx, req)
	if err != nil {
		return "", transportError("Langchain", req, err)
	}

	messages := []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.BinaryPart(videoMIMEType(req.MediaURL), video),
			llms.TextPart(req.Prompt),
		},
	}}

	resp, err := g.llm.GenerateContent(ctx, messages,
		llms.WithModel(geminiModelName(req.Params.Model)),
		llms.WithTemperature(req.Params.Temperature),
		llms.WithTopP(req.Params.TopP),
		llms.WithMaxTokens(req.Params.MaxOutputTokens),
	)
	if err != nil {
		return "", transportError("Langchain", req, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", transportError("Langchain", req, errors.New("model returned no choices"))
	}
	text, err := normalizeOutput(resp.Choices[0].Content)
	if err != nil {
		return "", transportError("Langchain", req, err)
	}
	return text, nil
}

func (g *LangchainQuizGenerator) loadVideo(ctx context.Context, req domain.GenerationRequest) ([]byte, error) {
	if req.MediaPath != "" {
		return os.ReadFile(req.MediaPath)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.MediaURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", req.MediaURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInlineVideoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInlineVideoBytes {
		return nil, fmt.Errorf("fetching %s: video exceeds %d bytes", req.MediaURL, maxInlineVideoBytes)
	}
	g.logger.Debug("Fetched video", zap.String("media_url", req.MediaURL), zap.Int("bytes", len(data)))
	return data, nil
}

var _ domain.QuizGenerator = (*LangchainQuizGenerator)(nil)
