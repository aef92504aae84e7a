// Package quizgen adapts hosted multimodal models to domain.QuizGenerator.
package quizgen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"reel-quizzer/internal/config"
	"reel-quizzer/internal/domain"
)

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.GeneratorConfig, logger *zap.Logger) (domain.QuizGenerator, error) {
	switch cfg.Provider {
	case config.ProviderReplicate:
		return NewReplicateQuizGenerator(cfg.ReplicateAPIToken, cfg.Timeout, logger)
	case config.ProviderGemini:
		return NewGeminiQuizGenerator(ctx, cfg.GeminiAPIKey, cfg.Timeout, logger)
	case config.ProviderLangchain:
		return NewLangchainQuizGenerator(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.Timeout, logger)
	default:
		return nil, domain.NewConfigurationError(fmt.Sprintf("unknown generator provider %q", cfg.Provider))
	}
}

// normalizeOutput turns a provider result into text. Lists are concatenated
// element by element; nil elements are dropped. Only a nil result is an
// error: blank text is returned so that it is still saved as raw output.
func normalizeOutput(out interface{}) (string, error) {
	switch v := out.(type) {
	case nil:
		return "", errors.New("model returned no output")
	case string:
		return v, nil
	case []string:
		return strings.Join(v, ""), nil
	case []interface{}:
		var b strings.Builder
		for _, chunk := range v {
			if chunk != nil {
				fmt.Fprint(&b, chunk)
			}
		}
		return b.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func transportError(provider string, req domain.GenerationRequest, err error) error {
	return domain.NewTransportError(fmt.Sprintf("%s call failed for %s", provider, req.MediaName()), err).
		WithContext("media_url", req.MediaURL)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

var videoMIMETypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// videoMIMEType guesses the MIME type from the file extension, defaulting to video/mp4.
func videoMIMEType(name string) string {
	if t, ok := videoMIMETypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "video/mp4"
}
