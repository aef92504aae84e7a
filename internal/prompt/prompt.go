// Package prompt provides the instruction text sent with every video.
package prompt

import (
	_ "embed"
	"os"
	"strings"

	"reel-quizzer/internal/domain"
)

//go:embed default_prompt.txt
var defaultPrompt string

// Default returns the built-in prompt.
func Default() string {
	return strings.TrimSpace(defaultPrompt)
}

// Load returns the contents of overridePath, trimmed, or the built-in prompt
// when overridePath is empty. An unreadable or blank override is a
// configuration error rather than a silent fallback.
func Load(overridePath string) (string, error) {
	if overridePath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return "", domain.NewError(domain.CodeConfiguration, "failed to read prompt file", err).
			WithContext("path", overridePath)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", domain.NewConfigurationError("prompt file is empty").WithContext("path", overridePath)
	}
	return text, nil
}
