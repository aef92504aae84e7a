// Package extract recovers a JSON document from free-form model output.
package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"reel-quizzer/internal/domain"
)

var (
	openingFence = regexp.MustCompile("(?i)^\\s*```(?:[a-z0-9_+-]+)?\\s*")
	closingFence = regexp.MustCompile("\\s*```\\s*$")
)

// Candidate is a single well-formed JSON value recovered from model text.
type Candidate struct {
	// Raw holds the exact JSON text that parsed, preserving key order.
	Raw json.RawMessage
	// Value is the decoded value. Numbers are json.Number.
	Value interface{}
}

// Object returns the value as a JSON object when it is one.
func (c *Candidate) Object() (map[string]interface{}, bool) {
	obj, ok := c.Value.(map[string]interface{})
	return obj, ok
}

// StripCodeFences removes a leading ``` marker (with an optional language tag)
// and a trailing ``` marker. Text without fences is only trimmed.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = openingFence.ReplaceAllString(text, "")
	text = closingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Recover parses text as JSON, tolerating markdown fences and surrounding
// prose. When the cleaned text is not JSON, the span from the first '{' to the
// last '}' is parsed instead and its parse error, if any, is returned.
func Recover(text string) (*Candidate, error) {
	cleaned := StripCodeFences(text)

	if c, err := parse(cleaned); err == nil {
		return c, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, domain.NewExtractionError("could not locate JSON object in model output", nil)
	}

	c, err := parse(strings.TrimSpace(cleaned[start : end+1]))
	if err != nil {
		return nil, domain.NewExtractionError("malformed JSON object in model output", err)
	}
	return c, nil
}

func parse(text string) (*Candidate, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return &Candidate{Raw: raw, Value: v}, nil
}
