package domain

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const (
	// DocumentSuffix is the extension of the validated quiz document.
	DocumentSuffix = ".json"
	// RawSuffix is the extension of the unprocessed model output.
	RawSuffix = ".raw.txt"
)

// InputArtifact is a video discovered under the data root.
type InputArtifact struct {
	// Path is the absolute filesystem path.
	Path string
	// RelPath is the slash-separated path relative to the data root.
	RelPath string
	Size    int64
}

// ID is the relative path without extension, e.g. "lessons/reel_01".
func (a InputArtifact) ID() string {
	return strings.TrimSuffix(a.RelPath, path.Ext(a.RelPath))
}

func (a InputArtifact) stem() string {
	return strings.TrimSuffix(a.Path, filepath.Ext(a.Path))
}

// DocumentPath is the sibling path of the quiz document.
func (a InputArtifact) DocumentPath() string {
	return a.stem() + DocumentSuffix
}

// RawPath is the sibling path of the raw model output.
func (a InputArtifact) RawPath() string {
	return a.stem() + RawSuffix
}

// SizeMB returns the file size in mebibytes.
func (a InputArtifact) SizeMB() float64 {
	return float64(a.Size) / (1024 * 1024)
}

// MediaURL maps the artifact onto the public mirror of the data root.
// Each path segment is escaped; baseURL must not end with a slash.
func (a InputArtifact) MediaURL(baseURL string) string {
	segments := strings.Split(a.RelPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return baseURL + "/" + strings.Join(segments, "/")
}

// WorkDecision is the per-artifact outcome of the resolver.
type WorkDecision string

const (
	DecisionSkipExists      WorkDecision = "SKIP_EXISTS"
	DecisionSkipNoOverwrite WorkDecision = "SKIP_NO_OVERWRITE"
	DecisionRun             WorkDecision = "RUN"
)

// Decide resolves whether an artifact should be processed. onlyMissing takes
// priority over overwrite when the output already exists.
func Decide(outputExists, onlyMissing, overwrite bool) WorkDecision {
	switch {
	case !outputExists:
		return DecisionRun
	case onlyMissing:
		return DecisionSkipExists
	case overwrite:
		return DecisionRun
	default:
		return DecisionSkipNoOverwrite
	}
}

// ArtifactStore is the filesystem ledger: it enumerates inputs and holds
// their outputs.
type ArtifactStore interface {
	// Discover returns every input under the data root, sorted by path.
	Discover(ctx context.Context) ([]InputArtifact, error)
	OutputExists(a InputArtifact) (bool, error)
	WriteRaw(a InputArtifact, text string) error
	// WriteDocument replaces the document atomically with an indented copy of raw.
	WriteDocument(a InputArtifact, raw []byte) error
}
