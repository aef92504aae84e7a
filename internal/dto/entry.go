package dto

import (
	"time"

	"reel-quizzer/internal/domain"
)

// EntrySummary is a row of the entry overview.
type EntrySummary struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Mode     string        `json:"mode,omitempty"`
	Type     string        `json:"type,omitempty"`
	Counts   domain.Counts `json:"counts"`
	VideoURL string        `json:"video_url"`
}

// EntryDetail is a full entry with its quiz document.
type EntryDetail struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Meta     domain.Meta           `json:"meta"`
	Items    domain.Items          `json:"items"`
	Quiz     []domain.QuizQuestion `json:"quiz"`
	UIHints  domain.UIHints        `json:"ui_hints"`
	IGMeta   *domain.InstagramMeta `json:"ig_meta,omitempty"`
	VideoURL string                `json:"video_url"`
	Counts   domain.Counts         `json:"counts"`
}

// HealthResponse reports liveness and the index size.
type HealthResponse struct {
	OK      bool `json:"ok"`
	Entries int  `json:"entries"`
}

// ReloadResponse is returned after the entry index was rebuilt.
type ReloadResponse struct {
	Entries int `json:"entries"`
}

// AttemptResponse is one generation attempt of an entry's video.
type AttemptResponse struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage"`
	Error      string    `json:"error,omitempty"`
	RawSaved   bool      `json:"raw_saved"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewEntrySummary builds the overview row for an entry.
func NewEntrySummary(e *domain.Entry) EntrySummary {
	return EntrySummary{
		ID:       e.ID,
		Title:    e.Title,
		Mode:     e.Document.Meta.Mode,
		Type:     e.Document.Meta.Type,
		Counts:   e.Counts,
		VideoURL: e.VideoURL,
	}
}

// NewEntryDetail builds the detail view for an entry.
func NewEntryDetail(e *domain.Entry) *EntryDetail {
	return &EntryDetail{
		ID:       e.ID,
		Title:    e.Title,
		Meta:     e.Document.Meta,
		Items:    e.Document.Items,
		Quiz:     e.Document.Quiz,
		UIHints:  e.Document.UIHints,
		IGMeta:   e.IGMeta,
		VideoURL: e.VideoURL,
		Counts:   e.Counts,
	}
}

// NewAttemptResponse converts a stored outcome.
func NewAttemptResponse(o domain.ArtifactOutcome) AttemptResponse {
	return AttemptResponse{
		ID:         o.ID,
		RunID:      o.RunID,
		Status:     string(o.Status),
		Stage:      string(o.Stage),
		Error:      o.Error,
		RawSaved:   o.RawSaved,
		StartedAt:  o.StartedAt,
		FinishedAt: o.FinishedAt,
	}
}
