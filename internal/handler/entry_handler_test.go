package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reel-quizzer/internal/domain"
	"reel-quizzer/internal/dto"
	"reel-quizzer/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

// MockEntryService
type MockEntryService struct {
	ListFunc          func() []dto.EntrySummary
	GetFunc           func(id string) (*dto.EntryDetail, error)
	ProfilePicURLFunc func(id string) (string, error)
	CountFunc         func() int
	ReloadFunc        func(ctx context.Context) (int, error)
}

func (m *MockEntryService) List() []dto.EntrySummary {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	panic("MockEntryService.ListFunc not implemented")
}
func (m *MockEntryService) Get(id string) (*dto.EntryDetail, error) {
	if m.GetFunc != nil {
		return m.GetFunc(id)
	}
	panic("MockEntryService.GetFunc not implemented")
}
func (m *MockEntryService) ProfilePicURL(id string) (string, error) {
	if m.ProfilePicURLFunc != nil {
		return m.ProfilePicURLFunc(id)
	}
	panic("MockEntryService.ProfilePicURLFunc not implemented")
}
func (m *MockEntryService) Count() int {
	if m.CountFunc != nil {
		return m.CountFunc()
	}
	panic("MockEntryService.CountFunc not implemented")
}
func (m *MockEntryService) Reload(ctx context.Context) (int, error) {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	panic("MockEntryService.ReloadFunc not implemented")
}

// MockAttemptService
type MockAttemptService struct {
	HistoryFunc func(ctx context.Context, entryID string) ([]dto.AttemptResponse, error)
}

func (m *MockAttemptService) History(ctx context.Context, entryID string) ([]dto.AttemptResponse, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, entryID)
	}
	panic("MockAttemptService.HistoryFunc not implemented")
}

func setupApp(t *testing.T, h *EntryHandler, dataRoot string) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	SetupRoutes(app, h, dataRoot)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestEntryHandler_IndexAndHealth(t *testing.T) {
	h := NewEntryHandler(&MockEntryService{CountFunc: func() int { return 3 }}, nil)
	app := setupApp(t, h, t.TempDir())

	resp, body := doRequest(t, app, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, banner, string(body))

	resp, body = doRequest(t, app, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"entries":3}`, string(body))
}

func TestEntryHandler_ListEntries(t *testing.T) {
	h := NewEntryHandler(&MockEntryService{ListFunc: func() []dto.EntrySummary {
		return []dto.EntrySummary{{
			ID:       "lessons/coffee",
			Title:    "Ordering coffee",
			Type:     "vocab",
			Counts:   domain.Counts{Vocab: 2, Quiz: 1},
			VideoURL: "/data/lessons/coffee.mp4",
		}}
	}}, nil)
	app := setupApp(t, h, t.TempDir())

	resp, body := doRequest(t, app, http.MethodGet, "/api/entries")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":"lessons/coffee","title":"Ordering coffee","type":"vocab",
		"counts":{"grammar":0,"vocab":2,"key_phrases":0,"conversation":0,"quiz":1},
		"video_url":"/data/lessons/coffee.mp4"}]`, string(body))
}

func TestEntryHandler_GetEntry(t *testing.T) {
	h := NewEntryHandler(&MockEntryService{GetFunc: func(id string) (*dto.EntryDetail, error) {
		if id != "lessons/coffee" {
			return nil, domain.NewNotFoundError("Entry not found").WithContext("id", id)
		}
		return &dto.EntryDetail{ID: id, Title: "Ordering coffee", VideoURL: "/data/lessons/coffee.mp4"}, nil
	}}, nil)
	app := setupApp(t, h, t.TempDir())

	resp, body := doRequest(t, app, http.MethodGet, "/api/entry?id=lessons%2Fcoffee")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var detail dto.EntryDetail
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "Ordering coffee", detail.Title)

	resp, body = doRequest(t, app, http.MethodGet, "/api/entry")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Missing id query param")

	resp, body = doRequest(t, app, http.MethodGet, "/api/entry?id=nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Entry not found")
}

func TestEntryHandler_ListAttempts(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		app := setupApp(t, NewEntryHandler(&MockEntryService{}, nil), t.TempDir())
		resp, _ := doRequest(t, app, http.MethodGet, "/api/attempts?id=a")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("history", func(t *testing.T) {
		var gotID string
		attempts := &MockAttemptService{HistoryFunc: func(ctx context.Context, entryID string) ([]dto.AttemptResponse, error) {
			gotID = entryID
			return []dto.AttemptResponse{{ID: "01", RunID: "r1", Status: "failed", Stage: "transport", Error: "boom"}}, nil
		}}
		app := setupApp(t, NewEntryHandler(&MockEntryService{}, attempts), t.TempDir())

		resp, body := doRequest(t, app, http.MethodGet, "/api/attempts?id=a%2Fb")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "a/b", gotID)
		var got []dto.AttemptResponse
		require.NoError(t, json.Unmarshal(body, &got))
		require.Len(t, got, 1)
		assert.Equal(t, "transport", got[0].Stage)
	})
}

func TestEntryHandler_Reload(t *testing.T) {
	h := NewEntryHandler(&MockEntryService{ReloadFunc: func(ctx context.Context) (int, error) { return 7, nil }}, nil)
	app := setupApp(t, h, t.TempDir())

	resp, body := doRequest(t, app, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"entries":7}`, string(body))

	resp, _ = doRequest(t, app, http.MethodGet, "/api/reload")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestEntryHandler_StaticData(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lessons"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lessons", "coffee.json"), []byte(`{"meta":{}}`), 0o644))

	app := setupApp(t, NewEntryHandler(&MockEntryService{}, nil), root)
	resp, body := doRequest(t, app, http.MethodGet, "/data/lessons/coffee.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"meta":{}}`, string(body))
}

func TestEntryHandler_ProfilePic(t *testing.T) {
	var gotUA string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNGDATA"))
	}))
	defer upstream.Close()

	pics := map[string]string{
		"ok":      upstream.URL + "/p.png",
		"gone":    upstream.URL + "/missing.jpg",
		"foreign": "https://evil.example.com/p.png",
	}
	entries := &MockEntryService{ProfilePicURLFunc: func(id string) (string, error) {
		u, ok := pics[id]
		if !ok {
			return "", domain.NewNotFoundError("Profile picture not found")
		}
		return u, nil
	}}
	h := NewEntryHandler(entries, nil)
	h.profileHosts = append([]string{"127.0.0.1"}, defaultProfileHosts...)
	app := setupApp(t, h, t.TempDir())

	resp, body := doRequest(t, app, http.MethodGet, "/api/profile-pic?id=ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PNGDATA", string(body))
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", resp.Header.Get("Cache-Control"))
	assert.Contains(t, gotUA, "Reel Quizzer")

	resp, body = doRequest(t, app, http.MethodGet, "/api/profile-pic?id=gone")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Failed to load image")

	resp, body = doRequest(t, app, http.MethodGet, "/api/profile-pic?id=foreign")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Profile host not permitted")

	resp, _ = doRequest(t, app, http.MethodGet, "/api/profile-pic?id=unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIsAllowedProfileHost(t *testing.T) {
	tests := []struct {
		url     string
		allowed bool
	}{
		{"https://instagram.com/p.jpg", true},
		{"https://scontent-lax3-1.cdninstagram.com/v/p.jpg", true},
		{"https://x.FBCDN.net/p.jpg", true},
		{"https://evilinstagram.com/p.jpg", false},
		{"https://instagram.com.evil.net/p.jpg", false},
		{"ftp://instagram.com/p.jpg", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.allowed, isAllowedProfileHost(tt.url, defaultProfileHosts))
		})
	}
}
