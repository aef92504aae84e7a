package quizgen

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/replicate/replicate-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"reel-quizzer/internal/config"
	"reel-quizzer/internal/domain"
)

func testRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:    "Describe the clip.",
		MediaURL:  "https://cdn.example.com/data/a/1.mp4",
		MediaPath: "/srv/data/a/1.mp4",
		Params: domain.GenerationParams{
			Model:           "google/gemini-2.5-flash",
			TopP:            0.95,
			Temperature:     0.7,
			DynamicThinking: true,
			MaxOutputTokens: 12000,
		},
	}
}

func TestNormalizeOutput(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    string
		wantErr bool
	}{
		{"string", `{"a":1}`, `{"a":1}`, false},
		{"chunks", []interface{}{"```json\n{", `"a":`, nil, 1, "}\n```"}, "```json\n{\"a\":1}\n```", false},
		{"string slice", []string{"{", "}"}, "{}", false},
		{"other", 42, "42", false},
		{"nil", nil, "", true},
		{"blank", "  \n", "  \n", false},
		{"empty chunks", []interface{}{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeOutput(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVideoMIMEType(t *testing.T) {
	assert.Equal(t, "video/mp4", videoMIMEType("https://x/a/1.mp4"))
	assert.Equal(t, "video/quicktime", videoMIMEType("clip.MOV"))
	assert.Equal(t, "video/mp4", videoMIMEType("noext"))
}

func TestGeminiModelName(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", geminiModelName("google/gemini-2.5-flash"))
	assert.Equal(t, "gemini-2.5-pro", geminiModelName("gemini-2.5-pro"))
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.GeneratorConfig{Provider: "openai"}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeConfiguration))
}

func TestNew_MissingCredentials(t *testing.T) {
	for _, provider := range []string{config.ProviderReplicate, config.ProviderGemini, config.ProviderLangchain} {
		_, err := New(context.Background(), config.GeneratorConfig{Provider: provider}, zap.NewNop())
		require.Error(t, err, provider)
		assert.True(t, domain.IsCode(err, domain.CodeConfiguration), provider)
	}
}

func TestReplicateQuizGenerator_Generate(t *testing.T) {
	var gotModel string
	var gotInput replicate.PredictionInput
	gen := newReplicateQuizGenerator(func(ctx context.Context, model string, input replicate.PredictionInput) (replicate.PredictionOutput, error) {
		gotModel, gotInput = model, input
		return []interface{}{"```json\n", `{"meta":{}}`, "\n```"}, nil
	}, time.Minute, zap.NewNop())

	text, err := gen.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"meta\":{}}\n```", text)

	assert.Equal(t, "google/gemini-2.5-flash", gotModel)
	assert.Equal(t, replicate.PredictionInput{
		"top_p":             0.95,
		"temperature":       0.7,
		"dynamic_thinking":  true,
		"max_output_tokens": 12000,
		"prompt":            "Describe the clip.",
		"images":            []string{},
		"videos":            []string{"https://cdn.example.com/data/a/1.mp4"},
	}, gotInput)
}

func TestReplicateQuizGenerator_Errors(t *testing.T) {
	upstream := errors.New("prediction failed: 503")
	gen := newReplicateQuizGenerator(func(context.Context, string, replicate.PredictionInput) (replicate.PredictionOutput, error) {
		return nil, upstream
	}, 0, zap.NewNop())

	_, err := gen.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeTransport))
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, "Replicate call failed for 1.mp4: prediction failed: 503", err.Error())

	empty := newReplicateQuizGenerator(func(context.Context, string, replicate.PredictionInput) (replicate.PredictionOutput, error) {
		return nil, nil
	}, 0, zap.NewNop())
	_, err = empty.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeTransport))
}

func TestReplicateQuizGenerator_Timeout(t *testing.T) {
	gen := newReplicateQuizGenerator(func(ctx context.Context, _ string, _ replicate.PredictionInput) (replicate.PredictionOutput, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 10*time.Millisecond, zap.NewNop())

	_, err := gen.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeContentGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeContentGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, cfg
	return f.resp, f.err
}

func TestGeminiQuizGenerator_Generate(t *testing.T) {
	fake := &fakeContentGenerator{
		resp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: genai.NewContentFromText(`{"meta":{"title_en":"x"}}`, genai.RoleModel),
			}},
		},
	}
	gen := newGeminiQuizGenerator(fake, 0, zap.NewNop())

	text, err := gen.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"meta":{"title_en":"x"}}`, text)

	assert.Equal(t, "gemini-2.5-flash", fake.model)
	require.Len(t, fake.contents, 1)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].FileData)
	assert.Equal(t, "https://cdn.example.com/data/a/1.mp4", parts[0].FileData.FileURI)
	assert.Equal(t, "video/mp4", parts[0].FileData.MIMEType)
	assert.Equal(t, "Describe the clip.", parts[1].Text)

	assert.Equal(t, int32(12000), fake.config.MaxOutputTokens)
	assert.InDelta(t, 0.95, float64(*fake.config.TopP), 1e-6)
	assert.InDelta(t, 0.7, float64(*fake.config.Temperature), 1e-6)
	assert.Equal(t, int32(-1), *fake.config.ThinkingConfig.ThinkingBudget)
}

func TestGeminiQuizGenerator_ThinkingDisabled(t *testing.T) {
	cfg := geminiConfig(domain.GenerationParams{DynamicThinking: false})
	assert.Equal(t, int32(0), *cfg.ThinkingConfig.ThinkingBudget)
}

func TestGeminiQuizGenerator_Errors(t *testing.T) {
	gen := newGeminiQuizGenerator(&fakeContentGenerator{err: errors.New("quota exceeded")}, 0, zap.NewNop())
	_, err := gen.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeTransport))
	assert.Contains(t, err.Error(), "Gemini call failed for 1.mp4")

	gen = newGeminiQuizGenerator(&fakeContentGenerator{resp: &genai.GenerateContentResponse{}}, 0, zap.NewNop())
	_, err = gen.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeTransport))
}

type fakeLLM struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangchainQuizGenerator_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video-bytes"), 0o644))

	llm := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: `{"quiz":[]}`}}}}
	gen := newLangchainQuizGenerator(llm, http.DefaultClient, 0, zap.NewNop())

	req := testRequest()
	req.MediaPath = path
	text, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"quiz":[]}`, text)

	require.Len(t, llm.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, llm.messages[0].Role)
	require.Len(t, llm.messages[0].Parts, 2)
	assert.Equal(t, llms.BinaryPart("video/mp4", []byte("video-bytes")), llm.messages[0].Parts[0])
	assert.Equal(t, llms.TextPart("Describe the clip."), llm.messages[0].Parts[1])

	assert.Equal(t, "gemini-2.5-flash", llm.opts.Model)
	assert.Equal(t, 12000, llm.opts.MaxTokens)
	assert.Equal(t, 0.95, llm.opts.TopP)
	assert.Equal(t, 0.7, llm.opts.Temperature)
}

func TestLangchainQuizGenerator_FetchesURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/a/1.mp4" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "remote-bytes")
	}))
	defer server.Close()

	llm := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "{}"}}}}
	gen := newLangchainQuizGenerator(llm, server.Client(), 0, zap.NewNop())

	req := testRequest()
	req.MediaPath = ""
	req.MediaURL = server.URL + "/data/a/1.mp4"
	_, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, llms.BinaryPart("video/mp4", []byte("remote-bytes")), llm.messages[0].Parts[0])

	req.MediaURL = server.URL + "/data/missing.mp4"
	_, err = gen.Generate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeTransport))
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestLangchainQuizGenerator_NoChoices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("v"), 0o644))

	gen := newLangchainQuizGenerator(&fakeLLM{resp: &llms.ContentResponse{}}, http.DefaultClient, 0, zap.NewNop())
	req := testRequest()
	req.MediaPath = path
	_, err := gen.Generate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeTransport))
}

func TestLangchainQuizGenerator_BlankReplyIsReturned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("v"), 0o644))

	llm := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: ""}}}}
	gen := newLangchainQuizGenerator(llm, http.DefaultClient, 0, zap.NewNop())
	req := testRequest()
	req.MediaPath = path

	text, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, text)
}
