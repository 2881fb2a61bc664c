package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestParseResults(t *testing.T) {
	got, err := ParseResults("```json\n[{\"index\":1,\"value\":\"a blog\"},{\"index\":2,\"value\":\"\"}]\n```", 2)
	require.NoError(t, err)
	assert.Equal(t, []Result{{1, "a blog"}, {2, ""}}, got)

	got, err = ParseResults(`Sure! Here you go: [{"index": 3, "value": "pos [x]"}] thanks`, 3)
	require.NoError(t, err)
	assert.Equal(t, []Result{{3, "pos [x]"}}, got)

	got, err = ParseResults(`[{"index":1,"value":null}]`, 1)
	require.NoError(t, err)
	assert.Equal(t, []Result{{1, ""}}, got)
}

func TestParseResultsMalformed(t *testing.T) {
	tests := map[string]string{
		"no array":       `{"index":1}`,
		"not json":       `[index: 1]`,
		"out of range":   `[{"index":4,"value":"x"}]`,
		"zero index":     `[{"index":0,"value":"x"}]`,
		"missing index":  `[{"value":"x"}]`,
		"non-string val": `[{"index":1,"value":{"a":1}}]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResults(raw, 3)
			assert.ErrorIs(t, err, types.ErrMalformedExtraction)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Do it.", []string{"first\nline", " second "})
	assert.True(t, strings.HasPrefix(p, "Do it."))
	assert.Contains(t, p, "1. first line\n")
	assert.Contains(t, p, "2. second\n")
}

func TestMatchBuilt(t *testing.T) {
	tests := []struct {
		text, want string
	}{
		{"I built my portfolio site with Framer in a day.", "portfolio site"},
		{"We made a landing page in minutes", "landing page"},
		{"Been using it to build our internal dashboard.", "internal dashboard"},
		{"Great product, love the team.", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchBuilt(tt.text), tt.text)
	}
}

func TestRegexExtractorPositions(t *testing.T) {
	got, err := NewRegexBuiltExtractor().Extract(context.Background(), BuiltInstruction, []string{
		"nice",
		"I built a CRM with it.",
	})
	require.NoError(t, err)
	assert.Equal(t, []Result{{Index: 2, Value: "CRM"}}, got)
}

func TestNewProviders(t *testing.T) {
	for _, p := range []string{"gemini", "openai", "ollama", "regex", "Gemini"} {
		e, err := New(config.EnrichConfig{Provider: p, Model: "m"}, testLogger)
		require.NoError(t, err, p)
		assert.NotNil(t, e)
	}
	_, err := New(config.EnrichConfig{Provider: "bard"}, testLogger)
	assert.ErrorIs(t, err, types.ErrUnsupportedProvider)
}

func TestReadyRequiresCredential(t *testing.T) {
	g := NewGeminiExtractor(config.EnrichConfig{}, testLogger)
	assert.ErrorIs(t, g.Ready(), types.ErrMissingCredential)
	_, err := g.Extract(context.Background(), SentimentInstruction, []string{"x"})
	assert.ErrorIs(t, err, types.ErrMissingCredential)

	o := NewLLMExtractor(NewLLMClient(LLMConfig{Provider: ProviderOpenAI, Model: "gpt"}, testLogger))
	assert.ErrorIs(t, o.Ready(), types.ErrMissingCredential)

	l := NewLLMExtractor(NewLLMClient(LLMConfig{Provider: ProviderOllama, Model: "llama3"}, testLogger))
	assert.NoError(t, l.Ready())
}

func TestOllamaExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3", body["model"])
		assert.Contains(t, body["prompt"], "2. bad")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"response": `[{"index":1,"value":"positive"},{"index":2,"value":"negative"}]`,
		})
	}))
	defer srv.Close()

	e := NewLLMExtractor(NewLLMClient(LLMConfig{Provider: ProviderOllama, Endpoint: srv.URL, Model: "llama3"}, testLogger))
	got, err := e.Extract(context.Background(), SentimentInstruction, []string{"good", "bad"})
	require.NoError(t, err)
	assert.Equal(t, []Result{{1, "positive"}, {2, "negative"}}, got)
}

func TestOpenAIExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"[{\"index\":1,\"value\":\"a game\"}]"}}]}`))
	}))
	defer srv.Close()

	e := NewLLMExtractor(NewLLMClient(LLMConfig{Provider: ProviderOpenAI, Endpoint: srv.URL, Model: "gpt", APIKey: "sk-test"}, testLogger))
	got, err := e.Extract(context.Background(), BuiltInstruction, []string{"I built a game with it"})
	require.NoError(t, err)
	assert.Equal(t, []Result{{1, "a game"}}, got)
}

func TestLLMStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewLLMExtractor(NewLLMClient(LLMConfig{Provider: ProviderOllama, Endpoint: srv.URL, Model: "llama3"}, testLogger))
	_, err := e.Extract(context.Background(), BuiltInstruction, []string{"x"})
	assert.Error(t, err)
}
