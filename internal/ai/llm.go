package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/IshaanNene/HuntGoat/internal/types"
)

// LLMProvider specifies which LLM backend to use.
type LLMProvider string

const (
	ProviderOllama LLMProvider = "ollama"
	ProviderOpenAI LLMProvider = "openai"
)

// LLMConfig configures the LLM integration.
type LLMConfig struct {
	Provider    LLMProvider
	Endpoint    string // e.g. "http://localhost:11434" for Ollama
	Model       string // e.g. "llama3", "gpt-4o-mini"
	APIKey      string
	MaxTokens   int
	Temperature float64
}

// LLMClient communicates with a text generation endpoint.
type LLMClient struct {
	cfg    LLMConfig
	http   *resty.Client
	logger *slog.Logger
}

// NewLLMClient creates a new LLM client.
func NewLLMClient(cfg LLMConfig, logger *slog.Logger) *LLMClient {
	if cfg.Endpoint == "" {
		switch cfg.Provider {
		case ProviderOllama:
			cfg.Endpoint = "http://localhost:11434"
		case ProviderOpenAI:
			cfg.Endpoint = "https://api.openai.com/v1"
		}
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetTimeout(120*time.Second).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &LLMClient{
		cfg:    cfg,
		http:   client,
		logger: logger.With("component", "llm_client"),
	}
}

// Generate sends a prompt to the LLM and returns the response.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	switch c.cfg.Provider {
	case ProviderOllama:
		return c.generateOllama(ctx, prompt)
	case ProviderOpenAI:
		return c.generateOpenAI(ctx, prompt)
	default:
		return "", fmt.Errorf("%w: %s", types.ErrUnsupportedProvider, c.cfg.Provider)
	}
}

func (c *LLMClient) generateOllama(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": c.cfg.Temperature,
			"num_predict": c.cfg.MaxTokens,
		},
	}

	var result struct {
		Response string `json:"response"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("ollama request: status %d", res.StatusCode())
	}
	return result.Response, nil
}

func (c *LLMClient) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("openai request: status %d", res.StatusCode())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return result.Choices[0].Message.Content, nil
}

// LLMExtractor implements Extractor by prompting an LLMClient for a JSON
// array and parsing the reply.
type LLMExtractor struct {
	client *LLMClient
}

// NewLLMExtractor creates an LLMExtractor.
func NewLLMExtractor(client *LLMClient) *LLMExtractor {
	return &LLMExtractor{client: client}
}

func (e *LLMExtractor) Name() string { return string(e.client.cfg.Provider) }

// Ready requires an API key for hosted providers and a model everywhere.
func (e *LLMExtractor) Ready() error {
	if e.client.cfg.Provider == ProviderOpenAI && e.client.cfg.APIKey == "" {
		return fmt.Errorf("%w: openai api key", types.ErrMissingCredential)
	}
	if e.client.cfg.Model == "" {
		return fmt.Errorf("%s: model is required", e.client.cfg.Provider)
	}
	return nil
}

func (e *LLMExtractor) Extract(ctx context.Context, instruction string, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	reply, err := e.client.Generate(ctx, BuildPrompt(instruction, texts))
	if err != nil {
		return nil, err
	}
	return ParseResults(reply, len(texts))
}
