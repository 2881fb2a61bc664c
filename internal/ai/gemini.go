package ai

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// GeminiExtractor asks Gemini for a schema-constrained JSON array.
type GeminiExtractor struct {
	apiKey      string
	model       string
	endpoint    string
	temperature float32
	client      *genai.Client
	logger      *slog.Logger
}

// NewGeminiExtractor creates a Gemini extractor. The API client is created
// on first use so a missing key surfaces through Ready.
func NewGeminiExtractor(cfg config.EnrichConfig, logger *slog.Logger) *GeminiExtractor {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiExtractor{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    cfg.Endpoint,
		temperature: float32(cfg.Temperature),
		logger:      logger.With("component", "gemini"),
	}
}

func (g *GeminiExtractor) Name() string { return "gemini" }

func (g *GeminiExtractor) Ready() error {
	if g.apiKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", types.ErrMissingCredential)
	}
	return nil
}

// resultSchema constrains replies to [{index, value}].
var resultSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"index": {Type: genai.TypeInteger},
			"value": {Type: genai.TypeString},
		},
		Required: []string{"index", "value"},
	},
}

func (g *GeminiExtractor) Extract(ctx context.Context, instruction string, texts []string) ([]Result, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}
	if g.client == nil {
		cc := &genai.ClientConfig{APIKey: g.apiKey, Backend: genai.BackendGeminiAPI}
		if g.endpoint != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.endpoint}
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		g.client = client
	}

	temperature := g.temperature
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(instruction, texts)), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   resultSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty gemini response", types.ErrMalformedExtraction)
	}

	g.logger.Debug("gemini batch extracted", "model", g.model, "inputs", len(texts))
	return ParseResults(result.Candidates[0].Content.Parts[0].Text, len(texts))
}
