// Package ai provides text extraction backends for review enrichment.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Result is one extracted value addressed by its 1-based position in the
// batch that produced it.
type Result struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

// Extractor turns a batch of texts into positional results. Inputs with
// nothing to extract may be omitted from the output.
type Extractor interface {
	Name() string

	// Ready reports a configuration problem before any network call.
	Ready() error

	Extract(ctx context.Context, instruction string, texts []string) ([]Result, error)
}

// Instructions used by the enrichment pass.
const (
	BuiltInstruction = "For each numbered review, extract what the reviewer says they built, made or shipped " +
		"with this product. Use a short noun phrase. Leave value empty when nothing was built."
	SentimentInstruction = "For each numbered review, classify the overall sentiment towards the product as " +
		"exactly one of: positive, negative, neutral."
)

// New returns the extractor for the configured provider.
func New(cfg config.EnrichConfig, logger *slog.Logger) (Extractor, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGeminiExtractor(cfg, logger), nil
	case string(ProviderOpenAI), string(ProviderOllama):
		return NewLLMExtractor(NewLLMClient(LLMConfig{
			Provider:    LLMProvider(strings.ToLower(cfg.Provider)),
			Endpoint:    cfg.Endpoint,
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			MaxTokens:   2048,
			Temperature: cfg.Temperature,
		}, logger)), nil
	case "regex":
		return NewRegexBuiltExtractor(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedProvider, cfg.Provider)
	}
}

// BuildPrompt numbers texts from 1 under the instruction.
func BuildPrompt(instruction string, texts []string) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nRespond with a JSON array of objects {\"index\": <number>, \"value\": <string>}, ")
	b.WriteString("one per review, where index is the review number below.\n\n")
	for i, t := range texts {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(t), "\n", " "))
		b.WriteString("\n")
	}
	return b.String()
}

// ParseResults decodes a model reply into results for a batch of n inputs.
// Markdown fences and surrounding prose are tolerated; anything else that
// does not match the result shape is ErrMalformedExtraction.
func ParseResults(raw string, n int) ([]Result, error) {
	body := extractJSONArray(cleanJSON(raw))
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON array in response", types.ErrMalformedExtraction)
	}

	var entries []struct {
		Index json.Number `json:"index"`
		Value any         `json:"value"`
	}
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedExtraction, err)
	}

	out := make([]Result, 0, len(entries))
	for _, e := range entries {
		idx, err := strconv.Atoi(e.Index.String())
		if err != nil || idx < 1 || idx > n {
			return nil, fmt.Errorf("%w: index %q outside 1..%d", types.ErrMalformedExtraction, e.Index, n)
		}
		var value string
		switch v := e.Value.(type) {
		case nil:
		case string:
			value = strings.TrimSpace(v)
		default:
			return nil, fmt.Errorf("%w: value for index %d is not a string", types.ErrMalformedExtraction, idx)
		}
		out = append(out, Result{Index: idx, Value: value})
	}
	return out, nil
}

func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

// extractJSONArray returns the first balanced top-level JSON array in s.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
