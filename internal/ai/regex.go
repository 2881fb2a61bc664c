package ai

import (
	"context"
	"regexp"
	"strings"
)

// builtPatterns capture the artifact in phrases like "built X with",
// "made X using" or "using it to build X".
var builtPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:built|build|building|made|created|shipped|launched)\s+(?:my|our|a|an|the)?\s*([\w][\w\s\-']{2,60}?)\s+(?:with|using|on|in)\b`),
	regexp.MustCompile(`(?i)\busing\s+(?:it|this|this tool)\s+to\s+(?:build|make|create|ship)\s+(?:my|our|a|an|the)?\s*([\w][\w\s\-']{2,60}?)(?:[.,!;]|$)`),
	regexp.MustCompile(`(?i)\bmade\s+with\b[^.]*?\bfor\s+(?:my|our)\s+([\w][\w\s\-']{2,60}?)(?:[.,!;]|$)`),
}

// RegexBuiltExtractor extracts built artifacts with fixed patterns. It
// ignores the instruction and needs no credential.
type RegexBuiltExtractor struct{}

// NewRegexBuiltExtractor creates a RegexBuiltExtractor.
func NewRegexBuiltExtractor() *RegexBuiltExtractor { return &RegexBuiltExtractor{} }

func (RegexBuiltExtractor) Name() string { return "regex" }

func (RegexBuiltExtractor) Ready() error { return nil }

func (RegexBuiltExtractor) Extract(_ context.Context, _ string, texts []string) ([]Result, error) {
	var out []Result
	for i, t := range texts {
		if v := MatchBuilt(t); v != "" {
			out = append(out, Result{Index: i + 1, Value: v})
		}
	}
	return out, nil
}

// MatchBuilt returns the first built artifact found in text, or "".
func MatchBuilt(text string) string {
	for _, re := range builtPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
