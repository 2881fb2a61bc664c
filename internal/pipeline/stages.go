package pipeline

import (
	"context"

	"github.com/IshaanNene/HuntGoat/internal/correlate"
	"github.com/IshaanNene/HuntGoat/internal/engine"
	"github.com/IshaanNene/HuntGoat/internal/enrich"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// DedupStage drops records whose id was already seen within the same
// resource, keeping the first occurrence.
type DedupStage struct{}

func (DedupStage) Name() string { return "dedup" }

func (DedupStage) Process(_ context.Context, b *types.Bundle) error {
	b.Reviews = dedup(b.Reviews, func(r types.Review) string { return r.ID })
	b.Threads = dedup(b.Threads, func(t types.Thread) string { return t.ID })
	b.Launches = dedup(b.Launches, func(l types.Launch) string { return l.ID })
	b.Makers = dedup(b.Makers, func(m types.Maker) string { return m.ID })
	return nil
}

func dedup[T any](items []T, id func(T) string) []T {
	if len(items) < 2 {
		return items
	}
	seen := engine.NewIDSet(len(items))
	out := items[:0]
	for _, it := range items {
		if seen.Add(id(it)) {
			out = append(out, it)
		}
	}
	return out
}

// BuiltStage extracts built artifacts from review bodies.
type BuiltStage struct {
	Enricher *enrich.Enricher
}

func (BuiltStage) Name() string { return "enrich_built" }

func (s BuiltStage) Process(ctx context.Context, b *types.Bundle) error {
	return s.Enricher.Built(ctx, b.Reviews)
}

// SentimentStage classifies reviews without a rating.
type SentimentStage struct {
	Enricher *enrich.Enricher
}

func (SentimentStage) Name() string { return "enrich_sentiment" }

func (s SentimentStage) Process(ctx context.Context, b *types.Bundle) error {
	return s.Enricher.Sentiment(ctx, b.Reviews)
}

// CorrelateStage attaches launch and forum activity to makers.
type CorrelateStage struct{}

func (CorrelateStage) Name() string { return "correlate" }

func (CorrelateStage) Process(_ context.Context, b *types.Bundle) error {
	b.Makers = correlate.Makers(b.Makers, b.Launches, b.Threads)
	return nil
}
