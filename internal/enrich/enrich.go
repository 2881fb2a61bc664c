// Package enrich merges extractor output back into reviews.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/HuntGoat/internal/ai"
	"github.com/IshaanNene/HuntGoat/internal/engine"
	"github.com/IshaanNene/HuntGoat/internal/observability"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// DefaultBatchSize is the number of reviews sent per extractor call.
const DefaultBatchSize = 10

// Batch is the half-open range [Start, End) of one batch.
type Batch struct {
	Start, End int
}

// Batches partitions n items into contiguous batches of size. The last
// batch may be shorter.
func Batches(n, size int) []Batch {
	if size < 1 {
		size = DefaultBatchSize
	}
	out := make([]Batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		out = append(out, Batch{Start: start, End: min(start+size, n)})
	}
	return out
}

// Enricher runs the built-artifact and sentiment passes. Either extractor
// may be nil to disable its pass.
type Enricher struct {
	built     ai.Extractor
	sentiment ai.Extractor
	batchSize int
	delay     time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates an Enricher.
func New(built, sentiment ai.Extractor, batchSize int, delay time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Enricher {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &Enricher{
		built:     built,
		sentiment: sentiment,
		batchSize: batchSize,
		delay:     delay,
		metrics:   metrics,
		logger:    logger.With("component", "enricher"),
	}
}

// Built runs the built-artifact pass over every review. Only non-empty
// results are written; other reviews keep their current value.
func (e *Enricher) Built(ctx context.Context, reviews []types.Review) error {
	if e.built == nil {
		return nil
	}
	if err := e.built.Ready(); err != nil {
		return err
	}

	for i, b := range Batches(len(reviews), e.batchSize) {
		if i > 0 {
			if err := engine.Sleep(ctx, e.delay); err != nil {
				return err
			}
		}
		texts := make([]string, 0, b.End-b.Start)
		for _, r := range reviews[b.Start:b.End] {
			texts = append(texts, r.Body)
		}

		results, err := e.extract(ctx, e.built, ai.BuiltInstruction, texts)
		if err != nil {
			return fmt.Errorf("built batch %d: %w", i+1, err)
		}
		for _, res := range results {
			if res.Value == "" {
				continue
			}
			reviews[b.Start+res.Index-1].Built = res.Value
		}
	}
	return nil
}

// Sentiment classifies reviews that carry no rating. Results are written
// back by position in reviews, so rated reviews are never touched and
// reviews without an id are not confused with each other.
func (e *Enricher) Sentiment(ctx context.Context, reviews []types.Review) error {
	if e.sentiment == nil {
		return nil
	}
	if err := e.sentiment.Ready(); err != nil {
		return err
	}

	var unrated []int
	for i, r := range reviews {
		if r.Rating == nil {
			unrated = append(unrated, i)
		}
	}

	for i, b := range Batches(len(unrated), e.batchSize) {
		if i > 0 {
			if err := engine.Sleep(ctx, e.delay); err != nil {
				return err
			}
		}
		batch := unrated[b.Start:b.End]
		texts := make([]string, 0, len(batch))
		for _, idx := range batch {
			texts = append(texts, reviews[idx].Body)
		}

		results, err := e.extract(ctx, e.sentiment, ai.SentimentInstruction, texts)
		if err != nil {
			return fmt.Errorf("sentiment batch %d: %w", i+1, err)
		}
		for _, res := range results {
			value := strings.ToLower(res.Value)
			if value == "" {
				continue
			}
			reviews[batch[res.Index-1]].Sentiment = &value
		}
	}
	return nil
}

// extract runs one batch and checks every result addresses an input.
func (e *Enricher) extract(ctx context.Context, x ai.Extractor, instruction string, texts []string) ([]ai.Result, error) {
	e.metrics.EnrichBatches.Add(1)
	results, err := x.Extract(ctx, instruction, texts)
	if err == nil {
		for _, r := range results {
			if r.Index < 1 || r.Index > len(texts) {
				err = fmt.Errorf("%w: %s returned index %d for %d inputs", types.ErrMalformedExtraction, x.Name(), r.Index, len(texts))
				break
			}
		}
	}
	if err != nil {
		e.metrics.EnrichBatchesFailed.Add(1)
		e.logger.Error("enrichment batch failed", "extractor", x.Name(), "inputs", len(texts), "error", err)
		return nil, err
	}
	return results, nil
}
