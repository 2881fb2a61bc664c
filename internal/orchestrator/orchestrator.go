// Package orchestrator runs the full crawl of one or more products.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/engine"
	"github.com/IshaanNene/HuntGoat/internal/observability"
	"github.com/IshaanNene/HuntGoat/internal/pipeline"
	"github.com/IshaanNene/HuntGoat/internal/storage"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Crawler fetches one resource of a product.
type Crawler[T any] interface {
	Crawl(ctx context.Context, slug string) (T, error)
}

// Sources are the per-resource crawlers, run in field order.
type Sources struct {
	Reviews  Crawler[[]types.Review]
	Threads  Crawler[[]types.Thread]
	Launches Crawler[[]types.Launch]
	Details  Crawler[*types.ProductDetails]
	Makers   Crawler[[]types.Maker]
}

// Orchestrator sequences the crawlers of a product, runs the post-fetch
// pipeline and hands the bundle to storage. Products are processed one at
// a time.
type Orchestrator struct {
	src      Sources
	pipeline *pipeline.Pipeline
	store    storage.Storage
	delay    time.Duration
	runID    string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates an Orchestrator with a fresh run id. store may be nil to skip
// persistence.
func New(src Sources, p *pipeline.Pipeline, store storage.Storage, delay time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Orchestrator {
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	if p == nil {
		p = pipeline.New(logger)
	}
	return &Orchestrator{
		src:      src,
		pipeline: p,
		store:    store,
		delay:    delay,
		runID:    uuid.NewString(),
		metrics:  metrics,
		logger:   logger.With("component", "orchestrator"),
	}
}

// RunID identifies every bundle produced by this orchestrator.
func (o *Orchestrator) RunID() string { return o.runID }

// RunProduct crawls every resource of slug. A failing resource is logged
// and left empty; the returned error is reserved for an invalid slug,
// cancellation and persistence failures.
func (o *Orchestrator) RunProduct(ctx context.Context, slug string) (*types.Bundle, Summary, error) {
	start := time.Now()
	sum := Summary{Product: slug}
	if err := config.ValidateSlug(slug); err != nil {
		return nil, sum, err
	}

	b := types.NewBundle(o.runID, slug)
	log := o.logger.With("product", slug, "run_id", o.runID)
	log.Info("product crawl started")

	steps := []struct {
		name string
		run  func() error
	}{
		{"reviews", func() error { return fetch(ctx, o.src.Reviews, slug, &b.Reviews) }},
		{"threads", func() error { return fetch(ctx, o.src.Threads, slug, &b.Threads) }},
		{"launches", func() error { return fetch(ctx, o.src.Launches, slug, &b.Launches) }},
		{"details", func() error { return fetch(ctx, o.src.Details, slug, &b.Details) }},
		{"makers", func() error { return fetch(ctx, o.src.Makers, slug, &b.Makers) }},
	}
	for i, step := range steps {
		if i > 0 {
			if err := engine.Sleep(ctx, o.delay); err != nil {
				return b, sum, err
			}
		}
		if err := step.run(); err != nil {
			if ctx.Err() != nil {
				return b, sum, ctx.Err()
			}
			log.Warn("resource failed, continuing with what was fetched", "resource", step.name, "error", err)
			b.AddError(step.name, err)
		}
	}
	ensureSlices(b)

	// Stage failures are recorded on the bundle by the pipeline itself.
	_ = o.pipeline.Process(ctx, b)

	if o.store != nil {
		if err := o.store.Store(ctx, b); err != nil {
			sum = summarize(b, time.Since(start))
			return b, sum, fmt.Errorf("store %s: %w", slug, err)
		}
		o.metrics.RecordsStored.Add(int64(countRecords(b)))
	}

	sum = summarize(b, time.Since(start))
	log.Info("product crawl finished",
		"reviews", sum.Reviews,
		"threads", sum.Threads,
		"launches", sum.Launches,
		"makers", sum.Makers,
		"incomplete_comments", sum.Incomplete,
		"errors", len(b.Errors),
		"duration", sum.Duration,
	)
	return b, sum, nil
}

// RunAll crawls each slug to completion before starting the next. One
// product's failure, including a panic, is logged and never stops the
// rest. Only cancellation ends the loop early.
func (o *Orchestrator) RunAll(ctx context.Context, slugs []string) ([]Summary, error) {
	summaries := make([]Summary, 0, len(slugs))
	for i, slug := range slugs {
		if i > 0 {
			if err := engine.Sleep(ctx, o.delay); err != nil {
				return summaries, err
			}
		}

		sum, err := o.guard(ctx, slug)
		if err != nil {
			if ctx.Err() != nil {
				return summaries, ctx.Err()
			}
			o.metrics.ProductsFailed.Add(1)
			o.logger.Error("product failed", "product", slug, "error", err)
			sum.Product = slug
			sum.Err = err
		} else {
			o.metrics.ProductsOK.Add(1)
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (o *Orchestrator) guard(ctx context.Context, slug string) (sum Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	_, sum, err = o.RunProduct(ctx, slug)
	return sum, err
}

// fetch runs c when configured and stores its result in dst. On error dst
// is left at its zero value, except for a *types.PartialError whose value
// is kept.
func fetch[T any](ctx context.Context, c Crawler[T], slug string, dst *T) error {
	if c == nil {
		return nil
	}
	v, err := c.Crawl(ctx, slug)
	var partial *types.PartialError
	if err != nil && !errors.As(err, &partial) {
		return err
	}
	*dst = v
	return err
}

func ensureSlices(b *types.Bundle) {
	if b.Reviews == nil {
		b.Reviews = []types.Review{}
	}
	if b.Threads == nil {
		b.Threads = []types.Thread{}
	}
	if b.Launches == nil {
		b.Launches = []types.Launch{}
	}
	if b.Makers == nil {
		b.Makers = []types.Maker{}
	}
}

func countRecords(b *types.Bundle) int {
	n := len(b.Reviews) + len(b.Threads) + len(b.Launches) + len(b.Makers)
	if b.Details != nil {
		n++
	}
	return n
}

// ErrNoProducts is returned by the CLI when no slugs were given.
var ErrNoProducts = errors.New("no products to crawl")
