package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Stage transforms a product bundle after all resources are fetched.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Process updates the bundle in place.
	Process(ctx context.Context, b *types.Bundle) error
}

// Pipeline chains stages together. A failing stage is recorded on the
// bundle and the remaining stages still run, so fetched data is never
// discarded because of a later step.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a stage to the chain.
func (p *Pipeline) Use(s Stage) {
	p.stages = append(p.stages, s)
	p.logger.Debug("stage added", "name", s.Name(), "position", len(p.stages))
}

// Process runs the bundle through every stage in order. The returned error
// joins each stage failure as a *types.StageError.
func (p *Pipeline) Process(ctx context.Context, b *types.Bundle) error {
	var errs []error
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.Process(ctx, b); err != nil {
			serr := &types.StageError{Stage: s.Name(), Err: err}
			p.logger.Error("stage failed", "stage", s.Name(), "product", b.Product, "error", err)
			b.AddError(s.Name(), err)
			errs = append(errs, serr)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of stages in the chain.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
