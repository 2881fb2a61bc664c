package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/HuntGoat/internal/engine"
	"github.com/IshaanNene/HuntGoat/internal/normalize"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Makers crawls the users credited on a product.
type Makers struct {
	d      Deps
	logger *slog.Logger
}

// NewMakers creates a makers crawler.
func NewMakers(d Deps) *Makers {
	return &Makers{d: d, logger: d.Logger.With("component", "makers")}
}

// Crawl returns every maker. Activity fields are left to the correlator.
func (c *Makers) Crawl(ctx context.Context, slug string) ([]types.Maker, error) {
	h := c.d.Headers.WithReferer(c.d.productURL(slug) + "/makers")

	fetch := func(ctx context.Context, cursor string) (engine.Page[types.Maker], error) {
		conn, err := c.d.Client.Makers(ctx, h, slug, c.d.Crawl.PageSize, cursor)
		if err != nil {
			return engine.Page[types.Maker]{}, err
		}
		nodes := conn.Nodes()
		items := make([]types.Maker, 0, len(nodes))
		for _, n := range nodes {
			items = append(items, normalize.Maker(n))
		}
		return engine.Page[types.Maker]{Items: items, NextCursor: conn.EndCursor(), HasMore: conn.HasNextPage()}, nil
	}

	makers, err := engine.Paginate(ctx, fetch, engine.PageOptions[types.Maker]{
		Delay:  c.d.Crawl.Delay,
		OnPage: c.d.onPage,
	})
	if err != nil {
		return nil, fmt.Errorf("makers for %s: %w", slug, err)
	}
	c.logger.Info("makers fetched", "product", slug, "count", len(makers))
	return makers, nil
}
