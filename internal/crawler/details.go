package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/HuntGoat/internal/normalize"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Details fetches the product page.
type Details struct {
	d      Deps
	logger *slog.Logger
}

// NewDetails creates a details crawler.
func NewDetails(d Deps) *Details {
	return &Details{d: d, logger: d.Logger.With("component", "details")}
}

// Crawl returns the product metadata, or nil when upstream has none.
func (c *Details) Crawl(ctx context.Context, slug string) (*types.ProductDetails, error) {
	h := c.d.Headers.WithReferer(c.d.productURL(slug))
	node, err := c.d.Client.Product(ctx, h, slug)
	if err != nil {
		return nil, fmt.Errorf("details for %s: %w", slug, err)
	}
	c.d.onPage(1)
	return normalize.Details(node, c.d.SiteURL), nil
}
