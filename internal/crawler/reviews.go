package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/HuntGoat/internal/engine"
	"github.com/IshaanNene/HuntGoat/internal/normalize"
	"github.com/IshaanNene/HuntGoat/internal/producthunt"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Reviews crawls a product's reviews.
type Reviews struct {
	d      Deps
	logger *slog.Logger
}

// NewReviews creates a reviews crawler.
func NewReviews(d Deps) *Reviews {
	return &Reviews{d: d, logger: d.Logger.With("component", "reviews")}
}

// Crawl fetches up to the configured limit of reviews. Pages are addressed
// by an offset token computed from the running total, not by the cursor
// upstream returns.
func (r *Reviews) Crawl(ctx context.Context, slug string) ([]types.Review, error) {
	h := r.d.Headers.WithReferer(r.d.productURL(slug) + "/reviews")

	fetch := func(ctx context.Context, cursor string) (engine.Page[types.Review], error) {
		conn, err := r.d.Client.Reviews(ctx, h, producthunt.ReviewsVars{
			Slug:   slug,
			Order:  r.d.Crawl.ReviewOrder,
			Limit:  r.d.Crawl.PageSize,
			Cursor: cursor,
		})
		if err != nil {
			return engine.Page[types.Review]{}, err
		}
		nodes := conn.Nodes()
		items := make([]types.Review, 0, len(nodes))
		for _, n := range nodes {
			items = append(items, normalize.Review(n, r.d.SiteURL, slug))
		}
		return engine.Page[types.Review]{Items: items, HasMore: conn.HasNextPage()}, nil
	}

	reviews, err := engine.Paginate(ctx, fetch, engine.PageOptions[types.Review]{
		Limit:      r.d.Crawl.ReviewsLimit,
		Delay:      r.d.Crawl.Delay,
		NextCursor: func(total int, _ engine.Page[types.Review]) string { return engine.OffsetCursor(total) },
		OnPage:     r.d.onPage,
	})
	if err != nil {
		return nil, fmt.Errorf("reviews for %s: %w", slug, err)
	}

	r.logger.Info("reviews fetched", "product", slug, "count", len(reviews))
	return reviews, nil
}
