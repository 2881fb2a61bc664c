// Package crawler drives the per-resource crawls of a single product. Each
// crawler paginates one resource sequentially, normalizes every page and,
// for resources with comments, completes the reply trees.
package crawler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/engine"
	"github.com/IshaanNene/HuntGoat/internal/fetcher"
	"github.com/IshaanNene/HuntGoat/internal/normalize"
	"github.com/IshaanNene/HuntGoat/internal/observability"
	"github.com/IshaanNene/HuntGoat/internal/producthunt"
)

// Deps is shared by every crawler.
type Deps struct {
	Client  *producthunt.Client
	Crawl   config.CrawlConfig
	SiteURL string
	Headers fetcher.Headers
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// NewDeps wires the crawler dependencies from configuration.
func NewDeps(cfg *config.Config, f fetcher.Fetcher, metrics *observability.Metrics, logger *slog.Logger) Deps {
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return Deps{
		Client:  producthunt.NewClient(f, logger),
		Crawl:   cfg.Crawl,
		SiteURL: strings.TrimRight(cfg.Upstream.SiteURL, "/"),
		Headers: fetcher.BaseHeaders(cfg.Upstream.SiteURL, cfg.Upstream.UserAgent),
		Metrics: metrics,
		Logger:  logger,
	}
}

func (d Deps) productURL(slug string) string {
	return normalize.ProductURL(d.SiteURL, slug)
}

func (d Deps) onPage(n int) {
	if n > 0 {
		d.Metrics.PagesFetched.Add(1)
	}
}

func (d Deps) pause(ctx context.Context) error {
	return engine.Sleep(ctx, d.Crawl.Delay)
}

// replyFunc binds reply fetching to one call group's headers.
func (d Deps) replyFunc(h fetcher.Headers) engine.ReplyFunc {
	return func(ctx context.Context, commentID, cursor string, exclude []string) (engine.ReplyPage, error) {
		conn, err := d.Client.Replies(ctx, h, producthunt.RepliesVars{
			CommentID:  commentID,
			Limit:      d.Crawl.ReplyPageSize,
			Cursor:     cursor,
			ExcludeIDs: exclude,
		})
		if err != nil {
			return engine.ReplyPage{}, err
		}
		replies := normalize.Comments(conn.Nodes())
		for i := range replies {
			if replies[i].ParentID == nil {
				parent := commentID
				replies[i].ParentID = &parent
			}
		}
		return engine.ReplyPage{
			Replies:     replies,
			EndCursor:   conn.EndCursor(),
			HasNextPage: conn.HasNextPage(),
		}, nil
	}
}

func (d Deps) expander(h fetcher.Headers) *engine.ReplyExpander {
	return engine.NewReplyExpander(d.replyFunc(h), d.Crawl.MaxReplyAttempts, d.Crawl.Delay, d.Metrics, d.Logger)
}
