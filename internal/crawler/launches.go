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

// Launches crawls a product's launches with their comments.
type Launches struct {
	d      Deps
	logger *slog.Logger
}

// NewLaunches creates a launches crawler.
func NewLaunches(d Deps) *Launches {
	return &Launches{d: d, logger: d.Logger.With("component", "launches")}
}

// Crawl fetches the launch list and then each launch's comments, spacing
// launches by the launch delay. Comment failures never fail the crawl: a
// launch keeps whatever comments were gathered before the failure.
func (l *Launches) Crawl(ctx context.Context, slug string) ([]types.Launch, error) {
	h := l.d.Headers.WithReferer(l.d.productURL(slug) + "/launches")

	fetch := func(ctx context.Context, cursor string) (engine.Page[types.Launch], error) {
		conn, err := l.d.Client.Launches(ctx, h, slug, l.d.Crawl.PageSize, cursor)
		if err != nil {
			return engine.Page[types.Launch]{}, err
		}
		nodes := conn.Nodes()
		items := make([]types.Launch, 0, len(nodes))
		for _, n := range nodes {
			items = append(items, normalize.Launch(n, l.d.SiteURL))
		}
		return engine.Page[types.Launch]{Items: items, NextCursor: conn.EndCursor(), HasMore: conn.HasNextPage()}, nil
	}

	launches, err := engine.Paginate(ctx, fetch, engine.PageOptions[types.Launch]{
		Limit:  l.d.Crawl.LaunchesLimit,
		Delay:  l.d.Crawl.Delay,
		OnPage: l.d.onPage,
	})
	if err != nil {
		return nil, fmt.Errorf("launches for %s: %w", slug, err)
	}

	for i := range launches {
		delay := l.d.Crawl.LaunchDelay
		if i == 0 {
			delay = l.d.Crawl.Delay
		}
		if err := engine.Sleep(ctx, delay); err != nil {
			return launches, err
		}
		launches[i].Comments = l.comments(ctx, &launches[i])
	}

	l.logger.Info("launches fetched", "product", slug, "count", len(launches))
	return launches, nil
}

// comments runs the two-stage comment fetch for one launch. The post page
// request yields the post id that every comment page request must carry.
func (l *Launches) comments(ctx context.Context, launch *types.Launch) []types.Comment {
	if launch.Slug == "" {
		return []types.Comment{}
	}
	h := l.d.Headers.WithReferer(launch.URL).WithPHReferer(launch.URL)

	postID, err := l.d.Client.PostID(ctx, h, launch.Slug)
	if err != nil {
		l.logger.Warn("launch comments unavailable", "launch", launch.Slug, "error", err)
		return []types.Comment{}
	}
	if postID == "" {
		return []types.Comment{}
	}
	if err := l.d.pause(ctx); err != nil {
		return []types.Comment{}
	}

	comments, err := engine.Paginate(ctx, commentPages(func(ctx context.Context, cursor string) (producthunt.Connection[producthunt.CommentNode], error) {
		return l.d.Client.LaunchComments(ctx, h, producthunt.CommentsVars{
			ParentID: postID,
			Order:    l.d.Crawl.CommentOrder,
			Limit:    l.d.Crawl.PageSize,
			Cursor:   cursor,
		})
	}), engine.PageOptions[types.Comment]{
		Limit:  l.d.Crawl.CommentsLimit,
		Delay:  l.d.Crawl.Delay,
		OnPage: l.d.onPage,
	})
	if err != nil {
		l.logger.Warn("launch comment pagination stopped early",
			"launch", launch.Slug,
			"kept", len(comments),
			"error", err,
		)
	}
	if comments == nil {
		comments = []types.Comment{}
	}

	if incomplete := l.d.expander(h).ExpandAll(ctx, comments, engine.FromCursor); incomplete > 0 {
		l.logger.Warn("launch has incomplete reply trees", "launch", launch.Slug, "comments", incomplete)
	}
	return comments
}
