package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/HuntGoat/internal/engine"
	"github.com/IshaanNene/HuntGoat/internal/normalize"
	"github.com/IshaanNene/HuntGoat/internal/producthunt"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Threads crawls a product's forum threads with their comments.
type Threads struct {
	d      Deps
	logger *slog.Logger
}

// NewThreads creates a threads crawler.
func NewThreads(d Deps) *Threads {
	return &Threads{d: d, logger: d.Logger.With("component", "threads")}
}

// Crawl fetches the thread list, then every thread's top-level comments,
// then the missing replies of each comment. Replies are refetched from the
// first page and merged by id. A thread whose comments fail keeps an empty
// comment list; the threads are returned with a *types.PartialError.
func (t *Threads) Crawl(ctx context.Context, slug string) ([]types.Thread, error) {
	forumURL := t.d.SiteURL + "/p/" + slug
	h := t.d.Headers.WithReferer(forumURL).WithPHReferer(forumURL)

	var forumSlug string
	fetch := func(ctx context.Context, cursor string) (engine.Page[producthunt.ThreadNode], error) {
		page, err := t.d.Client.Threads(ctx, h, slug, t.d.Crawl.PageSize, cursor)
		if err != nil {
			return engine.Page[producthunt.ThreadNode]{}, err
		}
		if page.ForumSlug != "" {
			forumSlug = page.ForumSlug
		}
		return engine.Page[producthunt.ThreadNode]{
			Items:      page.Threads.Nodes(),
			NextCursor: page.Threads.EndCursor(),
			HasMore:    page.Threads.HasNextPage(),
		}, nil
	}

	nodes, err := engine.Paginate(ctx, fetch, engine.PageOptions[producthunt.ThreadNode]{
		Limit:  t.d.Crawl.ThreadsLimit,
		Delay:  t.d.Crawl.Delay,
		OnPage: t.d.onPage,
	})
	if err != nil {
		return nil, fmt.Errorf("threads for %s: %w", slug, err)
	}

	threads := make([]types.Thread, 0, len(nodes))
	for _, n := range nodes {
		threads = append(threads, normalize.Thread(n, t.d.SiteURL, slug, forumSlug))
	}

	var failed []error
	for i := range threads {
		if err := t.d.pause(ctx); err != nil {
			return nil, err
		}
		if err := t.comments(ctx, &threads[i], forumURL); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.logger.Warn("thread comments failed, keeping thread without comments",
				"thread", threads[i].ID,
				"error", err,
			)
			threads[i].Comments = []types.Comment{}
			failed = append(failed, fmt.Errorf("comments for thread %s: %w", threads[i].ID, err))
		}
	}

	t.logger.Info("threads fetched", "product", slug, "count", len(threads), "comment_failures", len(failed))
	if len(failed) > 0 {
		return threads, &types.PartialError{Resource: "threads", Err: errors.Join(failed...)}
	}
	return threads, nil
}

func (t *Threads) comments(ctx context.Context, th *types.Thread, forumURL string) error {
	referer := th.URL
	if referer == "" {
		referer = forumURL
	}
	h := t.d.Headers.WithReferer(referer).WithPHReferer(referer)

	comments, err := engine.Paginate(ctx, commentPages(func(ctx context.Context, cursor string) (producthunt.Connection[producthunt.CommentNode], error) {
		return t.d.Client.ThreadComments(ctx, h, producthunt.CommentsVars{
			ParentID: th.ID,
			Order:    t.d.Crawl.CommentOrder,
			Limit:    t.d.Crawl.PageSize,
			Cursor:   cursor,
		})
	}), engine.PageOptions[types.Comment]{
		Limit:  t.d.Crawl.CommentsLimit,
		Delay:  t.d.Crawl.Delay,
		OnPage: t.d.onPage,
	})
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []types.Comment{}
	}

	if incomplete := t.d.expander(h).ExpandAll(ctx, comments, engine.FromStart); incomplete > 0 {
		t.logger.Warn("thread has incomplete reply trees", "thread", th.ID, "comments", incomplete)
	}
	th.Comments = comments
	return nil
}

// commentPages adapts a connection fetch to a comment PageFunc.
func commentPages(fetch func(ctx context.Context, cursor string) (producthunt.Connection[producthunt.CommentNode], error)) engine.PageFunc[types.Comment] {
	return func(ctx context.Context, cursor string) (engine.Page[types.Comment], error) {
		conn, err := fetch(ctx, cursor)
		if err != nil {
			return engine.Page[types.Comment]{}, err
		}
		return engine.Page[types.Comment]{
			Items:      normalize.Comments(conn.Nodes()),
			NextCursor: conn.EndCursor(),
			HasMore:    conn.HasNextPage(),
		}, nil
	}
}
