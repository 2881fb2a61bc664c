// Package producthunt binds the persisted GraphQL operations to typed
// response schemas.
package producthunt

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/fetcher"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Client issues typed operations over a Fetcher.
//
// Transport errors are returned. A response that decodes but lacks the
// expected path yields the zero connection and a nil error; the mismatch is
// logged as a ShapeError.
type Client struct {
	f      fetcher.Fetcher
	logger *slog.Logger
}

// NewClient creates a Client.
func NewClient(f fetcher.Fetcher, logger *slog.Logger) *Client {
	return &Client{f: f, logger: logger.With("component", "producthunt")}
}

// query runs op and decodes its data member into R. A nil result with a nil
// error means the payload did not match R.
func query[R any](ctx context.Context, c *Client, op string, vars map[string]any, h fetcher.Headers) (*R, error) {
	raw, err := c.f.Query(ctx, &fetcher.Request{Operation: op, Variables: vars, Headers: h})
	if err != nil {
		return nil, err
	}
	var out R
	if err := json.Unmarshal(raw, &out); err != nil {
		c.shape(op, "data", err)
		return nil, nil
	}
	return &out, nil
}

func (c *Client) shape(op, path string, cause error) {
	attrs := []any{"error", &types.ShapeError{Operation: op, Path: path}}
	if cause != nil {
		attrs = append(attrs, "cause", cause)
	}
	c.logger.Warn("treating response as empty", attrs...)
}

// ReviewsVars selects a reviews page. Cursor is an offset token.
type ReviewsVars struct {
	Slug   string
	Order  string
	Limit  int
	Cursor string
}

// Reviews fetches one page of product reviews.
func (c *Client) Reviews(ctx context.Context, h fetcher.Headers, v ReviewsVars) (Connection[ReviewNode], error) {
	data, err := query[reviewsData](ctx, c, config.OpProductReviews, map[string]any{
		"slug":   v.Slug,
		"order":  v.Order,
		"limit":  v.Limit,
		"cursor": nullable(v.Cursor),
	}, h)
	if err != nil || data == nil {
		return Connection[ReviewNode]{}, err
	}
	if data.Product == nil || data.Product.Reviews == nil {
		c.shape(config.OpProductReviews, "product.reviews", nil)
		return Connection[ReviewNode]{}, nil
	}
	return *data.Product.Reviews, nil
}

// ForumPage is one page of threads plus the forum they belong to.
type ForumPage struct {
	ForumSlug string
	Threads   Connection[ThreadNode]
}

// Threads fetches one page of the product's forum threads.
func (c *Client) Threads(ctx context.Context, h fetcher.Headers, slug string, limit int, cursor string) (ForumPage, error) {
	data, err := query[threadsData](ctx, c, config.OpForumThreads, map[string]any{
		"slug":   slug,
		"limit":  limit,
		"cursor": nullable(cursor),
	}, h)
	if err != nil || data == nil {
		return ForumPage{}, err
	}
	if data.Product == nil || data.Product.Forum == nil || data.Product.Forum.Threads == nil {
		c.shape(config.OpForumThreads, "product.forum.threads", nil)
		return ForumPage{}, nil
	}
	forum := data.Product.Forum
	page := ForumPage{Threads: *forum.Threads}
	if forum.Slug != nil {
		page.ForumSlug = *forum.Slug
	}
	return page, nil
}

// CommentsVars selects a page of top-level comments under a parent.
type CommentsVars struct {
	ParentID string
	Order    string
	Limit    int
	Cursor   string
}

// ThreadComments fetches one page of a thread's top-level comments.
func (c *Client) ThreadComments(ctx context.Context, h fetcher.Headers, v CommentsVars) (Connection[CommentNode], error) {
	data, err := query[threadCommentsData](ctx, c, config.OpThreadComments, map[string]any{
		"threadId": v.ParentID,
		"order":    v.Order,
		"limit":    v.Limit,
		"cursor":   nullable(v.Cursor),
	}, h)
	if err != nil || data == nil {
		return Connection[CommentNode]{}, err
	}
	if data.DiscussionThread == nil || data.DiscussionThread.Comments == nil {
		c.shape(config.OpThreadComments, "discussionThread.comments", nil)
		return Connection[CommentNode]{}, nil
	}
	return *data.DiscussionThread.Comments, nil
}

// RepliesVars selects a page of direct replies to one comment.
type RepliesVars struct {
	CommentID  string
	Limit      int
	Cursor     string
	ExcludeIDs []string
}

// Replies fetches one page of replies to a comment.
func (c *Client) Replies(ctx context.Context, h fetcher.Headers, v RepliesVars) (Connection[CommentNode], error) {
	exclude := v.ExcludeIDs
	if exclude == nil {
		exclude = []string{}
	}
	data, err := query[repliesData](ctx, c, config.OpCommentReplies, map[string]any{
		"commentId":  v.CommentID,
		"limit":      v.Limit,
		"cursor":     nullable(v.Cursor),
		"excludeIds": exclude,
	}, h)
	if err != nil || data == nil {
		return Connection[CommentNode]{}, err
	}
	if data.Comment == nil || data.Comment.Replies == nil {
		c.shape(config.OpCommentReplies, "comment.replies", nil)
		return Connection[CommentNode]{}, nil
	}
	return *data.Comment.Replies, nil
}

// Launches fetches one page of the product's launches.
func (c *Client) Launches(ctx context.Context, h fetcher.Headers, slug string, limit int, cursor string) (Connection[PostNode], error) {
	data, err := query[launchesData](ctx, c, config.OpProductLaunches, map[string]any{
		"slug":   slug,
		"limit":  limit,
		"cursor": nullable(cursor),
	}, h)
	if err != nil || data == nil {
		return Connection[PostNode]{}, err
	}
	if data.Product == nil || data.Product.Posts == nil {
		c.shape(config.OpProductLaunches, "product.posts", nil)
		return Connection[PostNode]{}, nil
	}
	return *data.Product.Posts, nil
}

// PostID resolves a launch slug to the post identifier that every launch
// comment page must carry. An empty id with a nil error means upstream
// returned no post.
func (c *Client) PostID(ctx context.Context, h fetcher.Headers, postSlug string) (string, error) {
	data, err := query[postPageData](ctx, c, config.OpLaunchPage, map[string]any{
		"slug": postSlug,
	}, h)
	if err != nil || data == nil {
		return "", err
	}
	if data.Post == nil || data.Post.ID == "" {
		c.shape(config.OpLaunchPage, "post.id", nil)
		return "", nil
	}
	return data.Post.ID, nil
}

// LaunchComments fetches one page of a launch's top-level comments.
// ParentID must be the id returned by PostID.
func (c *Client) LaunchComments(ctx context.Context, h fetcher.Headers, v CommentsVars) (Connection[CommentNode], error) {
	data, err := query[postCommentsData](ctx, c, config.OpLaunchComments, map[string]any{
		"postId": v.ParentID,
		"order":  v.Order,
		"limit":  v.Limit,
		"cursor": nullable(v.Cursor),
	}, h)
	if err != nil || data == nil {
		return Connection[CommentNode]{}, err
	}
	if data.Post == nil || data.Post.Comments == nil {
		c.shape(config.OpLaunchComments, "post.comments", nil)
		return Connection[CommentNode]{}, nil
	}
	return *data.Post.Comments, nil
}

// Product fetches the product page. A nil node with a nil error means the
// payload had no product.
func (c *Client) Product(ctx context.Context, h fetcher.Headers, slug string) (*ProductNode, error) {
	data, err := query[productData](ctx, c, config.OpProductDetails, map[string]any{
		"slug": slug,
	}, h)
	if err != nil || data == nil {
		return nil, err
	}
	if data.Product == nil {
		c.shape(config.OpProductDetails, "product", nil)
		return nil, nil
	}
	return data.Product, nil
}

// Makers fetches one page of the product's makers.
func (c *Client) Makers(ctx context.Context, h fetcher.Headers, slug string, limit int, cursor string) (Connection[MakerNode], error) {
	data, err := query[makersData](ctx, c, config.OpProductMakers, map[string]any{
		"slug":   slug,
		"limit":  limit,
		"cursor": nullable(cursor),
	}, h)
	if err != nil || data == nil {
		return Connection[MakerNode]{}, err
	}
	if data.Product == nil || data.Product.Makers == nil {
		c.shape(config.OpProductMakers, "product.makers", nil)
		return Connection[MakerNode]{}, nil
	}
	return *data.Product.Makers, nil
}

// nullable maps an empty cursor to JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
