package producthunt

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/fetcher"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeFetcher answers every call with the payload registered for its
// operation and records the requests it saw.
type fakeFetcher struct {
	payloads map[string]string
	err      error
	requests []*fetcher.Request
}

func (f *fakeFetcher) Query(_ context.Context, req *fetcher.Request) (json.RawMessage, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.payloads[req.Operation]), nil
}

func (f *fakeFetcher) Close() error { return nil }

func TestReviewsDecode(t *testing.T) {
	ff := &fakeFetcher{payloads: map[string]string{
		config.OpProductReviews: `{"product":{"reviews":{
			"totalCount": 12,
			"edges":[
				{"node":{"id":"r1","body":"great","rating":5,"user":{"id":"u1","name":"Ann","username":"ann"}}},
				{"node":null},
				{"node":{"id":"r2","rating":null}}
			],
			"pageInfo":{"endCursor":"MTA=","hasNextPage":true}}}}`,
	}}
	c := NewClient(ff, testLogger)

	base := fetcher.BaseHeaders("https://example.com", "ua")
	conn, err := c.Reviews(context.Background(), base, ReviewsVars{Slug: "acme", Order: "BEST", Limit: 10})
	require.NoError(t, err)

	nodes := conn.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "r1", nodes[0].ID)
	assert.Equal(t, 5, *nodes[0].Rating)
	assert.Nil(t, nodes[1].Rating)
	assert.Equal(t, "MTA=", conn.EndCursor())
	assert.True(t, conn.HasNextPage())
	assert.Equal(t, 12, conn.Count())

	require.Len(t, ff.requests, 1)
	vars := ff.requests[0].Variables
	assert.Equal(t, "acme", vars["slug"])
	assert.Equal(t, 10, vars["limit"])
	assert.Nil(t, vars["cursor"], "first page sends a null cursor")
}

func TestShapeMismatchIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"null product", `{"product":null}`},
		{"missing connection", `{"product":{}}`},
		{"wrong type", `{"product":{"reviews":{"edges":"nope"}}}`},
		{"not an object", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ff := &fakeFetcher{payloads: map[string]string{config.OpProductReviews: tt.payload}}
			conn, err := NewClient(ff, testLogger).Reviews(context.Background(), fetcher.Headers{}, ReviewsVars{Slug: "acme"})
			require.NoError(t, err)
			assert.Empty(t, conn.Nodes())
			assert.False(t, conn.HasNextPage())
		})
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	ff := &fakeFetcher{err: boom}
	c := NewClient(ff, testLogger)

	_, err := c.Threads(context.Background(), fetcher.Headers{}, "acme", 10, "")
	assert.ErrorIs(t, err, boom)

	_, err = c.PostID(context.Background(), fetcher.Headers{}, "acme-2")
	assert.ErrorIs(t, err, boom)
}

func TestRepliesVariables(t *testing.T) {
	ff := &fakeFetcher{payloads: map[string]string{
		config.OpCommentReplies: `{"comment":{"replies":{"edges":[{"node":{"id":"x","parent":{"id":"c"}}}],"pageInfo":{"hasNextPage":false}}}}`,
	}}
	c := NewClient(ff, testLogger)

	conn, err := c.Replies(context.Background(), fetcher.Headers{}, RepliesVars{CommentID: "c", Limit: 10, Cursor: "c1", ExcludeIDs: []string{"a"}})
	require.NoError(t, err)
	require.Len(t, conn.Nodes(), 1)
	assert.Equal(t, "", conn.EndCursor())

	_, err = c.Replies(context.Background(), fetcher.Headers{}, RepliesVars{CommentID: "c", Limit: 10})
	require.NoError(t, err)

	require.Len(t, ff.requests, 2)
	assert.Equal(t, []string{"a"}, ff.requests[0].Variables["excludeIds"])
	assert.Equal(t, "c1", ff.requests[0].Variables["cursor"])
	assert.Equal(t, []string{}, ff.requests[1].Variables["excludeIds"])
}

func TestThreadsCarryForumSlug(t *testing.T) {
	ff := &fakeFetcher{payloads: map[string]string{
		config.OpForumThreads: `{"product":{"forum":{"id":"f","slug":"acme-forum","threads":{"edges":[{"node":{"id":"t1","title":"Hello"}}]}}}}`,
	}}
	page, err := NewClient(ff, testLogger).Threads(context.Background(), fetcher.Headers{}, "acme", 10, "")
	require.NoError(t, err)
	assert.Equal(t, "acme-forum", page.ForumSlug)
	require.Len(t, page.Threads.Nodes(), 1)
	assert.Equal(t, "Hello", *page.Threads.Nodes()[0].Title)
}

func TestPostIDAndLaunchComments(t *testing.T) {
	ff := &fakeFetcher{payloads: map[string]string{
		config.OpLaunchPage:     `{"post":{"id":"p42","slug":"acme-2"}}`,
		config.OpLaunchComments: `{"post":{"comments":{"edges":[{"node":{"id":"c1","repliesCount":2,"replies":{"edges":[{"node":{"id":"c1r1"}}],"pageInfo":{"endCursor":"rc","hasNextPage":true}}}}]}}}`,
	}}
	c := NewClient(ff, testLogger)

	id, err := c.PostID(context.Background(), fetcher.Headers{}, "acme-2")
	require.NoError(t, err)
	assert.Equal(t, "p42", id)

	conn, err := c.LaunchComments(context.Background(), fetcher.Headers{}, CommentsVars{ParentID: id, Limit: 10})
	require.NoError(t, err)
	nodes := conn.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "rc", nodes[0].Replies.EndCursor())
	assert.True(t, nodes[0].Replies.HasNextPage())

	assert.Equal(t, "p42", ff.requests[1].Variables["postId"])
}

func TestPostIDMissing(t *testing.T) {
	ff := &fakeFetcher{payloads: map[string]string{config.OpLaunchPage: `{"post":null}`}}
	id, err := NewClient(ff, testLogger).PostID(context.Background(), fetcher.Headers{}, "gone")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestMakersEmbedUser(t *testing.T) {
	ff := &fakeFetcher{payloads: map[string]string{
		config.OpProductMakers: `{"product":{"makers":{"edges":[{"node":{"id":"U1","name":"Uma","followersCount":7,"madePosts":{"edges":[{"node":{"id":"p1","name":"Acme"}}]}}}]}}}`,
	}}
	conn, err := NewClient(ff, testLogger).Makers(context.Background(), fetcher.Headers{}, "acme", 20, "")
	require.NoError(t, err)
	nodes := conn.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "U1", nodes[0].ID)
	assert.Equal(t, 7, *nodes[0].FollowersCount)
	assert.Len(t, nodes[0].MadePosts.Nodes(), 1)
}

func TestProductMissing(t *testing.T) {
	ff := &fakeFetcher{payloads: map[string]string{config.OpProductDetails: `{"product":null}`}}
	node, err := NewClient(ff, testLogger).Product(context.Background(), fetcher.Headers{}, "gone")
	require.NoError(t, err)
	assert.Nil(t, node)
}
