package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HuntGoat/internal/observability"
	"github.com/IshaanNene/HuntGoat/internal/pipeline"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// crawlFunc adapts a function to Crawler.
type crawlFunc[T any] func(ctx context.Context, slug string) (T, error)

func (f crawlFunc[T]) Crawl(ctx context.Context, slug string) (T, error) { return f(ctx, slug) }

type recordingStore struct {
	bundles []*types.Bundle
	err     error
}

func (s *recordingStore) Name() string { return "recording" }
func (s *recordingStore) Store(_ context.Context, b *types.Bundle) error {
	s.bundles = append(s.bundles, b)
	return s.err
}
func (s *recordingStore) Close() error { return nil }

func sources(order *[]string) Sources {
	track := func(name string) { *order = append(*order, name) }
	return Sources{
		Reviews: crawlFunc[[]types.Review](func(_ context.Context, slug string) ([]types.Review, error) {
			track("reviews")
			return []types.Review{{ID: slug + "-r1"}}, nil
		}),
		Threads: crawlFunc[[]types.Thread](func(context.Context, string) ([]types.Thread, error) {
			track("threads")
			return []types.Thread{{ID: "t1", Title: "Hello", Author: types.Person{ID: "U1"}, Comments: []types.Comment{
				{ID: "c1", Author: types.Person{ID: "U2"}, Replies: []types.Comment{{ID: "c1r1"}}, RepliesCount: 3, HasMoreReplies: true},
			}}}, nil
		}),
		Launches: crawlFunc[[]types.Launch](func(context.Context, string) ([]types.Launch, error) {
			track("launches")
			return []types.Launch{{ID: "p1", Comments: []types.Comment{{ID: "k1", Author: types.Person{ID: "U1"}}}}}, nil
		}),
		Details: crawlFunc[*types.ProductDetails](func(_ context.Context, slug string) (*types.ProductDetails, error) {
			track("details")
			return &types.ProductDetails{Slug: slug}, nil
		}),
		Makers: crawlFunc[[]types.Maker](func(context.Context, string) ([]types.Maker, error) {
			track("makers")
			return []types.Maker{{ID: "U1"}, {ID: "U3"}}, nil
		}),
	}
}

func correlatingPipeline() *pipeline.Pipeline {
	p := pipeline.New(testLogger)
	p.Use(pipeline.CorrelateStage{})
	return p
}

func TestRunProductSequence(t *testing.T) {
	var order []string
	store := &recordingStore{}
	o := New(sources(&order), correlatingPipeline(), store, 0, nil, testLogger)

	b, sum, err := o.RunProduct(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, []string{"reviews", "threads", "launches", "details", "makers"}, order)
	require.Len(t, store.bundles, 1)
	assert.Same(t, b, store.bundles[0])
	assert.Equal(t, o.RunID(), b.RunID)

	require.Len(t, b.Makers, 2)
	assert.Len(t, b.Makers[0].ForumThreadsAuthored, 1)
	assert.Len(t, b.Makers[0].LaunchComments, 1)
	assert.NotNil(t, b.Makers[1].ForumComments)

	assert.Equal(t, 1, sum.Reviews)
	assert.Equal(t, 2, sum.ThreadComments)
	assert.Equal(t, 1, sum.LaunchComments)
	assert.Equal(t, 1, sum.Incomplete)
	assert.True(t, sum.HasDetails)
}

func TestRunProductResourceFailureIsContained(t *testing.T) {
	var order []string
	src := sources(&order)
	src.Threads = crawlFunc[[]types.Thread](func(context.Context, string) ([]types.Thread, error) {
		return []types.Thread{{ID: "partial"}}, errors.New("threads down")
	})
	store := &recordingStore{}
	o := New(src, correlatingPipeline(), store, 0, nil, testLogger)

	b, _, err := o.RunProduct(context.Background(), "acme")
	require.NoError(t, err)
	assert.NotNil(t, b.Threads)
	assert.Empty(t, b.Threads, "failed resource is left empty")
	assert.Len(t, b.Reviews, 1)
	assert.Len(t, b.Launches, 1)
	require.Len(t, b.Errors, 1)
	assert.True(t, strings.HasPrefix(b.Errors[0], "threads: "))
	assert.Len(t, store.bundles, 1)
}

func TestRunProductKeepsPartialResource(t *testing.T) {
	var order []string
	src := sources(&order)
	src.Threads = crawlFunc[[]types.Thread](func(context.Context, string) ([]types.Thread, error) {
		return []types.Thread{{ID: "t1", Comments: []types.Comment{}}, {ID: "t2", Comments: []types.Comment{}}},
			&types.PartialError{Resource: "threads", Err: errors.New("comments for thread t1: reset")}
	})
	o := New(src, nil, &recordingStore{}, 0, nil, testLogger)

	b, sum, err := o.RunProduct(context.Background(), "acme")
	require.NoError(t, err)
	assert.Len(t, b.Threads, 2)
	assert.Equal(t, 2, sum.Threads)
	require.Len(t, b.Errors, 1)
	assert.Contains(t, b.Errors[0], "comments for thread t1")
}

func TestCountCommentsIgnoresCountMismatch(t *testing.T) {
	total, incomplete := countComments([]types.Comment{
		{ID: "a", RepliesCount: 4, Replies: []types.Comment{{ID: "a1"}}},
		{ID: "b", RepliesCount: 4, Replies: []types.Comment{{ID: "b1"}}, HasMoreReplies: true},
		{ID: "c"},
	})
	assert.Equal(t, 5, total)
	assert.Equal(t, 1, incomplete)
}

func TestRunProductInvalidSlug(t *testing.T) {
	var order []string
	o := New(sources(&order), nil, nil, 0, nil, testLogger)
	_, _, err := o.RunProduct(context.Background(), "Bad Slug")
	assert.Error(t, err)
	assert.Empty(t, order)
}

func TestRunAllContinuesAfterFailure(t *testing.T) {
	var order []string
	src := sources(&order)
	src.Reviews = crawlFunc[[]types.Review](func(_ context.Context, slug string) ([]types.Review, error) {
		if slug == "boom" {
			panic("unexpected nil")
		}
		return nil, nil
	})
	store := &recordingStore{}
	metrics := observability.NewMetrics(testLogger)
	o := New(src, nil, store, 0, metrics, testLogger)

	sums, err := o.RunAll(context.Background(), []string{"alpha", "boom", "Not Valid", "omega"})
	require.NoError(t, err)
	require.Len(t, sums, 4)

	assert.NoError(t, sums[0].Err)
	assert.Error(t, sums[1].Err)
	assert.Error(t, sums[2].Err)
	assert.NoError(t, sums[3].Err)
	assert.Equal(t, "omega", sums[3].Product)

	assert.EqualValues(t, 2, metrics.ProductsOK.Load())
	assert.EqualValues(t, 2, metrics.ProductsFailed.Load())
	assert.Len(t, store.bundles, 2)
	for _, b := range store.bundles {
		assert.Equal(t, o.RunID(), b.RunID)
	}
}

func TestRunAllStoreFailure(t *testing.T) {
	var order []string
	store := &recordingStore{err: errors.New("disk full")}
	o := New(sources(&order), nil, store, 0, nil, testLogger)

	sums, err := o.RunAll(context.Background(), []string{"acme", "beta"})
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Error(t, sums[0].Err)
	assert.Equal(t, 1, sums[0].Reviews, "summary still reports what was fetched")
}

func TestRunAllCancelled(t *testing.T) {
	var order []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := New(sources(&order), nil, nil, 0, nil, testLogger)

	_, err := o.RunAll(ctx, []string{"acme", "beta"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadSlugs(t *testing.T) {
	in := "acme\n\n# comment\n  beta  # trailing\nacme\ngamma\n"
	slugs, err := ReadSlugs(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "beta", "gamma"}, slugs)
}
