package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/IshaanNene/HuntGoat/internal/observability"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// DefaultMaxReplyAttempts bounds reply page fetches per comment.
const DefaultMaxReplyAttempts = 5

// ReplyPage is one page of replies to a single comment.
type ReplyPage struct {
	Replies     []types.Comment
	EndCursor   string
	HasNextPage bool
}

// ReplyFunc fetches replies to commentID starting after cursor, asking
// upstream to leave out the listed reply ids.
type ReplyFunc func(ctx context.Context, commentID, cursor string, exclude []string) (ReplyPage, error)

// ExpandMode selects where expansion starts.
type ExpandMode int

const (
	// FromCursor resumes at the comment's stored RepliesEndCursor.
	FromCursor ExpandMode = iota
	// FromStart refetches every reply page from the beginning and relies on
	// deduplication to drop replies already held.
	FromStart
)

func (m ExpandMode) String() string {
	if m == FromStart {
		return "from_start"
	}
	return "from_cursor"
}

// Outcome reports how an expansion ended.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeComplete
	OutcomeBounded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeComplete:
		return "complete"
	case OutcomeBounded:
		return "bounded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReplyExpander fetches the remaining reply pages of a comment.
//
// Only direct replies are expanded. A reply that has replies of its own
// keeps whatever upstream inlined and is not expanded further.
type ReplyExpander struct {
	fetch       ReplyFunc
	maxAttempts int
	delay       time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewReplyExpander creates a ReplyExpander.
func NewReplyExpander(fetch ReplyFunc, maxAttempts int, delay time.Duration, metrics *observability.Metrics, logger *slog.Logger) *ReplyExpander {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxReplyAttempts
	}
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &ReplyExpander{
		fetch:       fetch,
		maxAttempts: maxAttempts,
		delay:       delay,
		metrics:     metrics,
		logger:      logger.With("component", "reply_expander"),
	}
}

// Expand completes c.Replies in place.
//
// On OutcomeComplete HasMoreReplies is false. On OutcomeBounded and
// OutcomeFailed it is left true to mark the sequence as incomplete, and the
// replies gathered so far are kept. Fetch errors never escape.
func (e *ReplyExpander) Expand(ctx context.Context, c *types.Comment, mode ExpandMode) Outcome {
	if !c.Incomplete() {
		return OutcomeSkipped
	}

	cursor := c.RepliesEndCursor
	if mode == FromStart {
		cursor = ""
	}

	seen := NewIDSet(len(c.Replies))
	for _, r := range c.Replies {
		seen.Add(r.ID)
	}
	// Upstream honours the exclusion list on the first page only; later
	// pages rely on local deduplication.
	exclude := seen.IDs()

	before := len(c.Replies)
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, e.delay); err != nil {
				c.HasMoreReplies = true
				e.metrics.ExpansionFailures.Add(1)
				return OutcomeFailed
			}
		}

		page, err := e.fetch(ctx, c.ID, cursor, exclude)
		if err != nil {
			c.HasMoreReplies = true
			e.metrics.ExpansionFailures.Add(1)
			e.metrics.RepliesExpanded.Add(int64(len(c.Replies) - before))
			e.logger.Warn("reply expansion failed, keeping partial replies",
				"comment", c.ID,
				"attempt", attempt+1,
				"replies", len(c.Replies),
				"error", err,
			)
			return OutcomeFailed
		}
		exclude = nil

		for _, r := range page.Replies {
			if seen.Add(r.ID) {
				c.Replies = append(c.Replies, r)
			}
		}
		if page.EndCursor != "" {
			cursor = page.EndCursor
			c.RepliesEndCursor = cursor
		}

		if !page.HasNextPage || len(page.Replies) == 0 {
			c.HasMoreReplies = false
			e.metrics.RepliesExpanded.Add(int64(len(c.Replies) - before))
			e.logger.Debug("replies expanded",
				"comment", c.ID,
				"mode", mode,
				"attempts", attempt+1,
				"replies", len(c.Replies),
			)
			return OutcomeComplete
		}
	}

	c.HasMoreReplies = true
	e.metrics.ExpansionSoftStops.Add(1)
	e.metrics.RepliesExpanded.Add(int64(len(c.Replies) - before))
	e.logger.Warn("reply expansion stopped at attempt bound",
		"comment", c.ID,
		"attempts", e.maxAttempts,
		"replies", len(c.Replies),
		"replies_count", c.RepliesCount,
	)
	return OutcomeBounded
}

// ExpandAll runs Expand over every incomplete comment, pausing between
// comments that needed a request. It returns the number of comments left
// incomplete.
func (e *ReplyExpander) ExpandAll(ctx context.Context, comments []types.Comment, mode ExpandMode) int {
	incomplete := 0
	requested := false
	for i := range comments {
		if !comments[i].Incomplete() {
			continue
		}
		if requested {
			if err := Sleep(ctx, e.delay); err != nil {
				return incomplete + countIncomplete(comments[i:])
			}
		}
		requested = true
		if out := e.Expand(ctx, &comments[i], mode); out != OutcomeComplete {
			incomplete++
		}
	}
	return incomplete
}

func countIncomplete(comments []types.Comment) int {
	n := 0
	for i := range comments {
		if comments[i].Incomplete() {
			n++
		}
	}
	return n
}
