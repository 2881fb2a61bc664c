package engine

import (
	"context"
	"encoding/base64"
	"strconv"
	"time"
)

// DefaultDelay is the fixed pause between consecutive upstream requests.
const DefaultDelay = time.Second

// Page is one page of items returned by a PageFunc.
type Page[T any] struct {
	Items      []T
	NextCursor string
	HasMore    bool
}

// PageFunc fetches the page that starts at cursor.
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// PageOptions controls a Paginate call.
type PageOptions[T any] struct {
	// Limit caps the number of items returned. Zero means no limit.
	Limit int

	// Delay is slept between two fetches that both execute.
	Delay time.Duration

	// StartCursor is passed to the first fetch.
	StartCursor string

	// NextCursor derives the cursor for the following page from the running
	// total and the page just fetched. Nil uses page.NextCursor.
	NextCursor func(total int, page Page[T]) string

	// OnPage is called after each successful fetch with the page size.
	OnPage func(n int)
}

// Paginate drives fetch until one of the stop conditions holds, checked in
// order after every page: the page was empty, the limit was reached (the
// result is truncated to exactly Limit), or upstream reported no more pages.
//
// A fetch error aborts the loop. The items accumulated before the failing
// page are returned alongside the error so callers that tolerate partial
// results can keep them.
func Paginate[T any](ctx context.Context, fetch PageFunc[T], opts PageOptions[T]) ([]T, error) {
	var items []T
	cursor := opts.StartCursor

	for first := true; ; first = false {
		if !first && opts.Delay > 0 {
			if err := Sleep(ctx, opts.Delay); err != nil {
				return items, err
			}
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			return items, err
		}
		if opts.OnPage != nil {
			opts.OnPage(len(page.Items))
		}

		if len(page.Items) == 0 {
			return items, nil
		}

		items = append(items, page.Items...)
		if opts.Limit > 0 && len(items) >= opts.Limit {
			return items[:opts.Limit], nil
		}

		if !page.HasMore {
			return items, nil
		}

		if opts.NextCursor != nil {
			cursor = opts.NextCursor(len(items), page)
		} else {
			cursor = page.NextCursor
		}
	}
}

// OffsetCursor encodes a running item total as the offset token the reviews
// resource expects in place of an opaque cursor.
//
// Upstream decodes the token as "skip this many reviews", so the encoding
// only lines up with its own pagination while the page size stays at the
// value upstream assumes (10). A change there shows up as overlapping or
// skipped reviews, not as an error.
func OffsetCursor(total int) string {
	if total <= 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(total)))
}

// ParseOffsetCursor decodes an OffsetCursor token.
func ParseOffsetCursor(cursor string) (int, bool) {
	if cursor == "" {
		return 0, true
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
