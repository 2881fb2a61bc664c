package producthunt

// Response schemas for the persisted operations. Every nested path that
// upstream may omit or null out is a pointer or a slice, so a single
// json.Unmarshal either yields a usable value or a nil that the client
// turns into an empty result.

// PageInfo is the relay-style pagination block.
type PageInfo struct {
	EndCursor   *string `json:"endCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// Edge wraps a single node of a connection.
type Edge[T any] struct {
	Cursor *string `json:"cursor"`
	Node   *T      `json:"node"`
}

// Connection is a paginated list of nodes.
type Connection[T any] struct {
	TotalCount *int      `json:"totalCount"`
	Edges      []Edge[T] `json:"edges"`
	PageInfo   *PageInfo `json:"pageInfo"`
}

// Nodes returns the non-null nodes in edge order. It is safe on a nil
// connection.
func (c *Connection[T]) Nodes() []T {
	if c == nil {
		return nil
	}
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		if e.Node != nil {
			out = append(out, *e.Node)
		}
	}
	return out
}

// EndCursor returns the cursor after the last edge, or "".
func (c *Connection[T]) EndCursor() string {
	if c == nil || c.PageInfo == nil || c.PageInfo.EndCursor == nil {
		return ""
	}
	return *c.PageInfo.EndCursor
}

// HasNextPage reports whether upstream has more edges.
func (c *Connection[T]) HasNextPage() bool {
	return c != nil && c.PageInfo != nil && c.PageInfo.HasNextPage
}

// Count returns totalCount, falling back to the number of edges.
func (c *Connection[T]) Count() int {
	if c == nil {
		return 0
	}
	if c.TotalCount != nil {
		return *c.TotalCount
	}
	return len(c.Edges)
}

// User is the author or maker reference embedded in most nodes.
type User struct {
	ID             string  `json:"id"`
	Name           *string `json:"name"`
	Username       *string `json:"username"`
	Headline       *string `json:"headline"`
	FollowersCount *int    `json:"followersCount"`
}

// Ref is a bare identifier reference.
type Ref struct {
	ID string `json:"id"`
}

// ReviewNode is one review.
type ReviewNode struct {
	ID            string  `json:"id"`
	Body          *string `json:"body"`
	Rating        *int    `json:"rating"`
	CreatedAt     *string `json:"createdAt"`
	VotesCount    *int    `json:"votesCount"`
	IsVerified    *bool   `json:"isVerified"`
	CommentsCount *int    `json:"commentsCount"`
	User          *User   `json:"user"`
}

// CommentNode is a thread or launch comment. Replies is populated with the
// first page of direct replies; a reply's own Replies only when upstream
// inlines them.
type CommentNode struct {
	ID           string                   `json:"id"`
	Body         *string                  `json:"body"`
	BodyHTML     *string                  `json:"bodyHtml"`
	CreatedAt    *string                  `json:"createdAt"`
	VotesCount   *int                     `json:"votesCount"`
	IsSticky     *bool                    `json:"isSticky"`
	IsPinned     *bool                    `json:"isPinned"`
	Parent       *Ref                     `json:"parent"`
	User         *User                    `json:"user"`
	RepliesCount *int                     `json:"repliesCount"`
	Replies      *Connection[CommentNode] `json:"replies"`
}

// ThreadNode is a forum discussion thread.
type ThreadNode struct {
	ID            string  `json:"id"`
	Title         *string `json:"title"`
	Slug          *string `json:"slug"`
	CreatedAt     *string `json:"createdAt"`
	IsFeatured    *bool   `json:"isFeatured"`
	IsPinned      *bool   `json:"isPinned"`
	VotesCount    *int    `json:"votesCount"`
	CommentsCount *int    `json:"commentsCount"`
	User          *User   `json:"user"`
}

// PostNode is a launch.
type PostNode struct {
	ID            string  `json:"id"`
	Name          *string `json:"name"`
	Slug          *string `json:"slug"`
	Tagline       *string `json:"tagline"`
	VotesCount    *int    `json:"votesCount"`
	CommentsCount *int    `json:"commentsCount"`
	CreatedAt     *string `json:"createdAt"`
	DailyRank     *int    `json:"dailyRank"`
	WeeklyRank    *int    `json:"weeklyRank"`
	MonthlyRank   *int    `json:"monthlyRank"`
}

// MakerNode is a user credited on the product, with the posts they made.
type MakerNode struct {
	User
	MadePosts *Connection[PostNode] `json:"madePosts"`
}

// MediaNode is an image or video on the product page.
type MediaNode struct {
	MediaType   *string `json:"mediaType"`
	OriginalURL *string `json:"originalUrl"`
	VideoURL    *string `json:"videoUrl"`
}

// TopicNode is a category the product is listed under.
type TopicNode struct {
	Name *string `json:"name"`
}

// ProductNode is the product page payload.
type ProductNode struct {
	ID                string                 `json:"id"`
	Slug              *string                `json:"slug"`
	Name              *string                `json:"name"`
	Tagline           *string                `json:"tagline"`
	Description       *string                `json:"description"`
	URL               *string                `json:"url"`
	WebsiteURL        *string                `json:"websiteUrl"`
	ReviewsRating     *float64               `json:"reviewsRating"`
	ReviewsCount      *int                   `json:"reviewsCount"`
	PostsCount        *int                   `json:"postsCount"`
	StacksCount       *int                   `json:"stacksCount"`
	AlternativesCount *int                   `json:"alternativesCount"`
	ShoutoutsCount    *int                   `json:"shoutoutsCount"`
	Topics            *Connection[TopicNode] `json:"topics"`
	Media             []MediaNode            `json:"media"`
	Posts             *Connection[PostNode]  `json:"posts"`
}

// Forum identifies the product's forum.
type Forum struct {
	ID      string                  `json:"id"`
	Slug    *string                 `json:"slug"`
	Threads *Connection[ThreadNode] `json:"threads"`
}

// Operation payloads. Each mirrors the "data" member of one operation.

type reviewsData struct {
	Product *struct {
		Reviews *Connection[ReviewNode] `json:"reviews"`
	} `json:"product"`
}

type threadsData struct {
	Product *struct {
		Forum *Forum `json:"forum"`
	} `json:"product"`
}

type threadCommentsData struct {
	DiscussionThread *struct {
		Comments *Connection[CommentNode] `json:"comments"`
	} `json:"discussionThread"`
}

type repliesData struct {
	Comment *struct {
		Replies *Connection[CommentNode] `json:"replies"`
	} `json:"comment"`
}

type launchesData struct {
	Product *struct {
		Posts *Connection[PostNode] `json:"posts"`
	} `json:"product"`
}

type postPageData struct {
	Post *struct {
		ID   string  `json:"id"`
		Slug *string `json:"slug"`
	} `json:"post"`
}

type postCommentsData struct {
	Post *struct {
		Comments *Connection[CommentNode] `json:"comments"`
	} `json:"post"`
}

type productData struct {
	Product *ProductNode `json:"product"`
}

type makersData struct {
	Product *struct {
		Makers *Connection[MakerNode] `json:"makers"`
	} `json:"product"`
}
