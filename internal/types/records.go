package types

import "time"

// Person identifies an upstream user as it appears on a record.
type Person struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Review is a single product review.
type Review struct {
	ID            string  `json:"id"`
	URL           string  `json:"url"`
	Reviewer      Person  `json:"reviewer"`
	Body          string  `json:"body"`
	Rating        *int    `json:"rating"`
	Sentiment     *string `json:"sentiment"`
	Built         string  `json:"built"`
	CreatedAt     string  `json:"createdAt"`
	HelpfulVotes  int     `json:"helpfulVotes"`
	Verified      bool    `json:"verified"`
	CommentsCount int     `json:"commentsCount"`
}

// Comment is shared by forum threads and launches. Replies hold one level
// of children; a reply's own replies are kept only if upstream inlined them.
type Comment struct {
	ID               string    `json:"id"`
	Author           Person    `json:"author"`
	Body             string    `json:"body"`
	CreatedAt        string    `json:"createdAt"`
	VotesCount       int       `json:"votesCount"`
	IsSticky         bool      `json:"isSticky"`
	IsPinned         bool      `json:"isPinned"`
	ParentID         *string   `json:"parentId"`
	Replies          []Comment `json:"replies"`
	RepliesCount     int       `json:"repliesCount"`
	HasMoreReplies   bool      `json:"hasMoreReplies"`
	RepliesEndCursor string    `json:"repliesEndCursor"`
}

// Incomplete reports whether more replies exist upstream than are held.
func (c *Comment) Incomplete() bool {
	return c.HasMoreReplies || c.RepliesCount > len(c.Replies)
}

// Thread is a forum discussion topic.
type Thread struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Author        Person    `json:"author"`
	CreatedAt     string    `json:"createdAt"`
	IsFeatured    bool      `json:"isFeatured"`
	IsPinned      bool      `json:"isPinned"`
	VotesCount    int       `json:"votesCount"`
	CommentsCount int       `json:"commentsCount"`
	Comments      []Comment `json:"comments"`
}

// Launch is one launch (post) of the product.
type Launch struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Tagline       string    `json:"tagline"`
	URL           string    `json:"url"`
	VotesCount    int       `json:"votesCount"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     string    `json:"createdAt"`
	DailyRank     int       `json:"dailyRank"`
	WeeklyRank    int       `json:"weeklyRank"`
	MonthlyRank   int       `json:"monthlyRank"`
	Comments      []Comment `json:"comments"`
}

// PostSummary is a compact launch reference embedded in makers and details.
type PostSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Tagline    string `json:"tagline"`
	CreatedAt  string `json:"createdAt"`
	VotesCount int    `json:"votesCount"`
}

// ActivityComment is a comment attributed to a maker by the correlator.
type ActivityComment struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	CreatedAt  string  `json:"createdAt"`
	VotesCount int     `json:"votesCount"`
	ParentID   *string `json:"parentId"`
	IsReply    bool    `json:"isReply"`
	SourceID   string  `json:"sourceId"`
	SourceName string  `json:"sourceName"`
}

// ThreadSummary is a forum thread attributed to a maker.
type ThreadSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	CreatedAt     string `json:"createdAt"`
	CommentsCount int    `json:"commentsCount"`
	VotesCount    int    `json:"votesCount"`
}

// Maker is a user credited on the product. The three activity slices are
// owned by the correlator and are never nil once it has run.
type Maker struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Username             string            `json:"username"`
	Headline             string            `json:"headline"`
	FollowersCount       int               `json:"followersCount"`
	Posts                []PostSummary     `json:"posts"`
	LaunchComments       []ActivityComment `json:"launchComments"`
	ForumComments        []ActivityComment `json:"forumComments"`
	ForumThreadsAuthored []ThreadSummary   `json:"forumThreadsAuthored"`
}

// Media is an image or video attached to the product page.
type Media struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	VideoURL string `json:"videoUrl"`
}

// ProductDetails is the product metadata object.
type ProductDetails struct {
	ID                string        `json:"id"`
	Slug              string        `json:"slug"`
	Name              string        `json:"name"`
	Tagline           string        `json:"tagline"`
	Description       string        `json:"description"`
	URL               string        `json:"url"`
	WebsiteURL        string        `json:"websiteUrl"`
	ReviewsRating     float64       `json:"reviewsRating"`
	ReviewsCount      int           `json:"reviewsCount"`
	PostsCount        int           `json:"postsCount"`
	StacksCount       int           `json:"stacksCount"`
	AlternativesCount int           `json:"alternativesCount"`
	ShoutoutsCount    int           `json:"shoutoutsCount"`
	Categories        []string      `json:"categories"`
	Media             []Media       `json:"media"`
	Posts             []PostSummary `json:"posts"`
}

// Bundle is everything gathered for one product in one run.
type Bundle struct {
	RunID     string          `json:"runId"`
	Product   string          `json:"product"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Reviews   []Review        `json:"reviews"`
	Threads   []Thread        `json:"threads"`
	Launches  []Launch        `json:"launches"`
	Details   *ProductDetails `json:"details"`
	Makers    []Maker         `json:"makers"`
	Errors    []string        `json:"errors,omitempty"`
}

// NewBundle creates an empty bundle for a product.
func NewBundle(runID, product string) *Bundle {
	return &Bundle{
		RunID:     runID,
		Product:   product,
		FetchedAt: time.Now(),
	}
}

// AddError records a non-fatal failure against the bundle.
func (b *Bundle) AddError(stage string, err error) {
	b.Errors = append(b.Errors, stage+": "+err.Error())
}
