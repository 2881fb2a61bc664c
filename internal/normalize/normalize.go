// Package normalize maps decoded upstream nodes onto the canonical records.
// Every function here is pure: missing numbers become 0, missing strings
// become "", and missing references become nil.
package normalize

import (
	"net/url"
	"strings"

	"github.com/IshaanNene/HuntGoat/internal/producthunt"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Person maps an author reference.
func Person(u *producthunt.User) types.Person {
	if u == nil {
		return types.Person{}
	}
	return types.Person{ID: u.ID, Name: str(u.Name), Username: str(u.Username)}
}

// Review maps a review node. site and slug build the review's direct link.
func Review(n producthunt.ReviewNode, site, slug string) types.Review {
	r := types.Review{
		ID:            n.ID,
		URL:           ReviewURL(site, slug, n.ID),
		Reviewer:      Person(n.User),
		Body:          Text(str(n.Body)),
		CreatedAt:     Date(str(n.CreatedAt)),
		HelpfulVotes:  num(n.VotesCount),
		Verified:      flag(n.IsVerified),
		CommentsCount: num(n.CommentsCount),
	}
	if n.Rating != nil && *n.Rating > 0 {
		rating := *n.Rating
		r.Rating = &rating
	}
	return r
}

// Comment maps a comment node together with any replies upstream inlined.
// The replies' pagination state is carried so the expander can resume.
func Comment(n producthunt.CommentNode) types.Comment {
	body := str(n.BodyHTML)
	if body == "" {
		body = str(n.Body)
	}
	c := types.Comment{
		ID:         n.ID,
		Author:     Person(n.User),
		Body:       Text(body),
		CreatedAt:  Date(str(n.CreatedAt)),
		VotesCount: num(n.VotesCount),
		IsSticky:   flag(n.IsSticky),
		IsPinned:   flag(n.IsPinned),
	}
	if n.Parent != nil && n.Parent.ID != "" {
		parent := n.Parent.ID
		c.ParentID = &parent
	}

	replies := n.Replies.Nodes()
	c.Replies = make([]types.Comment, 0, len(replies))
	for _, r := range replies {
		reply := Comment(r)
		if reply.ParentID == nil {
			parent := n.ID
			reply.ParentID = &parent
		}
		c.Replies = append(c.Replies, reply)
	}
	c.RepliesCount = num(n.RepliesCount)
	if n.RepliesCount == nil && n.Replies != nil {
		c.RepliesCount = n.Replies.Count()
	}
	c.HasMoreReplies = n.Replies.HasNextPage()
	c.RepliesEndCursor = n.Replies.EndCursor()
	return c
}

// Comments maps a slice of comment nodes.
func Comments(nodes []producthunt.CommentNode) []types.Comment {
	out := make([]types.Comment, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Comment(n))
	}
	return out
}

// Thread maps a forum thread. Comments are attached by the crawler.
func Thread(n producthunt.ThreadNode, site, productSlug, forumSlug string) types.Thread {
	return types.Thread{
		ID:            n.ID,
		Title:         str(n.Title),
		URL:           ThreadURL(site, productSlug, forumSlug, n.ID),
		Author:        Person(n.User),
		CreatedAt:     Date(str(n.CreatedAt)),
		IsFeatured:    flag(n.IsFeatured),
		IsPinned:      flag(n.IsPinned),
		VotesCount:    num(n.VotesCount),
		CommentsCount: num(n.CommentsCount),
		Comments:      []types.Comment{},
	}
}

// Launch maps a launch. Comments are attached by the crawler.
func Launch(n producthunt.PostNode, site string) types.Launch {
	return types.Launch{
		ID:            n.ID,
		Name:          str(n.Name),
		Slug:          str(n.Slug),
		Tagline:       str(n.Tagline),
		URL:           LaunchURL(site, str(n.Slug)),
		VotesCount:    num(n.VotesCount),
		CommentsCount: num(n.CommentsCount),
		CreatedAt:     Date(str(n.CreatedAt)),
		DailyRank:     num(n.DailyRank),
		WeeklyRank:    num(n.WeeklyRank),
		MonthlyRank:   num(n.MonthlyRank),
		Comments:      []types.Comment{},
	}
}

// PostSummary maps a launch into its compact form.
func PostSummary(n producthunt.PostNode) types.PostSummary {
	return types.PostSummary{
		ID:         n.ID,
		Name:       str(n.Name),
		Slug:       str(n.Slug),
		Tagline:    str(n.Tagline),
		CreatedAt:  Date(str(n.CreatedAt)),
		VotesCount: num(n.VotesCount),
	}
}

func postSummaries(c *producthunt.Connection[producthunt.PostNode]) []types.PostSummary {
	nodes := c.Nodes()
	out := make([]types.PostSummary, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, PostSummary(n))
	}
	return out
}

// Maker maps a maker. The activity slices are left for the correlator.
func Maker(n producthunt.MakerNode) types.Maker {
	return types.Maker{
		ID:             n.ID,
		Name:           str(n.Name),
		Username:       str(n.Username),
		Headline:       str(n.Headline),
		FollowersCount: num(n.FollowersCount),
		Posts:          postSummaries(n.MadePosts),
	}
}

// Details maps the product page. A nil node maps to nil.
func Details(n *producthunt.ProductNode, site string) *types.ProductDetails {
	if n == nil {
		return nil
	}
	d := &types.ProductDetails{
		ID:                n.ID,
		Slug:              str(n.Slug),
		Name:              str(n.Name),
		Tagline:           str(n.Tagline),
		Description:       Text(str(n.Description)),
		URL:               str(n.URL),
		WebsiteURL:        str(n.WebsiteURL),
		ReviewsCount:      num(n.ReviewsCount),
		PostsCount:        num(n.PostsCount),
		StacksCount:       num(n.StacksCount),
		AlternativesCount: num(n.AlternativesCount),
		ShoutoutsCount:    num(n.ShoutoutsCount),
		Categories:        []string{},
		Media:             make([]types.Media, 0, len(n.Media)),
		Posts:             postSummaries(n.Posts),
	}
	if n.ReviewsRating != nil {
		d.ReviewsRating = *n.ReviewsRating
	}
	if d.URL == "" && d.Slug != "" {
		d.URL = ProductURL(site, d.Slug)
	}
	for _, t := range n.Topics.Nodes() {
		if name := str(t.Name); name != "" {
			d.Categories = append(d.Categories, name)
		}
	}
	for _, m := range n.Media {
		d.Media = append(d.Media, types.Media{
			Type:     str(m.MediaType),
			URL:      str(m.OriginalURL),
			VideoURL: str(m.VideoURL),
		})
	}
	return d
}

// ReviewURL links directly to a single review.
func ReviewURL(site, slug, id string) string {
	if id == "" || slug == "" {
		return ""
	}
	return strings.TrimRight(site, "/") + "/products/" + url.PathEscape(slug) + "/reviews?review=" + url.QueryEscape(id)
}

// ThreadURL links to a forum thread. It is empty when the forum slug is
// unknown.
func ThreadURL(site, productSlug, forumSlug, id string) string {
	if productSlug == "" || forumSlug == "" || id == "" {
		return ""
	}
	return strings.TrimRight(site, "/") + "/p/" + url.PathEscape(productSlug) + "/forums/" + url.PathEscape(forumSlug) + "/" + url.PathEscape(id)
}

// LaunchURL links to a launch page.
func LaunchURL(site, slug string) string {
	if slug == "" {
		return ""
	}
	return strings.TrimRight(site, "/") + "/posts/" + url.PathEscape(slug)
}

// ProductURL links to the product page.
func ProductURL(site, slug string) string {
	return strings.TrimRight(site, "/") + "/products/" + url.PathEscape(slug)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func flag(p *bool) bool {
	return p != nil && *p
}
