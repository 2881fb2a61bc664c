// Package correlate attributes crawled activity to a product's makers.
package correlate

import "github.com/IshaanNene/HuntGoat/internal/types"

type activity struct {
	launchComments []types.ActivityComment
	forumComments  []types.ActivityComment
	threads        []types.ThreadSummary
}

// Index maps author ids to the activity found in launches and threads.
type Index struct {
	byAuthor map[string]*activity
}

// NewIndex scans launches, then threads. Within each source comments come
// before their replies, and only one level of replies is read.
func NewIndex(launches []types.Launch, threads []types.Thread) *Index {
	idx := &Index{byAuthor: make(map[string]*activity)}

	for _, l := range launches {
		for _, c := range l.Comments {
			idx.addLaunchComment(c, l, false)
			for _, r := range c.Replies {
				idx.addLaunchComment(r, l, true)
			}
		}
	}

	for _, th := range threads {
		if a := idx.get(th.Author.ID); a != nil {
			a.threads = append(a.threads, types.ThreadSummary{
				ID:            th.ID,
				Title:         th.Title,
				URL:           th.URL,
				CreatedAt:     th.CreatedAt,
				CommentsCount: th.CommentsCount,
				VotesCount:    th.VotesCount,
			})
		}
		for _, c := range th.Comments {
			idx.addForumComment(c, th, false)
			for _, r := range c.Replies {
				idx.addForumComment(r, th, true)
			}
		}
	}
	return idx
}

// get returns the entry for id, creating it. Records without an author id
// are not indexed.
func (x *Index) get(id string) *activity {
	if id == "" {
		return nil
	}
	a, ok := x.byAuthor[id]
	if !ok {
		a = &activity{}
		x.byAuthor[id] = a
	}
	return a
}

func (x *Index) addLaunchComment(c types.Comment, l types.Launch, reply bool) {
	if a := x.get(c.Author.ID); a != nil {
		a.launchComments = append(a.launchComments, toActivity(c, reply, l.ID, l.Name))
	}
}

func (x *Index) addForumComment(c types.Comment, th types.Thread, reply bool) {
	if a := x.get(c.Author.ID); a != nil {
		a.forumComments = append(a.forumComments, toActivity(c, reply, th.ID, th.Title))
	}
}

func toActivity(c types.Comment, reply bool, sourceID, sourceName string) types.ActivityComment {
	return types.ActivityComment{
		ID:         c.ID,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
		VotesCount: c.VotesCount,
		ParentID:   c.ParentID,
		IsReply:    reply,
		SourceID:   sourceID,
		SourceName: sourceName,
	}
}

// Attach returns a copy of m with its three activity slices set. They are
// never nil.
func (x *Index) Attach(m types.Maker) types.Maker {
	m.LaunchComments = []types.ActivityComment{}
	m.ForumComments = []types.ActivityComment{}
	m.ForumThreadsAuthored = []types.ThreadSummary{}
	if a, ok := x.byAuthor[m.ID]; ok && m.ID != "" {
		m.LaunchComments = append(m.LaunchComments, a.launchComments...)
		m.ForumComments = append(m.ForumComments, a.forumComments...)
		m.ForumThreadsAuthored = append(m.ForumThreadsAuthored, a.threads...)
	}
	return m
}

// Makers returns makers in input order with their activity attached. The
// input slice is not modified.
func Makers(makers []types.Maker, launches []types.Launch, threads []types.Thread) []types.Maker {
	idx := NewIndex(launches, threads)
	out := make([]types.Maker, 0, len(makers))
	for _, m := range makers {
		out = append(out, idx.Attach(m))
	}
	return out
}
