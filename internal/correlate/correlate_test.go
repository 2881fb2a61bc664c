package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HuntGoat/internal/types"
)

func person(id string) types.Person { return types.Person{ID: id} }

func TestMakersAttachActivity(t *testing.T) {
	makers := []types.Maker{{ID: "U1", Name: "Uma"}}
	threads := []types.Thread{
		{ID: "t1", Title: "Hello", Author: person("U1"), Comments: []types.Comment{
			{ID: "c1", Author: person("U9")},
		}},
	}
	launches := []types.Launch{
		{ID: "p1", Name: "Acme", Comments: []types.Comment{
			{ID: "k1", Author: person("U1"), Body: "thanks all"},
		}},
	}

	out := Makers(makers, launches, threads)
	require.Len(t, out, 1)
	m := out[0]

	require.Len(t, m.ForumThreadsAuthored, 1)
	assert.Equal(t, "Hello", m.ForumThreadsAuthored[0].Title)
	require.Len(t, m.LaunchComments, 1)
	assert.Equal(t, "k1", m.LaunchComments[0].ID)
	assert.Equal(t, "Acme", m.LaunchComments[0].SourceName)
	assert.False(t, m.LaunchComments[0].IsReply)
	assert.Empty(t, m.ForumComments)
}

func TestMakersTotality(t *testing.T) {
	makers := []types.Maker{{ID: "U1"}, {ID: ""}, {ID: "U3"}}
	out := Makers(makers, nil, nil)
	require.Len(t, out, 3)
	for _, m := range out {
		assert.NotNil(t, m.LaunchComments)
		assert.NotNil(t, m.ForumComments)
		assert.NotNil(t, m.ForumThreadsAuthored)
	}
	assert.Nil(t, makers[0].LaunchComments, "input is not modified")
}

func TestRepliesTaggedInEncounterOrder(t *testing.T) {
	parent := "c1"
	threads := []types.Thread{
		{ID: "t1", Author: person("X"), Comments: []types.Comment{
			{ID: "c1", Author: person("U1"), Replies: []types.Comment{
				{ID: "c1r1", Author: person("U1"), ParentID: &parent, Replies: []types.Comment{
					{ID: "deep", Author: person("U1")},
				}},
				{ID: "c1r2", Author: person("U2")},
			}},
			{ID: "c2", Author: person("U1")},
		}},
		{ID: "t2", Author: person("U1"), Title: "Second"},
	}
	launches := []types.Launch{
		{ID: "p1", Comments: []types.Comment{{ID: "k1", Author: person("U2"), Replies: []types.Comment{{ID: "k1r1", Author: person("U1")}}}}},
		{ID: "p2", Comments: []types.Comment{{ID: "k2", Author: person("U1")}}},
	}

	m := Makers([]types.Maker{{ID: "U1"}}, launches, threads)[0]

	ids := func(cs []types.ActivityComment) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}
	assert.Equal(t, []string{"c1", "c1r1", "c2"}, ids(m.ForumComments), "one level of replies only")
	assert.Equal(t, []bool{false, true, false}, []bool{m.ForumComments[0].IsReply, m.ForumComments[1].IsReply, m.ForumComments[2].IsReply})
	assert.Equal(t, &parent, m.ForumComments[1].ParentID)

	assert.Equal(t, []string{"k1r1", "k2"}, ids(m.LaunchComments))
	assert.True(t, m.LaunchComments[0].IsReply)

	require.Len(t, m.ForumThreadsAuthored, 1)
	assert.Equal(t, "t2", m.ForumThreadsAuthored[0].ID)
}
