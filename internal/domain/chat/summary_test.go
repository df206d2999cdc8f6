package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	conv := newTestConversation(t)
	conv.HostUnreadCount = 3
	conv.GuestUnreadCount = 1

	s, ok := Summarize(*conv, "H")
	require.True(t, ok)
	assert.True(t, s.IsUserHost)
	assert.Equal(t, "G", s.Other.ID)
	assert.Equal(t, 3, s.UnreadCount)

	s, ok = Summarize(*conv, "G")
	require.True(t, ok)
	assert.False(t, s.IsUserHost)
	assert.Equal(t, 1, s.UnreadCount)

	_, ok = Summarize(*conv, "X")
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	sublease := Summary{
		Conversation: Conversation{ID: "a", Kind: KindSublease},
		Other:        Participant{Name: "Riley"},
		Listing:      ListingSnapshot{Title: "Studio near campus", Location: "Elm Street"},
	}
	moveout := Summary{
		Conversation: Conversation{ID: "b", Kind: KindMoveOut},
		Other:        Participant{Name: "Sam"},
		Listing:      ListingSnapshot{Title: "IKEA desk", Location: "North Dorms"},
	}
	items := []Summary{sublease, moveout}

	assert.Len(t, ApplyFilter(items, Filter{}), 2)
	assert.Equal(t, []Summary{moveout}, ApplyFilter(items, Filter{Tab: "moveout"}))
	assert.Equal(t, []Summary{sublease}, ApplyFilter(items, Filter{Tab: "sublease"}))
	assert.Equal(t, []Summary{sublease}, ApplyFilter(items, Filter{Search: "STUDIO"}))
	assert.Equal(t, []Summary{moveout}, ApplyFilter(items, Filter{Search: "sam"}))
	assert.Equal(t, []Summary{moveout}, ApplyFilter(items, Filter{Search: "north"}))
	assert.Empty(t, ApplyFilter(items, Filter{Tab: "moveout", Search: "studio"}))
}

func TestSortSummaries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Summary{
		{Conversation: Conversation{ID: "old", CreatedAt: base}},
		{Conversation: Conversation{ID: "new", CreatedAt: base, LastMessageTime: base.Add(time.Hour)}},
		{Conversation: Conversation{ID: "mid", CreatedAt: base.Add(time.Minute)}},
	}
	SortSummaries(items)
	assert.Equal(t, "new", items[0].Conversation.ID)
	assert.Equal(t, "mid", items[1].Conversation.ID)
	assert.Equal(t, "old", items[2].Conversation.ID)
}
