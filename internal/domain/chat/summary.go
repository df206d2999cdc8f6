package chat

import (
	"sort"
	"strings"
)

const (
	TabAll      = "all"
	TabSublease = "sublease"
	TabMoveOut  = "moveout"
)

// Summary is a conversation as seen by one participant.
type Summary struct {
	Conversation Conversation
	IsUserHost   bool
	Other        Participant
	UnreadCount  int
	Preview      string
	Listing      ListingSnapshot
}

func Summarize(conv Conversation, userID string) (Summary, bool) {
	role, ok := conv.RoleOf(userID)
	if !ok {
		return Summary{}, false
	}
	return Summary{
		Conversation: conv,
		IsUserHost:   role == RoleHost,
		Other:        conv.ParticipantFor(role.Counterpart()),
		UnreadCount:  conv.UnreadFor(role),
		Preview:      NoMessagesPreview,
		Listing:      conv.Listing,
	}, true
}

type Filter struct {
	Tab    string
	Search string
}

func (f Filter) Match(s Summary) bool {
	switch strings.ToLower(strings.TrimSpace(f.Tab)) {
	case "", TabAll:
	case TabMoveOut:
		if s.Conversation.Kind != KindMoveOut {
			return false
		}
	default:
		if s.Conversation.Kind == KindMoveOut {
			return false
		}
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	for _, field := range []string{s.Listing.Title, s.Other.Name, s.Listing.Location} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func ApplyFilter(items []Summary, f Filter) []Summary {
	out := make([]Summary, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// SortSummaries orders by most recent activity first.
func SortSummaries(items []Summary) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Conversation.Activity(), items[j].Conversation.Activity()
		if a.Equal(b) {
			return items[i].Conversation.ID < items[j].Conversation.ID
		}
		return a.After(b)
	})
}
