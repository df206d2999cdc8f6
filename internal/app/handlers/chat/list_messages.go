package chat

import (
	"context"
	"time"

	"campuschat/internal/app/policies"
	"campuschat/internal/app/queries"
	domainchat "campuschat/internal/domain/chat"
)

const listMessagesKey = "chat.message.list"

type ListMessagesQuery struct {
	UserID         string
	ConversationID string
}

func (q ListMessagesQuery) Key() string { return listMessagesKey }

func (q ListMessagesQuery) ActorID() string { return q.UserID }

// Thread is the ordered, date-grouped history of one conversation.
// LatestMessageID is the position a viewer advances to.
type Thread struct {
	ConversationID  string
	Messages        []domainchat.Message
	Groups          []domainchat.DateGroup
	LatestMessageID string
}

func BuildThread(conversationID string, msgs []domainchat.Message, loc *time.Location) Thread {
	ordered := append([]domainchat.Message(nil), msgs...)
	domainchat.SortMessages(ordered)
	t := Thread{
		ConversationID: conversationID,
		Messages:       ordered,
		Groups:         domainchat.GroupByDate(ordered, loc),
	}
	if n := len(ordered); n > 0 {
		t.LatestMessageID = ordered[n-1].ID
	}
	return t
}

// SameThread reports whether b adds nothing to a. The log is append-only so
// length and tail identify a state.
func SameThread(a, b Thread) bool {
	return len(a.Messages) == len(b.Messages) && a.LatestMessageID == b.LatestMessageID
}

type ListMessagesHandler struct {
	Conversations policies.ConversationRepository
	Messages      policies.MessageLog
	Location      *time.Location
}

func (h *ListMessagesHandler) Handle(ctx context.Context, q ListMessagesQuery) (Thread, error) {
	conv, _, err := loadForParticipant(ctx, h.Conversations, q.ConversationID, q.UserID)
	if err != nil {
		return Thread{}, err
	}
	msgs, err := h.Messages.List(ctx, conv.ID)
	if err != nil {
		return Thread{}, err
	}
	return BuildThread(conv.ID, msgs, h.Location), nil
}

var _ queries.Handler[ListMessagesQuery, Thread] = (*ListMessagesHandler)(nil)
