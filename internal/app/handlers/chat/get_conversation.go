package chat

import (
	"context"
	"strings"

	"campuschat/internal/app/policies"
	"campuschat/internal/app/queries"
	domainchat "campuschat/internal/domain/chat"
)

const getConversationKey = "chat.conversation.get"

type GetConversationQuery struct {
	UserID         string
	ConversationID string
}

func (q GetConversationQuery) Key() string { return getConversationKey }

func (q GetConversationQuery) ActorID() string { return q.UserID }

type GetConversationHandler struct {
	Conversations policies.ConversationRepository
}

func (h *GetConversationHandler) Handle(ctx context.Context, q GetConversationQuery) (domainchat.Summary, error) {
	conv, _, err := loadForParticipant(ctx, h.Conversations, q.ConversationID, q.UserID)
	if err != nil {
		return domainchat.Summary{}, err
	}
	summary, _ := domainchat.Summarize(*conv, q.UserID)
	if preview := strings.TrimSpace(conv.LastMessage); preview != "" {
		summary.Preview = preview
	}
	return summary, nil
}

var _ queries.Handler[GetConversationQuery, domainchat.Summary] = (*GetConversationHandler)(nil)
