package chat

import (
	"context"
	"log/slog"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/policies"
	domainchat "campuschat/internal/domain/chat"
)

const markReadKey = "chat.conversation.mark_read"

type MarkReadCommand struct {
	UserID         string
	ConversationID string
}

func (c MarkReadCommand) Key() string { return markReadKey }

func (c MarkReadCommand) ActorID() string { return c.UserID }

type MarkReadResult struct {
	ConversationID string          `json:"conversation_id"`
	Role           domainchat.Role `json:"role"`
}

// MarkReadHandler resets the caller's own unread counter.
type MarkReadHandler struct {
	Conversations policies.ConversationRepository
	Signals       policies.ChangeSignals
	Logger        *slog.Logger
}

func (h *MarkReadHandler) Handle(ctx context.Context, cmd MarkReadCommand) (*MarkReadResult, error) {
	conv, role, err := loadForParticipant(ctx, h.Conversations, cmd.ConversationID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := h.Conversations.ResetUnread(ctx, conv.ID, role); err != nil {
		return nil, err
	}
	notifyTopics(ctx, h.Signals, h.Logger, policies.UserTopic(cmd.UserID))
	return &MarkReadResult{ConversationID: conv.ID, Role: role}, nil
}

var _ commands.Handler[MarkReadCommand, *MarkReadResult] = (*MarkReadHandler)(nil)
