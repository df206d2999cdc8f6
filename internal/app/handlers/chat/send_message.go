package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/middleware"
	"campuschat/internal/app/policies"
	domainchat "campuschat/internal/domain/chat"
	domainuser "campuschat/internal/domain/user"
)

const sendMessageKey = "chat.message.send"

type SendMessageCommand struct {
	Actor          domainuser.Identity
	ConversationID string
	Payload        domainchat.Payload
	// ClientKey is the caller's retry key. Empty disables replay.
	ClientKey string
}

func (c SendMessageCommand) Key() string { return sendMessageKey }

func (c SendMessageCommand) ActorID() string { return string(c.Actor.ID) }

func (c SendMessageCommand) Validate() error {
	_, err := c.Payload.Type()
	return err
}

func (c SendMessageCommand) IdempotencyKey() string {
	key := strings.TrimSpace(c.ClientKey)
	if key == "" {
		return ""
	}
	return strings.Join([]string{sendMessageKey, string(c.Actor.ID), c.ConversationID, key}, ":")
}

func (c SendMessageCommand) ResultPrototype() any { return &SendMessageResult{} }

type SendMessageResult struct {
	Message domainchat.Message `json:"message"`
}

// SendMessageHandler appends to the log, then updates the directory entry and
// fans out. Only the append can fail the send.
type SendMessageHandler struct {
	Conversations   policies.ConversationRepository
	Messages        policies.MessageLog
	Signals         policies.ChangeSignals
	Fanout          Fanout
	Logger          *slog.Logger
	PreviewFailures Counter
}

func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*SendMessageResult, error) {
	actorID := strings.TrimSpace(string(cmd.Actor.ID))
	conv, role, err := loadForParticipant(ctx, h.Conversations, cmd.ConversationID, actorID)
	if err != nil {
		return nil, err
	}
	senderName := strings.TrimSpace(cmd.Actor.Name)
	if senderName == "" {
		senderName = conv.ParticipantFor(role).Name
	}
	draft, err := domainchat.NewMessage(domainchat.NewMessageParams{
		ConversationID: conv.ID,
		SenderID:       actorID,
		SenderName:     senderName,
		Payload:        cmd.Payload,
	})
	if err != nil {
		return nil, err
	}

	stored, err := h.Messages.Append(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainchat.ErrSendFailed, err)
	}

	if err := h.Conversations.RecordMessage(ctx, conv.ID, actorID, stored.Preview(), stored.CreatedAt); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("conversation preview update failed",
				"conversation_id", conv.ID,
				"message_id", stored.ID,
				"error", err,
			)
		}
		if h.PreviewFailures != nil {
			h.PreviewFailures.Inc()
		}
	}

	topics := append([]string{policies.ConversationTopic(conv.ID)}, participantTopics(conv)...)
	notifyTopics(ctx, h.Signals, h.Logger, topics...)

	if h.Fanout != nil {
		h.Fanout.Notify(ctx, conv, stored)
	}
	return &SendMessageResult{Message: stored}, nil
}

var (
	_ commands.Handler[SendMessageCommand, *SendMessageResult] = (*SendMessageHandler)(nil)
	_ middleware.IdempotentCommand                             = SendMessageCommand{}
)
