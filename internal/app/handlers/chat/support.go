package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"campuschat/internal/app/policies"
	domainchat "campuschat/internal/domain/chat"
)

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}

// Fanout delivers side-channel notifications for a committed message. It must
// not block the caller.
type Fanout interface {
	Notify(ctx context.Context, conv *domainchat.Conversation, msg domainchat.Message)
}

// loadForParticipant returns the conversation and userID's role in it.
func loadForParticipant(ctx context.Context, repo policies.ConversationRepository, conversationID, userID string) (*domainchat.Conversation, domainchat.Role, error) {
	if repo == nil {
		return nil, "", errors.New("chat: conversation repository not configured")
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, "", fmt.Errorf("%w: conversation id is required", domainchat.ErrConversationNotFound)
	}
	conv, err := repo.ByID(ctx, conversationID)
	if err != nil {
		return nil, "", err
	}
	role, ok := conv.RoleOf(userID)
	if !ok {
		return nil, "", domainchat.ErrAccessDenied
	}
	return conv, role, nil
}

// notifyTopics pings change subscribers. Failures only delay live views until
// their next poll, so they are logged.
func notifyTopics(ctx context.Context, signals policies.ChangeSignals, logger *slog.Logger, topics ...string) {
	if signals == nil {
		return
	}
	for _, topic := range topics {
		if err := signals.Notify(ctx, topic); err != nil && logger != nil {
			logger.Warn("change signal failed", "topic", topic, "error", err)
		}
	}
}

func participantTopics(conv *domainchat.Conversation) []string {
	return []string{
		policies.UserTopic(conv.Host.ID),
		policies.UserTopic(conv.Guest.ID),
	}
}
