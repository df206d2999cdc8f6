package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

// MessageLog is an in-memory append-only log. CreatedAt is assigned under the
// lock and strictly increases within a conversation.
type MessageLog struct {
	mu    sync.RWMutex
	items map[string][]chat.Message
	now   func() time.Time
}

func NewMessageLog() *MessageLog {
	return &MessageLog{
		items: make(map[string][]chat.Message),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (l *MessageLog) Append(ctx context.Context, msg chat.Message) (chat.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	entries := l.items[msg.ConversationID]
	if n := len(entries); n > 0 && !at.After(entries[n-1].CreatedAt) {
		at = entries[n-1].CreatedAt.Add(time.Microsecond)
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = at
	l.items[msg.ConversationID] = append(entries, msg)
	return msg, nil
}

func (l *MessageLog) List(ctx context.Context, conversationID string) ([]chat.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]chat.Message(nil), l.items[conversationID]...), nil
}

func (l *MessageLog) Latest(ctx context.Context, conversationID string) (*chat.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := l.items[conversationID]
	if len(entries) == 0 {
		return nil, nil
	}
	latest := entries[len(entries)-1]
	return &latest, nil
}

var _ policies.MessageLog = (*MessageLog)(nil)
