package memory

import (
	"context"
	"sync"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

type NotificationFeed struct {
	mu    sync.RWMutex
	items []chat.Notification
}

func NewNotificationFeed() *NotificationFeed {
	return &NotificationFeed{}
}

func (f *NotificationFeed) Publish(ctx context.Context, n chat.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	return nil
}

// ForRecipient returns recipientID's notifications in publish order.
func (f *NotificationFeed) ForRecipient(recipientID string) []chat.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]chat.Notification, 0)
	for _, n := range f.items {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

var _ policies.NotificationFeed = (*NotificationFeed)(nil)
