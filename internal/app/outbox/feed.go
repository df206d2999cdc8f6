package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campuschat/internal/domain/chat"
	"campuschat/internal/domain/shared/events"
)

var ErrNoOutbox = errors.New("outbox: feed requires an outbox")

// Feed publishes notifications as notification.created outbox records. The
// relay worker delivers them to the broker.
type Feed struct {
	Outbox  Outbox
	Encoder EventEncoder
}

func (f *Feed) Publish(ctx context.Context, n chat.Notification) error {
	if f == nil || f.Outbox == nil {
		return ErrNoOutbox
	}
	ev := chat.NewNotificationCreatedEvent(n)
	if err := RecordDomainEvents(ctx, f.Outbox, f.Encoder, []events.DomainEvent{ev}); err != nil {
		return fmt.Errorf("outbox: record notification: %w", err)
	}
	return f.Outbox.Flush(ctx)
}

// DecodeNotification reads the data section of a notification.created event.
func DecodeNotification(data []byte) (chat.Notification, error) {
	var ev chat.NotificationCreatedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return chat.Notification{}, fmt.Errorf("outbox: decode notification: %w", err)
	}
	if ev.RecipientID == "" || ev.ConversationID == "" {
		return chat.Notification{}, errors.New("outbox: notification missing recipient or conversation")
	}
	return ev.Notification(), nil
}
