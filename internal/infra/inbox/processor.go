package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"campuschat/internal/app/outbox"
	"campuschat/internal/app/policies"
	infraoutbox "campuschat/internal/infra/outbox"
)

// Dedup is the inbox contract the processor relies on.
type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// NotificationProcessor applies notification.created CloudEvents to the feed
// exactly once per event id.
type NotificationProcessor struct {
	Inbox  Dedup
	Feed   policies.NotificationFeed
	Logger *slog.Logger
}

func (p *NotificationProcessor) Handle(ctx context.Context, payload []byte) error {
	evt, err := infraoutbox.DecodeCloudEvent(payload)
	if err != nil {
		return fmt.Errorf("inbox: decode envelope: %w", err)
	}
	if evt.ID == "" {
		return errors.New("inbox: event without id")
	}
	note, err := outbox.DecodeNotification(evt.Data)
	if err != nil {
		return err
	}

	seen, err := p.Inbox.Seen(ctx, evt.ID)
	if err != nil {
		return fmt.Errorf("inbox: mark %s: %w", evt.ID, err)
	}
	if seen {
		if p.Logger != nil {
			p.Logger.Debug("duplicate event skipped", "event_id", evt.ID)
		}
		return nil
	}
	if err := p.Feed.Publish(ctx, note); err != nil {
		if forgetErr := p.Inbox.Forget(ctx, evt.ID); forgetErr != nil {
			err = errors.Join(err, forgetErr)
		}
		return fmt.Errorf("inbox: apply %s: %w", evt.ID, err)
	}
	if p.Logger != nil {
		p.Logger.Debug("notification applied",
			"event_id", evt.ID,
			"conversation_id", note.ConversationID,
			"recipient_id", note.RecipientID,
		)
	}
	return nil
}
