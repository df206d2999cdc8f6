package fanout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

var defaultBackoff = []time.Duration{200 * time.Millisecond, time.Second}

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}

// Notifier emits one notification per committed message to the counterpart.
// Delivery runs in the background, is retried per Backoff and is never
// reported to the sender; failures are logged and counted.
type Notifier struct {
	Feed     policies.NotificationFeed
	Logger   *slog.Logger
	Backoff  []time.Duration
	Timeout  time.Duration
	Failures Counter
	NewID    func() string
	Now      func() time.Time

	wg sync.WaitGroup
}

func (n *Notifier) Notify(ctx context.Context, conv *chat.Conversation, msg chat.Message) {
	if n == nil || n.Feed == nil || conv == nil {
		return
	}
	note, err := chat.NewMessageNotification(conv, msg, n.newID(), n.now())
	if err != nil {
		n.fail("build notification failed", err, conv.ID)
		return
	}
	detached := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(detached, note)
	}()
}

// Wait blocks until in-flight deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, note chat.Notification) {
	backoff := n.Backoff
	if backoff == nil {
		backoff = defaultBackoff
	}
	var err error
	for attempt := 0; ; attempt++ {
		err = n.publish(ctx, note)
		if err == nil {
			return
		}
		if attempt >= len(backoff) {
			break
		}
		if n.Logger != nil {
			n.Logger.Debug("notification delivery retry",
				"conversation_id", note.ConversationID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		timer := time.NewTimer(backoff[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			n.fail("notification delivery cancelled", ctx.Err(), note.ConversationID)
			return
		case <-timer.C:
		}
	}
	n.fail("notification delivery failed", err, note.ConversationID)
}

func (n *Notifier) publish(ctx context.Context, note chat.Notification) error {
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	return n.Feed.Publish(ctx, note)
}

func (n *Notifier) fail(msg string, err error, conversationID string) {
	if n.Logger != nil {
		n.Logger.Error(msg, "conversation_id", conversationID, "error", err)
	}
	if n.Failures != nil {
		n.Failures.Inc()
	}
}

func (n *Notifier) newID() string {
	if n.NewID != nil {
		return n.NewID()
	}
	return uuid.NewString()
}

func (n *Notifier) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now().UTC()
}
