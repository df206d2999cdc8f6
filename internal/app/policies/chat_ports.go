package policies

import (
	"context"
	"errors"
	"io"
	"time"

	"campuschat/internal/domain/chat"
)

// ConversationRepository is the conversation directory store.
type ConversationRepository interface {
	ByID(ctx context.Context, id string) (*chat.Conversation, error)
	// FindByListingAndParticipant returns chat.ErrConversationNotFound when no
	// conversation for listingID includes userID.
	FindByListingAndParticipant(ctx context.Context, listingID, userID string) (*chat.Conversation, error)
	// Create fails with chat.ErrDuplicateConversation when the listing and
	// participant pair already has a conversation.
	Create(ctx context.Context, conv *chat.Conversation) error
	ListForUser(ctx context.Context, userID string) ([]chat.Conversation, error)
	// RecordMessage sets the preview fields and increments the counterpart's
	// unread counter in one atomic write.
	RecordMessage(ctx context.Context, conversationID, senderID, preview string, at time.Time) error
	ResetUnread(ctx context.Context, conversationID string, role chat.Role) error
}

// MessageLog is the append-only ordered message store.
type MessageLog interface {
	// Append assigns ID and CreatedAt and returns the stored message.
	Append(ctx context.Context, msg chat.Message) (chat.Message, error)
	// List returns the conversation's messages in ascending CreatedAt order.
	List(ctx context.Context, conversationID string) ([]chat.Message, error)
	// Latest returns nil when the conversation has no messages.
	Latest(ctx context.Context, conversationID string) (*chat.Message, error)
}

// ChangeSignals carries "something changed" pings between processes. Payloads
// are not delivered; subscribers reload from the stores.
type ChangeSignals interface {
	Notify(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
}

func ConversationTopic(conversationID string) string {
	return "chat:conversation:" + conversationID
}

func UserTopic(userID string) string {
	return "chat:user:" + userID
}

// ErrObjectNotFound is returned by AttachmentStore.Open for unknown paths.
var ErrObjectNotFound = errors.New("attachments: object not found")

type StoredObject struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// AttachmentStore persists attachment bytes and returns durable URLs.
type AttachmentStore interface {
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, path string) (StoredObject, error)
}

// NotificationFeed receives notification records for consumers outside the core.
type NotificationFeed interface {
	Publish(ctx context.Context, n chat.Notification) error
}
