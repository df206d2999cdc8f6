package chat

import (
	"strings"
	"time"
)

const NotificationNewMessage = "new_message"

type Notification struct {
	ID             string
	RecipientID    string
	SenderID       string
	SenderName     string
	Type           string
	Preview        string
	ConversationID string
	ListingID      string
	Read           bool
	CreatedAt      time.Time
}

// NewMessageNotification addresses msg to the participant that did not send it.
func NewMessageNotification(conv *Conversation, msg Message, id string, now time.Time) (Notification, error) {
	role, ok := conv.RoleOf(msg.SenderID)
	if !ok {
		return Notification{}, ErrAccessDenied
	}
	if now.IsZero() {
		now = time.Now()
	}
	senderName := strings.TrimSpace(msg.SenderName)
	if senderName == "" {
		senderName = conv.ParticipantFor(role).Name
	}
	return Notification{
		ID:             id,
		RecipientID:    conv.ParticipantFor(role.Counterpart()).ID,
		SenderID:       msg.SenderID,
		SenderName:     senderName,
		Type:           NotificationNewMessage,
		Preview:        Truncate(msg.Preview(), NotificationPreviewLimit),
		ConversationID: conv.ID,
		ListingID:      conv.ListingID,
		Read:           false,
		CreatedAt:      now.UTC(),
	}, nil
}
