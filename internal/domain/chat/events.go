package chat

import "time"

type ConversationCreatedEvent struct {
	ConversationID string    `json:"conversation_id"`
	ListingID      string    `json:"listing_id"`
	HostID         string    `json:"host_id"`
	GuestID        string    `json:"guest_id"`
	At             time.Time `json:"at"`
}

func (e ConversationCreatedEvent) EventName() string     { return "conversation.created" }
func (e ConversationCreatedEvent) AggregateID() string   { return e.ConversationID }
func (e ConversationCreatedEvent) OccurredAt() time.Time { return e.At }

type NotificationCreatedEvent struct {
	ID             string    `json:"id"`
	RecipientID    string    `json:"recipient_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Type           string    `json:"type"`
	Preview        string    `json:"preview"`
	ConversationID string    `json:"conversation_id"`
	ListingID      string    `json:"listing_id"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewNotificationCreatedEvent(n Notification) NotificationCreatedEvent {
	return NotificationCreatedEvent(n)
}

func (e NotificationCreatedEvent) Notification() Notification {
	return Notification(e)
}

func (e NotificationCreatedEvent) EventName() string     { return "notification.created" }
func (e NotificationCreatedEvent) AggregateID() string   { return e.RecipientID }
func (e NotificationCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }
