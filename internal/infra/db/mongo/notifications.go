package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

// NotificationFeed inserts notifications keyed by their id. Re-publishing the
// same notification is a no-op.
type NotificationFeed struct {
	col *mongo.Collection
}

func NewNotificationFeed(ctx context.Context, db *mongo.Database) (*NotificationFeed, error) {
	col := db.Collection("notifications")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("mongo: notification indexes: %w", err)
	}
	return &NotificationFeed{col: col}, nil
}

func (f *NotificationFeed) Publish(ctx context.Context, n chat.Notification) error {
	_, err := f.col.InsertOne(ctx, newNotificationDocument(n))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}

type notificationDocument struct {
	ID             string    `bson:"_id"`
	RecipientID    string    `bson:"recipient_id"`
	SenderID       string    `bson:"sender_id"`
	SenderName     string    `bson:"sender_name"`
	Type           string    `bson:"type"`
	Message        string    `bson:"message"`
	ConversationID string    `bson:"conversation_id"`
	ListingID      string    `bson:"listing_id"`
	Read           bool      `bson:"read"`
	CreatedAt      time.Time `bson:"created_at"`
}

func newNotificationDocument(n chat.Notification) notificationDocument {
	return notificationDocument{
		ID:             n.ID,
		RecipientID:    n.RecipientID,
		SenderID:       n.SenderID,
		SenderName:     n.SenderName,
		Type:           n.Type,
		Message:        n.Preview,
		ConversationID: n.ConversationID,
		ListingID:      n.ListingID,
		Read:           n.Read,
		CreatedAt:      n.CreatedAt.UTC(),
	}
}

var _ policies.NotificationFeed = (*NotificationFeed)(nil)
