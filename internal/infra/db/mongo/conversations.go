package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

// ConversationRepository stores the conversation directory in agg_conversation.
// A unique index on (listing_id, participant_key) rejects duplicate threads.
type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(ctx context.Context, db *mongo.Database) (*ConversationRepository, error) {
	col := db.Collection("agg_conversation")
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "listing_id", Value: 1}, {Key: "participant_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_listing_pair"),
		},
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: conversation indexes: %w", err)
	}
	return &ConversationRepository{col: col}, nil
}

func (r *ConversationRepository) ByID(ctx context.Context, id string) (*chat.Conversation, error) {
	var doc conversationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": strings.TrimSpace(id)}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toAggregate(), nil
}

func (r *ConversationRepository) FindByListingAndParticipant(ctx context.Context, listingID, userID string) (*chat.Conversation, error) {
	var doc conversationDocument
	filter := bson.M{"listing_id": listingID, "participants": userID}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toAggregate(), nil
}

func (r *ConversationRepository) Create(ctx context.Context, conv *chat.Conversation) error {
	if conv == nil || conv.ID == "" {
		return chat.ErrInvalidConversation
	}
	if _, err := r.col.InsertOne(ctx, newConversationDocument(conv)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return chat.ErrDuplicateConversation
		}
		return err
	}
	return nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	cur, err := r.col.Find(ctx, bson.M{"participants": userID})
	if err != nil {
		return nil, err
	}
	var docs []conversationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]chat.Conversation, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *doc.toAggregate())
	}
	return out, nil
}

// RecordMessage updates the preview and increments the counterpart's unread
// counter in one atomic update.
func (r *ConversationRepository) RecordMessage(ctx context.Context, conversationID, senderID, preview string, at time.Time) error {
	at = at.UTC()
	for _, side := range []struct {
		field   string
		counter string
	}{
		{field: "host.id", counter: unreadField(chat.RoleGuest)},
		{field: "guest.id", counter: unreadField(chat.RoleHost)},
	} {
		res, err := r.col.UpdateOne(ctx,
			bson.M{"_id": conversationID, side.field: senderID},
			bson.M{
				"$inc": bson.M{side.counter: 1},
				"$set": bson.M{
					"last_message":      preview,
					"last_message_time": at,
					"last_sender_id":    senderID,
					"updated_at":        at,
				},
			},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}
	return r.missingOrDenied(ctx, conversationID)
}

func (r *ConversationRepository) ResetUnread(ctx context.Context, conversationID string, role chat.Role) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{unreadField(role): 0, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) missingOrDenied(ctx context.Context, conversationID string) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": conversationID})
	if err != nil {
		return err
	}
	if n == 0 {
		return chat.ErrConversationNotFound
	}
	return chat.ErrAccessDenied
}

func unreadField(role chat.Role) string {
	if role == chat.RoleHost {
		return "host_unread_count"
	}
	return "guest_unread_count"
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.ErrConversationNotFound
	}
	return err
}

type conversationDocument struct {
	ID               string              `bson:"_id"`
	ListingID        string              `bson:"listing_id"`
	ParticipantKey   string              `bson:"participant_key"`
	Participants     []string            `bson:"participants"`
	Listing          listingCardDocument `bson:"listing"`
	Kind             string              `bson:"kind"`
	Host             participantDocument `bson:"host"`
	Guest            participantDocument `bson:"guest"`
	HostUnreadCount  int                 `bson:"host_unread_count"`
	GuestUnreadCount int                 `bson:"guest_unread_count"`
	LastMessage      string              `bson:"last_message"`
	LastMessageTime  time.Time           `bson:"last_message_time,omitempty"`
	LastSenderID     string              `bson:"last_sender_id,omitempty"`
	CreatedAt        time.Time           `bson:"created_at"`
	UpdatedAt        time.Time           `bson:"updated_at"`
}

type listingCardDocument struct {
	Title      string `bson:"title"`
	Image      string `bson:"image,omitempty"`
	Location   string `bson:"location,omitempty"`
	PriceCents int64  `bson:"price_cents"`
}

type participantDocument struct {
	ID    string `bson:"id"`
	Name  string `bson:"name"`
	Email string `bson:"email,omitempty"`
	Image string `bson:"image,omitempty"`
}

func newConversationDocument(c *chat.Conversation) conversationDocument {
	return conversationDocument{
		ID:             c.ID,
		ListingID:      c.ListingID,
		ParticipantKey: c.ParticipantKey(),
		Participants:   append([]string(nil), c.Participants...),
		Listing: listingCardDocument{
			Title:      c.Listing.Title,
			Image:      c.Listing.Image,
			Location:   c.Listing.Location,
			PriceCents: c.Listing.PriceCents,
		},
		Kind:             string(c.Kind),
		Host:             participantDocument(c.Host),
		Guest:            participantDocument(c.Guest),
		HostUnreadCount:  c.HostUnreadCount,
		GuestUnreadCount: c.GuestUnreadCount,
		LastMessage:      c.LastMessage,
		LastMessageTime:  c.LastMessageTime,
		LastSenderID:     c.LastSenderID,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (d conversationDocument) toAggregate() *chat.Conversation {
	kind := chat.Kind(d.Kind)
	return &chat.Conversation{
		ID:        d.ID,
		ListingID: d.ListingID,
		Listing: chat.ListingSnapshot{
			ID:         d.ListingID,
			Title:      d.Listing.Title,
			Image:      d.Listing.Image,
			Location:   d.Listing.Location,
			PriceCents: d.Listing.PriceCents,
			Kind:       kind,
		},
		Kind:             kind,
		Host:             chat.Participant(d.Host),
		Guest:            chat.Participant(d.Guest),
		Participants:     append([]string(nil), d.Participants...),
		HostUnreadCount:  d.HostUnreadCount,
		GuestUnreadCount: d.GuestUnreadCount,
		LastMessage:      d.LastMessage,
		LastMessageTime:  utc(d.LastMessageTime),
		LastSenderID:     d.LastSenderID,
		CreatedAt:        utc(d.CreatedAt),
		UpdatedAt:        utc(d.UpdatedAt),
	}
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

var _ policies.ConversationRepository = (*ConversationRepository)(nil)
