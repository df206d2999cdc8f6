package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"campuschat/internal/domain/chat"
)

func TestConversationDocument_KeepsPairKeyAndSnapshots(t *testing.T) {
	conv, err := chat.NewConversation(chat.NewConversationParams{
		ID:      "c1",
		Listing: chat.ListingSnapshot{ID: "L", Title: "Desk", Kind: chat.KindMoveOut, PriceCents: 4500},
		Host:    chat.Participant{ID: "zed", Name: "Zed"},
		Guest:   chat.Participant{ID: "amy", Name: "Amy", Email: "amy@campus.edu"},
		Now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, conv.RecordMessage("amy", "Still for sale?", conv.CreatedAt.Add(time.Minute)))

	doc := newConversationDocument(conv)
	assert.Equal(t, "amy:zed", doc.ParticipantKey)
	assert.Equal(t, 1, doc.HostUnreadCount)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded conversationDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	back := decoded.toAggregate()
	assert.Equal(t, chat.KindMoveOut, back.Kind)
	assert.Equal(t, chat.KindMoveOut, back.Listing.Kind)
	assert.Equal(t, "L", back.Listing.ID)
	assert.Equal(t, "Amy", back.Guest.Name)
	assert.Equal(t, "Still for sale?", back.LastMessage)
	assert.True(t, back.LastMessageTime.Equal(conv.LastMessageTime))
	assert.Equal(t, []string{"amy", "zed"}, back.Participants)
}

func TestUnreadField(t *testing.T) {
	assert.Equal(t, "host_unread_count", unreadField(chat.RoleHost))
	assert.Equal(t, "guest_unread_count", unreadField(chat.RoleGuest))
}
