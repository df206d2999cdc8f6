package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageNotification(t *testing.T) {
	conv := newTestConversation(t)
	msg := Message{ID: "m1", SenderID: "G", Type: MessageText, Text: strings.Repeat("a", 250)}

	n, err := NewMessageNotification(conv, msg, "n1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "H", n.RecipientID)
	assert.Equal(t, "Gus", n.SenderName)
	assert.Equal(t, NotificationNewMessage, n.Type)
	assert.LessOrEqual(t, len([]rune(n.Preview)), NotificationPreviewLimit)
	assert.Equal(t, "c1", n.ConversationID)
	assert.Equal(t, "L", n.ListingID)
	assert.False(t, n.Read)

	ev := NewNotificationCreatedEvent(n)
	assert.Equal(t, "notification.created", ev.EventName())
	assert.Equal(t, n, ev.Notification())

	_, err = NewMessageNotification(conv, Message{SenderID: "X"}, "n2", time.Now())
	assert.ErrorIs(t, err, ErrAccessDenied)
}
