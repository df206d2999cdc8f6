package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadType(t *testing.T) {
	kind, err := Payload{Text: "hi"}.Type()
	require.NoError(t, err)
	assert.Equal(t, MessageText, kind)

	kind, err = Payload{ImageURL: "http://x/img.png"}.Type()
	require.NoError(t, err)
	assert.Equal(t, MessageImage, kind)

	kind, err = Payload{FileURL: "http://x/a.pdf", FileName: "a.pdf", FileSize: 10}.Type()
	require.NoError(t, err)
	assert.Equal(t, MessageFile, kind)

	for _, p := range []Payload{
		{},
		{Text: "   "},
		{Text: "hi", ImageURL: "http://x"},
		{FileURL: "http://x"},
		{FileURL: "http://x", FileName: "a", FileSize: -1},
	} {
		_, err := p.Type()
		assert.ErrorIs(t, err, ErrInvalidMessage, "%+v", p)
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(NewMessageParams{
		ConversationID: "c1",
		SenderID:       "G",
		SenderName:     "Gus",
		Payload:        Payload{Text: "  Is this available?  "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Is this available?", msg.Text)
	assert.Empty(t, msg.ID)
	assert.True(t, msg.CreatedAt.IsZero())

	_, err = NewMessage(NewMessageParams{SenderID: "G", Payload: Payload{Text: "x"}})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, NoMessagesPreview, PreviewOf(nil))
	assert.Equal(t, "Image", PreviewOf(&Message{Type: MessageImage}))
	assert.Equal(t, "File", PreviewOf(&Message{Type: MessageFile}))
	assert.Equal(t, "hey", PreviewOf(&Message{Type: MessageText, Text: "hey"}))
}

func TestSortMessages(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "b", CreatedAt: base.Add(time.Second)},
		{ID: "c", CreatedAt: base},
		{ID: "a", CreatedAt: base.Add(time.Second)},
	}
	SortMessages(msgs)
	assert.Equal(t, "c", msgs[0].ID)
	assert.Equal(t, "a", msgs[1].ID)
	assert.Equal(t, "b", msgs[2].ID)
}

func TestTruncate(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, Truncate(short, NotificationPreviewLimit))

	long := make([]rune, 150)
	for i := range long {
		long[i] = 'é'
	}
	out := Truncate(string(long), NotificationPreviewLimit)
	assert.Len(t, []rune(out), NotificationPreviewLimit)
	assert.Equal(t, "...", string([]rune(out)[97:]))
}
