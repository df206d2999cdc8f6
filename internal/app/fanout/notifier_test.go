package fanout

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campuschat/internal/domain/chat"
)

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) Publish(ctx context.Context, n chat.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type counter struct{ n atomic.Int64 }

func (c *counter) Inc() { c.n.Add(1) }

func testConversation(t *testing.T) *chat.Conversation {
	t.Helper()
	conv, err := chat.NewConversation(chat.NewConversationParams{
		ID:      "c1",
		Listing: chat.ListingSnapshot{ID: "L"},
		Host:    chat.Participant{ID: "H", Name: "Hana"},
		Guest:   chat.Participant{ID: "G", Name: "Gus"},
	})
	require.NoError(t, err)
	return conv
}

func TestNotifier_DeliversToCounterpart(t *testing.T) {
	feed := &mockFeed{}
	feed.On("Publish", mock.Anything, mock.MatchedBy(func(n chat.Notification) bool {
		return n.RecipientID == "H" && n.SenderID == "G" && n.ID == "n1" &&
			n.Type == chat.NotificationNewMessage && len([]rune(n.Preview)) == chat.NotificationPreviewLimit
	})).Return(nil).Once()

	n := &Notifier{Feed: feed, NewID: func() string { return "n1" }}
	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, testConversation(t), chat.Message{ID: "m1", SenderID: "G", Type: chat.MessageText, Text: strings.Repeat("x", 300)})
	cancel()
	n.Wait()

	feed.AssertExpectations(t)
}

func TestNotifier_RetriesThenGivesUp(t *testing.T) {
	feed := &mockFeed{}
	feed.On("Publish", mock.Anything, mock.Anything).Return(errors.New("feed down")).Times(3)
	failures := &counter{}

	n := &Notifier{Feed: feed, Backoff: []time.Duration{time.Millisecond, time.Millisecond}, Failures: failures}
	n.Notify(context.Background(), testConversation(t), chat.Message{SenderID: "H", Type: chat.MessageText, Text: "hi"})
	n.Wait()

	feed.AssertNumberOfCalls(t, "Publish", 3)
	assert.Equal(t, int64(1), failures.n.Load())
}

func TestNotifier_RetrySucceeds(t *testing.T) {
	feed := &mockFeed{}
	feed.On("Publish", mock.Anything, mock.Anything).Return(errors.New("blip")).Once()
	feed.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	failures := &counter{}

	n := &Notifier{Feed: feed, Backoff: []time.Duration{time.Millisecond}, Failures: failures}
	n.Notify(context.Background(), testConversation(t), chat.Message{SenderID: "G", Type: chat.MessageImage, ImageURL: "u"})
	n.Wait()

	feed.AssertNumberOfCalls(t, "Publish", 2)
	assert.Zero(t, failures.n.Load())
}

func TestNotifier_NonParticipantSender(t *testing.T) {
	feed := &mockFeed{}
	failures := &counter{}
	n := &Notifier{Feed: feed, Failures: failures}
	n.Notify(context.Background(), testConversation(t), chat.Message{SenderID: "X", Text: "hi"})
	n.Wait()

	feed.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	assert.Equal(t, int64(1), failures.n.Load())
}
