package chat

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	domainchat "campuschat/internal/domain/chat"
)

type mockConversations struct {
	mock.Mock
}

func (m *mockConversations) ByID(ctx context.Context, id string) (*domainchat.Conversation, error) {
	args := m.Called(ctx, id)
	conv, _ := args.Get(0).(*domainchat.Conversation)
	return conv, args.Error(1)
}

func (m *mockConversations) FindByListingAndParticipant(ctx context.Context, listingID, userID string) (*domainchat.Conversation, error) {
	args := m.Called(ctx, listingID, userID)
	conv, _ := args.Get(0).(*domainchat.Conversation)
	return conv, args.Error(1)
}

func (m *mockConversations) Create(ctx context.Context, conv *domainchat.Conversation) error {
	return m.Called(ctx, conv).Error(0)
}

func (m *mockConversations) ListForUser(ctx context.Context, userID string) ([]domainchat.Conversation, error) {
	args := m.Called(ctx, userID)
	convs, _ := args.Get(0).([]domainchat.Conversation)
	return convs, args.Error(1)
}

func (m *mockConversations) RecordMessage(ctx context.Context, conversationID, senderID, preview string, at time.Time) error {
	return m.Called(ctx, conversationID, senderID, preview, at).Error(0)
}

func (m *mockConversations) ResetUnread(ctx context.Context, conversationID string, role domainchat.Role) error {
	return m.Called(ctx, conversationID, role).Error(0)
}

type mockMessages struct {
	mock.Mock
}

func (m *mockMessages) Append(ctx context.Context, msg domainchat.Message) (domainchat.Message, error) {
	args := m.Called(ctx, msg)
	out, _ := args.Get(0).(domainchat.Message)
	return out, args.Error(1)
}

func (m *mockMessages) List(ctx context.Context, conversationID string) ([]domainchat.Message, error) {
	args := m.Called(ctx, conversationID)
	out, _ := args.Get(0).([]domainchat.Message)
	return out, args.Error(1)
}

func (m *mockMessages) Latest(ctx context.Context, conversationID string) (*domainchat.Message, error) {
	args := m.Called(ctx, conversationID)
	out, _ := args.Get(0).(*domainchat.Message)
	return out, args.Error(1)
}

type fanoutRecorder struct {
	calls []domainchat.Message
}

func (f *fanoutRecorder) Notify(_ context.Context, _ *domainchat.Conversation, msg domainchat.Message) {
	f.calls = append(f.calls, msg)
}

type counterStub struct{ n int }

func (c *counterStub) Inc() { c.n++ }
