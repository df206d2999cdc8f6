package chat

import (
	"context"

	"campuschat/internal/app/queries"
	domainchat "campuschat/internal/domain/chat"
)

const listConversationsKey = "chat.conversation.list"

type ListConversationsQuery struct {
	UserID string
	Filter domainchat.Filter
}

func (q ListConversationsQuery) Key() string { return listConversationsKey }

func (q ListConversationsQuery) ActorID() string { return q.UserID }

// DirectoryLister is implemented by directory.Service.
type DirectoryLister interface {
	List(ctx context.Context, userID string, f domainchat.Filter) ([]domainchat.Summary, error)
}

type ListConversationsHandler struct {
	Directory DirectoryLister
}

func (h *ListConversationsHandler) Handle(ctx context.Context, q ListConversationsQuery) ([]domainchat.Summary, error) {
	return h.Directory.List(ctx, q.UserID, q.Filter)
}

var _ queries.Handler[ListConversationsQuery, []domainchat.Summary] = (*ListConversationsHandler)(nil)
