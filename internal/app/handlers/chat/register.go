package chat

import (
	"campuschat/internal/app/commands"
	"campuschat/internal/app/queries"
	domainchat "campuschat/internal/domain/chat"
)

type Handlers struct {
	Open              *OpenConversationHandler
	Send              *SendMessageHandler
	Upload            *UploadAttachmentHandler
	MarkRead          *MarkReadHandler
	GetConversation   *GetConversationHandler
	ListMessages      *ListMessagesHandler
	ListConversations *ListConversationsHandler
}

// Register binds every non-nil handler to its bus key.
func (h Handlers) Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus) {
	if h.Open != nil {
		commands.RegisterHandler[OpenConversationCommand, *OpenConversationResult](cmdBus, openConversationKey, h.Open)
	}
	if h.Send != nil {
		commands.RegisterHandler[SendMessageCommand, *SendMessageResult](cmdBus, sendMessageKey, h.Send)
	}
	if h.Upload != nil {
		commands.RegisterHandler[UploadAttachmentCommand, *UploadAttachmentResult](cmdBus, uploadAttachmentKey, h.Upload)
	}
	if h.MarkRead != nil {
		commands.RegisterHandler[MarkReadCommand, *MarkReadResult](cmdBus, markReadKey, h.MarkRead)
	}
	if h.GetConversation != nil {
		queries.RegisterHandler[GetConversationQuery, domainchat.Summary](queryBus, getConversationKey, h.GetConversation)
	}
	if h.ListMessages != nil {
		queries.RegisterHandler[ListMessagesQuery, Thread](queryBus, listMessagesKey, h.ListMessages)
	}
	if h.ListConversations != nil {
		queries.RegisterHandler[ListConversationsQuery, []domainchat.Summary](queryBus, listConversationsKey, h.ListConversations)
	}
}
