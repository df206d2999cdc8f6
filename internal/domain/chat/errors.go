package chat

import "errors"

var (
	ErrMissingHost         = errors.New("chat: listing has no owner")
	ErrSelfMessaging       = errors.New("chat: cannot message yourself")
	ErrInvalidConversation = errors.New("chat: invalid conversation")
	ErrAccessDenied        = errors.New("chat: not a conversation participant")
	ErrSendFailed          = errors.New("chat: send failed")
	ErrAttachmentTooLarge  = errors.New("chat: attachment exceeds 10 MB")
	ErrUploadFailed        = errors.New("chat: upload failed")
	ErrListener            = errors.New("chat: live subscription failed")

	ErrConversationNotFound  = errors.New("chat: conversation not found")
	ErrListingNotFound       = errors.New("chat: listing not found")
	ErrInvalidMessage        = errors.New("chat: invalid message payload")
	ErrDuplicateConversation = errors.New("chat: conversation already exists")
	ErrSendInProgress        = errors.New("chat: a send is already in progress")
	ErrUploadInProgress      = errors.New("chat: an attachment upload is already in progress")
)
