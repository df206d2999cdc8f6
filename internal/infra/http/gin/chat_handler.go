package ginserver

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/dto"
	chathandlers "campuschat/internal/app/handlers/chat"
	"campuschat/internal/app/queries"
	"campuschat/internal/domain/chat"
)

const idempotencyHeader = "Idempotency-Key"

// ChatHandler bridges HTTP with the chat command and query buses.
type ChatHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type sendMessageRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

func (r sendMessageRequest) payload() chat.Payload {
	return chat.Payload{
		Text:     r.Text,
		ImageURL: r.ImageURL,
		FileURL:  r.FileURL,
		FileName: r.FileName,
		FileSize: r.FileSize,
	}
}

// ListConversations returns the caller's directory filtered by tab and search.
func (h ChatHandler) ListConversations(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	items, err := queries.Ask[chathandlers.ListConversationsQuery, []chat.Summary](c.Request.Context(), h.Queries, chathandlers.ListConversationsQuery{
		UserID: string(identity.ID),
		Filter: filterFromQuery(c),
	})
	if err != nil {
		respondError(c, h.Logger, err, "list conversations", "user_id", identity.ID)
		return
	}
	c.JSON(http.StatusOK, dto.MapSummaries(items))
}

func (h ChatHandler) GetConversation(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")
	summary, err := queries.Ask[chathandlers.GetConversationQuery, chat.Summary](c.Request.Context(), h.Queries, chathandlers.GetConversationQuery{
		UserID:         string(identity.ID),
		ConversationID: conversationID,
	})
	if err != nil {
		respondError(c, h.Logger, err, "get conversation", "conversation_id", conversationID, "user_id", identity.ID)
		return
	}
	c.JSON(http.StatusOK, dto.MapSummary(summary))
}

// OpenListingConversation returns the caller's conversation about a listing,
// creating it on first contact.
func (h ChatHandler) OpenListingConversation(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	listingID := strings.TrimSpace(c.Param("id"))
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	res, err := commands.Dispatch[chathandlers.OpenConversationCommand, *chathandlers.OpenConversationResult](c.Request.Context(), h.Commands, chathandlers.OpenConversationCommand{
		Actor:     identity,
		ListingID: listingID,
	})
	if err != nil {
		respondError(c, h.Logger, err, "open conversation", "listing_id", listingID, "user_id", identity.ID)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h ChatHandler) ListMessages(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")
	thread, err := queries.Ask[chathandlers.ListMessagesQuery, chathandlers.Thread](c.Request.Context(), h.Queries, chathandlers.ListMessagesQuery{
		UserID:         string(identity.ID),
		ConversationID: conversationID,
	})
	if err != nil {
		respondError(c, h.Logger, err, "list messages", "conversation_id", conversationID, "user_id", identity.ID)
		return
	}
	c.JSON(http.StatusOK, dto.MapThread(thread.ConversationID, thread.Messages, thread.Groups))
}

// SendMessage appends one message. A repeated Idempotency-Key returns the
// original message.
func (h ChatHandler) SendMessage(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message body"})
		return
	}
	conversationID := c.Param("id")
	res, err := commands.Dispatch[chathandlers.SendMessageCommand, *chathandlers.SendMessageResult](c.Request.Context(), h.Commands, chathandlers.SendMessageCommand{
		Actor:          identity,
		ConversationID: conversationID,
		Payload:        req.payload(),
		ClientKey:      strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	})
	if err != nil {
		respondError(c, h.Logger, err, "send message", "conversation_id", conversationID, "user_id", identity.ID)
		return
	}
	c.JSON(http.StatusCreated, dto.MapMessage(res.Message))
}

// UploadAttachment stores the multipart "file" field and returns its URL.
// Oversized files are rejected from the declared size before any byte is
// stored.
func (h ChatHandler) UploadAttachment(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if err := chat.ValidateAttachmentSize(header.Size); err != nil {
		respondError(c, h.Logger, err, "upload attachment")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: %w", chat.ErrUploadFailed, err), "upload attachment")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, chat.MaxAttachmentBytes+1))
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: %w", chat.ErrUploadFailed, err), "upload attachment")
		return
	}

	conversationID := c.Param("id")
	res, err := commands.Dispatch[chathandlers.UploadAttachmentCommand, *chathandlers.UploadAttachmentResult](c.Request.Context(), h.Commands, chathandlers.UploadAttachmentCommand{
		Actor:          identity,
		ConversationID: conversationID,
		FileName:       header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
		DeclaredSize:   header.Size,
		Data:           data,
	})
	if err != nil {
		respondError(c, h.Logger, err, "upload attachment", "conversation_id", conversationID, "user_id", identity.ID)
		return
	}
	c.JSON(http.StatusCreated, dto.MapAttachment(res.Attachment))
}

func (h ChatHandler) MarkRead(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")
	res, err := commands.Dispatch[chathandlers.MarkReadCommand, *chathandlers.MarkReadResult](c.Request.Context(), h.Commands, chathandlers.MarkReadCommand{
		UserID:         string(identity.ID),
		ConversationID: conversationID,
	})
	if err != nil {
		respondError(c, h.Logger, err, "mark read", "conversation_id", conversationID, "user_id", identity.ID)
		return
	}
	c.JSON(http.StatusOK, res)
}

func filterFromQuery(c *gin.Context) chat.Filter {
	return chat.Filter{
		Tab:    strings.TrimSpace(c.Query("tab")),
		Search: strings.TrimSpace(c.Query("q")),
	}
}
