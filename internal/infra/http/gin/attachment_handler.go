package ginserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

type ConversationLookup interface {
	ByID(ctx context.Context, id string) (*chat.Conversation, error)
}

// AttachmentHandler streams stored attachments to participants of the
// conversation the object was uploaded to.
type AttachmentHandler struct {
	Store         policies.AttachmentStore
	Conversations ConversationLookup
	Logger        *slog.Logger
}

func (h AttachmentHandler) Get(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	path := strings.TrimLeft(c.Param("path"), "/")
	if path == "" || strings.Contains(path, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment path"})
		return
	}
	conversationID, ok := chat.ConversationOfPath(path)
	if !ok {
		respondError(c, h.Logger, policies.ErrObjectNotFound, "get attachment", "path", path)
		return
	}
	conv, err := h.Conversations.ByID(c.Request.Context(), conversationID)
	if err != nil {
		respondError(c, h.Logger, err, "get attachment", "path", path)
		return
	}
	if !conv.IsParticipant(string(identity.ID)) {
		respondError(c, h.Logger, chat.ErrAccessDenied, "get attachment", "path", path, "user_id", identity.ID)
		return
	}
	obj, err := h.Store.Open(c.Request.Context(), path)
	if err != nil {
		respondError(c, h.Logger, err, "get attachment", "path", path)
		return
	}
	defer obj.Body.Close()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Cache-Control": "private, max-age=86400",
	})
}
