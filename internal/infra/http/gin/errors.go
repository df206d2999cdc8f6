package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/middleware"
	"campuschat/internal/app/policies"
	"campuschat/internal/app/queries"
	"campuschat/internal/domain/chat"
	domainuser "campuschat/internal/domain/user"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{middleware.ErrUnauthenticated, http.StatusUnauthorized, "auth required"},
	{domainuser.ErrIDRequired, http.StatusUnauthorized, "auth required"},
	{chat.ErrSelfMessaging, http.StatusBadRequest, "you cannot message yourself"},
	{chat.ErrMissingHost, http.StatusUnprocessableEntity, "this listing has no owner to contact"},
	{chat.ErrListingNotFound, http.StatusNotFound, "listing not found"},
	{chat.ErrInvalidConversation, http.StatusBadRequest, "invalid conversation request"},
	{chat.ErrConversationNotFound, http.StatusNotFound, "conversation not found"},
	{chat.ErrAccessDenied, http.StatusForbidden, "you are not a participant in this conversation"},
	{chat.ErrInvalidMessage, http.StatusBadRequest, "a message needs exactly one of text, image or file"},
	{chat.ErrAttachmentTooLarge, http.StatusRequestEntityTooLarge, "file too large (max 10 MB)"},
	{chat.ErrSendInProgress, http.StatusConflict, "a message is already being sent"},
	{chat.ErrUploadInProgress, http.StatusConflict, "an attachment is already uploading"},
	{chat.ErrUploadFailed, http.StatusBadGateway, "failed to upload, please retry"},
	{chat.ErrSendFailed, http.StatusBadGateway, "failed to send, please retry"},
	{chat.ErrListener, http.StatusServiceUnavailable, "live updates unavailable, please reload"},
	{policies.ErrObjectNotFound, http.StatusNotFound, "attachment not found"},
	{commands.ErrHandlerNotFound, http.StatusNotImplemented, "operation unavailable"},
	{queries.ErrHandlerNotFound, http.StatusNotImplemented, "operation unavailable"},
}

func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// respondError writes the mapped status and message. Server-side failures are
// logged with op and attrs.
func respondError(c *gin.Context, logger *slog.Logger, err error, op string, attrs ...any) {
	status, message := classify(err)
	if logger != nil && status >= http.StatusInternalServerError {
		args := append([]any{"op", op, "error", err}, attrs...)
		logger.Error("request failed", args...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
