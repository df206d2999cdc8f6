package chat

import "strings"

const (
	NoMessagesPreview        = "No messages yet"
	NotificationPreviewLimit = 100
)

// Truncate cuts text to at most limit runes, marking the cut with "...".
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// PreviewOf resolves the directory preview for an optional latest message.
func PreviewOf(latest *Message) string {
	if latest == nil {
		return NoMessagesPreview
	}
	if p := latest.Preview(); p != "" {
		return p
	}
	return NoMessagesPreview
}
