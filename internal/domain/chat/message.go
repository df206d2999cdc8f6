package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// Payload carries exactly one of: text, an image URL, or a file reference.
type Payload struct {
	Text     string
	ImageURL string
	FileURL  string
	FileName string
	FileSize int64
}

func (p Payload) Type() (MessageType, error) {
	hasText := strings.TrimSpace(p.Text) != ""
	hasImage := strings.TrimSpace(p.ImageURL) != ""
	hasFile := strings.TrimSpace(p.FileURL) != "" || strings.TrimSpace(p.FileName) != ""

	kinds := 0
	for _, present := range []bool{hasText, hasImage, hasFile} {
		if present {
			kinds++
		}
	}
	if kinds != 1 {
		return "", fmt.Errorf("%w: exactly one of text, image or file is required", ErrInvalidMessage)
	}
	switch {
	case hasText:
		return MessageText, nil
	case hasImage:
		return MessageImage, nil
	}
	if strings.TrimSpace(p.FileURL) == "" || strings.TrimSpace(p.FileName) == "" {
		return "", fmt.Errorf("%w: file url and name are required", ErrInvalidMessage)
	}
	if p.FileSize < 0 {
		return "", fmt.Errorf("%w: file size must be non-negative", ErrInvalidMessage)
	}
	return MessageFile, nil
}

type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	SenderName     string
	Type           MessageType
	Text           string
	ImageURL       string
	FileURL        string
	FileName       string
	FileSize       int64
	CreatedAt      time.Time
}

type NewMessageParams struct {
	ConversationID string
	SenderID       string
	SenderName     string
	Payload        Payload
}

// NewMessage validates a draft. ID and CreatedAt are left for the message log.
func NewMessage(params NewMessageParams) (Message, error) {
	conversationID := strings.TrimSpace(params.ConversationID)
	senderID := strings.TrimSpace(params.SenderID)
	if conversationID == "" || senderID == "" {
		return Message{}, fmt.Errorf("%w: conversation and sender are required", ErrInvalidMessage)
	}
	kind, err := params.Payload.Type()
	if err != nil {
		return Message{}, err
	}
	msg := Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     strings.TrimSpace(params.SenderName),
		Type:           kind,
	}
	switch kind {
	case MessageText:
		msg.Text = strings.TrimSpace(params.Payload.Text)
	case MessageImage:
		msg.ImageURL = strings.TrimSpace(params.Payload.ImageURL)
	case MessageFile:
		msg.FileURL = strings.TrimSpace(params.Payload.FileURL)
		msg.FileName = strings.TrimSpace(params.Payload.FileName)
		msg.FileSize = params.Payload.FileSize
	}
	return msg, nil
}

// Preview is the one-line summary shown in the directory.
func (m Message) Preview() string {
	switch m.Type {
	case MessageImage:
		return "Image"
	case MessageFile:
		return "File"
	default:
		return m.Text
	}
}

// SortMessages orders by store-assigned CreatedAt, breaking ties by ID.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
