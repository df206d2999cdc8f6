package dto

import (
	"time"

	"campuschat/internal/domain/chat"
)

type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// ListingCard is the listing snippet shown beside a conversation.
type ListingCard struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Image      string `json:"image,omitempty"`
	Location   string `json:"location,omitempty"`
	PriceCents int64  `json:"price_cents,omitempty"`
	Kind       string `json:"kind"`
}

// Conversation describes chat metadata.
type Conversation struct {
	ID               string      `json:"id"`
	ListingID        string      `json:"listing_id"`
	Kind             string      `json:"kind"`
	Participants     []string    `json:"participants"`
	Host             Participant `json:"host"`
	Guest            Participant `json:"guest"`
	HostUnreadCount  int         `json:"host_unread_count"`
	GuestUnreadCount int         `json:"guest_unread_count"`
	LastMessage      string      `json:"last_message"`
	LastMessageTime  *time.Time  `json:"last_message_time,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ConversationSummary is a conversation annotated for the requesting user.
type ConversationSummary struct {
	Conversation     Conversation `json:"conversation"`
	IsUserHost       bool         `json:"is_user_host"`
	OtherParticipant Participant  `json:"other_participant"`
	UnreadCount      int          `json:"unread_count"`
	Preview          string       `json:"preview"`
	Listing          ListingCard  `json:"listing"`
}

type ConversationList struct {
	Items []ConversationSummary `json:"items"`
}

// ChatMessage contains a single message payload.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Type           string    `json:"type"`
	Text           string    `json:"text,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	FileURL        string    `json:"file_url,omitempty"`
	FileName       string    `json:"file_name,omitempty"`
	FileSize       int64     `json:"file_size,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type MessageEntry struct {
	Message    ChatMessage `json:"message"`
	ShowSender bool        `json:"show_sender"`
}

type MessageGroup struct {
	Date     string         `json:"date"`
	Messages []MessageEntry `json:"messages"`
}

// MessageThread is the ordered history of one conversation plus its date groups.
type MessageThread struct {
	ConversationID  string         `json:"conversation_id"`
	Messages        []ChatMessage  `json:"messages"`
	Groups          []MessageGroup `json:"groups"`
	LatestMessageID string         `json:"latest_message_id,omitempty"`
}

type Attachment struct {
	URL      string `json:"url"`
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

func MapParticipant(p chat.Participant) Participant {
	return Participant{ID: p.ID, Name: p.Name, Email: p.Email, Image: p.Image}
}

func MapListingCard(l chat.ListingSnapshot) ListingCard {
	return ListingCard{
		ID:         l.ID,
		Title:      l.Title,
		Image:      l.Image,
		Location:   l.Location,
		PriceCents: l.PriceCents,
		Kind:       string(l.Kind),
	}
}

func MapConversation(c chat.Conversation) Conversation {
	out := Conversation{
		ID:               c.ID,
		ListingID:        c.ListingID,
		Kind:             string(c.Kind),
		Participants:     append([]string(nil), c.Participants...),
		Host:             MapParticipant(c.Host),
		Guest:            MapParticipant(c.Guest),
		HostUnreadCount:  c.HostUnreadCount,
		GuestUnreadCount: c.GuestUnreadCount,
		LastMessage:      c.LastMessage,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	if !c.LastMessageTime.IsZero() {
		t := c.LastMessageTime
		out.LastMessageTime = &t
	}
	return out
}

func MapSummary(s chat.Summary) ConversationSummary {
	return ConversationSummary{
		Conversation:     MapConversation(s.Conversation),
		IsUserHost:       s.IsUserHost,
		OtherParticipant: MapParticipant(s.Other),
		UnreadCount:      s.UnreadCount,
		Preview:          s.Preview,
		Listing:          MapListingCard(s.Listing),
	}
}

func MapSummaries(items []chat.Summary) ConversationList {
	out := ConversationList{Items: make([]ConversationSummary, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, MapSummary(item))
	}
	return out
}

func MapMessage(m chat.Message) ChatMessage {
	return ChatMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Type:           string(m.Type),
		Text:           m.Text,
		ImageURL:       m.ImageURL,
		FileURL:        m.FileURL,
		FileName:       m.FileName,
		FileSize:       m.FileSize,
		CreatedAt:      m.CreatedAt,
	}
}

func MapThread(conversationID string, msgs []chat.Message, groups []chat.DateGroup) MessageThread {
	out := MessageThread{
		ConversationID: conversationID,
		Messages:       make([]ChatMessage, 0, len(msgs)),
		Groups:         make([]MessageGroup, 0, len(groups)),
	}
	for _, m := range msgs {
		out.Messages = append(out.Messages, MapMessage(m))
	}
	for _, g := range groups {
		group := MessageGroup{Date: g.Date, Messages: make([]MessageEntry, 0, len(g.Entries))}
		for _, e := range g.Entries {
			group.Messages = append(group.Messages, MessageEntry{Message: MapMessage(e.Message), ShowSender: e.ShowSender})
		}
		out.Groups = append(out.Groups, group)
	}
	if n := len(msgs); n > 0 {
		out.LatestMessageID = msgs[n-1].ID
	}
	return out
}

func MapAttachment(r chat.UploadResult) Attachment {
	return Attachment{
		URL:      r.URL,
		Path:     r.Path,
		Kind:     string(r.Kind),
		FileName: r.FileName,
		FileSize: r.FileSize,
	}
}
