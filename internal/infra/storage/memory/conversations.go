package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
)

// ConversationRepository keeps conversations in memory. Every mutation runs
// under one lock, so counter updates are atomic.
type ConversationRepository struct {
	mu     sync.RWMutex
	byID   map[string]*chat.Conversation
	byPair map[string]string
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		byID:   make(map[string]*chat.Conversation),
		byPair: make(map[string]string),
	}
}

func (r *ConversationRepository) ByID(ctx context.Context, id string) (*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) FindByListingAndParticipant(ctx context.Context, listingID, userID string) (*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *chat.Conversation
	for _, conv := range r.byID {
		if conv.ListingID != listingID || !conv.IsParticipant(userID) {
			continue
		}
		if found == nil || conv.CreatedAt.Before(found.CreatedAt) {
			found = conv
		}
	}
	if found == nil {
		return nil, chat.ErrConversationNotFound
	}
	return cloneConversation(found), nil
}

func (r *ConversationRepository) Create(ctx context.Context, conv *chat.Conversation) error {
	if conv == nil || conv.ID == "" {
		return chat.ErrInvalidConversation
	}
	key := pairKey(conv.ListingID, conv.ParticipantKey())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPair[key]; exists {
		return chat.ErrDuplicateConversation
	}
	if _, exists := r.byID[conv.ID]; exists {
		return chat.ErrDuplicateConversation
	}
	r.byID[conv.ID] = cloneConversation(conv)
	r.byPair[key] = conv.ID
	return nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]chat.Conversation, 0)
	for _, conv := range r.byID {
		if conv.IsParticipant(userID) {
			out = append(out, *cloneConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ConversationRepository) RecordMessage(ctx context.Context, conversationID, senderID, preview string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[conversationID]
	if !ok {
		return chat.ErrConversationNotFound
	}
	return conv.RecordMessage(senderID, preview, at)
}

func (r *ConversationRepository) ResetUnread(ctx context.Context, conversationID string, role chat.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[conversationID]
	if !ok {
		return chat.ErrConversationNotFound
	}
	conv.ResetUnread(role)
	conv.UpdatedAt = time.Now().UTC()
	return nil
}

func pairKey(listingID, participantKey string) string {
	return listingID + "|" + participantKey
}

// cloneConversation copies the record without pending events.
func cloneConversation(conv *chat.Conversation) *chat.Conversation {
	return &chat.Conversation{
		ID:               conv.ID,
		ListingID:        conv.ListingID,
		Listing:          conv.Listing,
		Kind:             conv.Kind,
		Host:             conv.Host,
		Guest:            conv.Guest,
		Participants:     append([]string(nil), conv.Participants...),
		HostUnreadCount:  conv.HostUnreadCount,
		GuestUnreadCount: conv.GuestUnreadCount,
		LastMessage:      conv.LastMessage,
		LastMessageTime:  conv.LastMessageTime,
		LastSenderID:     conv.LastSenderID,
		CreatedAt:        conv.CreatedAt,
		UpdatedAt:        conv.UpdatedAt,
	}
}

var _ policies.ConversationRepository = (*ConversationRepository)(nil)
