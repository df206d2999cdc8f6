package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConversation(t *testing.T) *Conversation {
	t.Helper()
	conv, err := NewConversation(NewConversationParams{
		ID:      "c1",
		Listing: ListingSnapshot{ID: "L", Title: "Sunny room", Kind: KindSublease},
		Host:    Participant{ID: "H", Name: "Hana"},
		Guest:   Participant{ID: "G", Name: "Gus"},
		Now:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return conv
}

func TestNewConversation(t *testing.T) {
	conv := newTestConversation(t)

	assert.Equal(t, []string{"G", "H"}, conv.Participants)
	assert.Zero(t, conv.HostUnreadCount)
	assert.Zero(t, conv.GuestUnreadCount)
	assert.Empty(t, conv.LastMessage)
	assert.Equal(t, conv.CreatedAt, conv.Activity())
	require.Len(t, conv.PendingEvents(), 1)
	assert.Equal(t, "conversation.created", conv.PendingEvents()[0].EventName())
}

func TestNewConversation_Invalid(t *testing.T) {
	base := NewConversationParams{
		ID:      "c1",
		Listing: ListingSnapshot{ID: "L"},
		Host:    Participant{ID: "H"},
		Guest:   Participant{ID: "G"},
	}
	cases := map[string]func(p *NewConversationParams){
		"missing id":      func(p *NewConversationParams) { p.ID = "" },
		"missing listing": func(p *NewConversationParams) { p.Listing.ID = " " },
		"missing host":    func(p *NewConversationParams) { p.Host.ID = "" },
		"missing guest":   func(p *NewConversationParams) { p.Guest.ID = "" },
		"self":            func(p *NewConversationParams) { p.Guest.ID = "H" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := base
			mutate(&params)
			_, err := NewConversation(params)
			assert.True(t, errors.Is(err, ErrInvalidConversation))
		})
	}
}

func TestConversation_RecordMessageAndReset(t *testing.T) {
	conv := newTestConversation(t)
	at := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, conv.RecordMessage("G", "Is this available?", at))
	require.NoError(t, conv.RecordMessage("G", "Hello?", at.Add(time.Minute)))

	assert.Equal(t, 2, conv.HostUnreadCount)
	assert.Equal(t, 0, conv.GuestUnreadCount)
	assert.Equal(t, "Hello?", conv.LastMessage)
	assert.Equal(t, at.Add(time.Minute), conv.LastMessageTime)

	conv.ResetUnread(RoleHost)
	assert.Equal(t, 0, conv.HostUnreadCount)

	assert.ErrorIs(t, conv.RecordMessage("X", "nope", at), ErrAccessDenied)
}

func TestConversation_Roles(t *testing.T) {
	conv := newTestConversation(t)

	role, ok := conv.RoleOf("H")
	assert.True(t, ok)
	assert.Equal(t, RoleHost, role)
	assert.Equal(t, "Hana", conv.Other("G").Name)
	assert.Equal(t, "Gus", conv.Other("H").Name)
	assert.False(t, conv.IsParticipant("X"))
	assert.Equal(t, ParticipantKey("G", "H"), ParticipantKey("H", "G"))
}

func TestNormalizeKind(t *testing.T) {
	assert.Equal(t, KindMoveOut, NormalizeKind("MoveOut"))
	assert.Equal(t, KindSublease, NormalizeKind(""))
	assert.Equal(t, KindSublease, NormalizeKind("sublease"))
}
