package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"campuschat/internal/domain/shared/events"
)

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Kind discriminates sublease threads from move-out sale threads. It is copied
// from the listing when the conversation is created and never updated after.
type Kind string

const (
	KindSublease Kind = "sublease"
	KindMoveOut  Kind = "moveout"
)

func NormalizeKind(raw string) Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "moveout", "move-out", "move_out", "item", "sale":
		return KindMoveOut
	default:
		return KindSublease
	}
}

type Participant struct {
	ID    string
	Name  string
	Email string
	Image string
}

// ListingSnapshot is the listing card captured at conversation creation.
type ListingSnapshot struct {
	ID         string
	Title      string
	Image      string
	Location   string
	PriceCents int64
	Kind       Kind
}

type Conversation struct {
	ID               string
	ListingID        string
	Listing          ListingSnapshot
	Kind             Kind
	Host             Participant
	Guest            Participant
	Participants     []string
	HostUnreadCount  int
	GuestUnreadCount int
	LastMessage      string
	LastMessageTime  time.Time
	LastSenderID     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	events.EventRecorder
}

type NewConversationParams struct {
	ID      string
	Listing ListingSnapshot
	Host    Participant
	Guest   Participant
	Now     time.Time
}

func NewConversation(params NewConversationParams) (*Conversation, error) {
	id := strings.TrimSpace(params.ID)
	listingID := strings.TrimSpace(params.Listing.ID)
	hostID := strings.TrimSpace(params.Host.ID)
	guestID := strings.TrimSpace(params.Guest.ID)
	switch {
	case id == "":
		return nil, fmt.Errorf("%w: id is required", ErrInvalidConversation)
	case listingID == "":
		return nil, fmt.Errorf("%w: listing id is required", ErrInvalidConversation)
	case hostID == "":
		return nil, fmt.Errorf("%w: host id is required", ErrInvalidConversation)
	case guestID == "":
		return nil, fmt.Errorf("%w: guest id is required", ErrInvalidConversation)
	case hostID == guestID:
		return nil, fmt.Errorf("%w: host and guest must differ", ErrInvalidConversation)
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	listing := params.Listing
	listing.ID = listingID
	host := params.Host
	host.ID = hostID
	guest := params.Guest
	guest.ID = guestID

	conv := &Conversation{
		ID:           id,
		ListingID:    listingID,
		Listing:      listing,
		Kind:         listing.Kind,
		Host:         host,
		Guest:        guest,
		Participants: []string{guestID, hostID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if conv.Kind == "" {
		conv.Kind = KindSublease
	}
	conv.Record(ConversationCreatedEvent{
		ConversationID: conv.ID,
		ListingID:      conv.ListingID,
		HostID:         hostID,
		GuestID:        guestID,
		At:             now,
	})
	return conv, nil
}

// RoleOf reports which side of the conversation userID is on.
func (c *Conversation) RoleOf(userID string) (Role, bool) {
	switch strings.TrimSpace(userID) {
	case "":
		return "", false
	case c.Host.ID:
		return RoleHost, true
	case c.Guest.ID:
		return RoleGuest, true
	default:
		return "", false
	}
}

func (c *Conversation) IsParticipant(userID string) bool {
	_, ok := c.RoleOf(userID)
	return ok
}

func (c *Conversation) ParticipantFor(role Role) Participant {
	if role == RoleHost {
		return c.Host
	}
	return c.Guest
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) Participant {
	if role, ok := c.RoleOf(userID); ok {
		return c.ParticipantFor(role.Counterpart())
	}
	return Participant{}
}

func (c *Conversation) UnreadFor(role Role) int {
	if role == RoleHost {
		return c.HostUnreadCount
	}
	return c.GuestUnreadCount
}

// RecordMessage updates the denormalized preview and bumps the counterpart's
// unread counter. Stores must apply it atomically.
func (c *Conversation) RecordMessage(senderID, preview string, at time.Time) error {
	role, ok := c.RoleOf(senderID)
	if !ok {
		return ErrAccessDenied
	}
	at = at.UTC()
	c.LastMessage = preview
	c.LastMessageTime = at
	c.LastSenderID = senderID
	c.UpdatedAt = at
	if role.Counterpart() == RoleHost {
		c.HostUnreadCount++
	} else {
		c.GuestUnreadCount++
	}
	return nil
}

func (c *Conversation) ResetUnread(role Role) {
	if role == RoleHost {
		c.HostUnreadCount = 0
		return
	}
	c.GuestUnreadCount = 0
}

// Activity is the ordering key used by the directory.
func (c *Conversation) Activity() time.Time {
	if !c.LastMessageTime.IsZero() {
		return c.LastMessageTime
	}
	return c.CreatedAt
}

func (c *Conversation) ParticipantKey() string {
	return ParticipantKey(c.Host.ID, c.Guest.ID)
}

func (r Role) Counterpart() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

// ParticipantKey is the order-independent identity of a participant pair.
func ParticipantKey(a, b string) string {
	pair := []string{strings.TrimSpace(a), strings.TrimSpace(b)}
	sort.Strings(pair)
	return pair[0] + ":" + pair[1]
}
