package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/outbox"
	"campuschat/internal/app/policies"
	domainchat "campuschat/internal/domain/chat"
	domainlistings "campuschat/internal/domain/listings"
	domainuser "campuschat/internal/domain/user"
)

const openConversationKey = "chat.conversation.open"

type OpenConversationCommand struct {
	Actor     domainuser.Identity
	ListingID string
}

func (c OpenConversationCommand) Key() string { return openConversationKey }

func (c OpenConversationCommand) ActorID() string { return string(c.Actor.ID) }

func (c OpenConversationCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return fmt.Errorf("%w: listing id is required", domainchat.ErrInvalidConversation)
	}
	return nil
}

type OpenConversationResult struct {
	ConversationID string `json:"conversation_id"`
	Created        bool   `json:"created"`
}

// OpenConversationHandler returns the caller's conversation about a listing,
// creating it on first contact.
type OpenConversationHandler struct {
	Conversations policies.ConversationRepository
	Listings      domainlistings.Reader
	Users         domainuser.Directory
	Signals       policies.ChangeSignals
	Outbox        outbox.Outbox
	Encoder       outbox.EventEncoder
	Logger        *slog.Logger
	NewID         func() string
	Now           func() time.Time
}

func (h *OpenConversationHandler) Handle(ctx context.Context, cmd OpenConversationCommand) (*OpenConversationResult, error) {
	listingID := strings.TrimSpace(cmd.ListingID)
	listing, err := h.Listings.ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domainchat.ErrListingNotFound, listingID)
		}
		return nil, err
	}
	hostID := listing.Owner()
	if hostID == "" {
		return nil, domainchat.ErrMissingHost
	}
	guest := cmd.Actor.Participant()
	if guest.ID == hostID {
		return nil, domainchat.ErrSelfMessaging
	}

	existing, err := h.Conversations.FindByListingAndParticipant(ctx, listingID, guest.ID)
	switch {
	case err == nil:
		return &OpenConversationResult{ConversationID: existing.ID}, nil
	case !errors.Is(err, domainchat.ErrConversationNotFound):
		return nil, err
	}

	conv, err := domainchat.NewConversation(domainchat.NewConversationParams{
		ID:      h.newID(),
		Listing: listing.Snapshot(),
		Host:    h.hostParticipant(ctx, hostID),
		Guest:   guest,
		Now:     h.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := h.Conversations.Create(ctx, conv); err != nil {
		if !errors.Is(err, domainchat.ErrDuplicateConversation) {
			return nil, err
		}
		winner, findErr := h.Conversations.FindByListingAndParticipant(ctx, listingID, guest.ID)
		if findErr != nil {
			return nil, errors.Join(err, findErr)
		}
		return &OpenConversationResult{ConversationID: winner.ID}, nil
	}

	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, conv.Drain()); err != nil {
		h.logWarn("record conversation events failed", err, "conversation_id", conv.ID)
	}
	notifyTopics(ctx, h.Signals, h.Logger, participantTopics(conv)...)
	return &OpenConversationResult{ConversationID: conv.ID, Created: true}, nil
}

// hostParticipant resolves the host card. A missing profile degrades to the id.
func (h *OpenConversationHandler) hostParticipant(ctx context.Context, hostID string) domainchat.Participant {
	if h.Users == nil {
		return domainchat.Participant{ID: hostID}
	}
	profile, err := h.Users.ByID(ctx, domainuser.ID(hostID))
	if err != nil {
		if !errors.Is(err, domainuser.ErrNotFound) {
			h.logWarn("resolve host profile failed", err, "host_id", hostID)
		}
		return domainchat.Participant{ID: hostID}
	}
	p := profile.Participant()
	p.ID = hostID
	return p
}

func (h *OpenConversationHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *OpenConversationHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *OpenConversationHandler) logWarn(msg string, err error, attrs ...any) {
	if h.Logger != nil {
		h.Logger.Warn(msg, append([]any{"error", err}, attrs...)...)
	}
}

var _ commands.Handler[OpenConversationCommand, *OpenConversationResult] = (*OpenConversationHandler)(nil)
