package listings

import (
	"context"
	"errors"
	"strings"

	"campuschat/internal/domain/chat"
)

var ErrNotFound = errors.New("listings: not found")

type ListingID string

// Listing is the read model the messaging core needs from the listing store.
type Listing struct {
	ID         ListingID
	OwnerID    string
	Title      string
	Image      string
	PriceCents int64
	Location   string
	Type       string
}

// Reader resolves listings by id. Implementations return ErrNotFound when absent.
type Reader interface {
	ByID(ctx context.Context, id ListingID) (Listing, error)
}

func (l Listing) Owner() string {
	return strings.TrimSpace(l.OwnerID)
}

func (l Listing) Kind() chat.Kind {
	return chat.NormalizeKind(l.Type)
}

// Snapshot captures the listing card stored on a conversation.
func (l Listing) Snapshot() chat.ListingSnapshot {
	return chat.ListingSnapshot{
		ID:         string(l.ID),
		Title:      strings.TrimSpace(l.Title),
		Image:      strings.TrimSpace(l.Image),
		Location:   strings.TrimSpace(l.Location),
		PriceCents: l.PriceCents,
		Kind:       l.Kind(),
	}
}
