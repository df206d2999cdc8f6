package user

import (
	"context"
	"errors"
	"strings"

	"campuschat/internal/domain/chat"
)

var (
	ErrIDRequired = errors.New("user: id is required")
	ErrNotFound   = errors.New("user: not found")
)

type ID string

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	ID    ID
	Name  string
	Email string
}

func (i Identity) Validate() error {
	if strings.TrimSpace(string(i.ID)) == "" {
		return ErrIDRequired
	}
	return nil
}

// Profile is the public card of a user.
type Profile struct {
	ID    ID
	Name  string
	Email string
	Image string
}

// Directory resolves public profiles. Implementations return ErrNotFound when absent.
type Directory interface {
	ByID(ctx context.Context, id ID) (Profile, error)
}

func (i Identity) Participant() chat.Participant {
	return chat.Participant{
		ID:    strings.TrimSpace(string(i.ID)),
		Name:  strings.TrimSpace(i.Name),
		Email: normalizeEmail(i.Email),
	}
}

func (p Profile) Participant() chat.Participant {
	return chat.Participant{
		ID:    strings.TrimSpace(string(p.ID)),
		Name:  strings.TrimSpace(p.Name),
		Email: normalizeEmail(p.Email),
		Image: strings.TrimSpace(p.Image),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
