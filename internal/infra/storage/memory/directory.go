package memory

import (
	"context"
	"strings"
	"sync"

	domainlistings "campuschat/internal/domain/listings"
	domainuser "campuschat/internal/domain/user"
)

// ListingStore is a read-mostly listing catalog for memory mode.
type ListingStore struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]domainlistings.Listing
}

func NewListingStore() *ListingStore {
	return &ListingStore{items: make(map[domainlistings.ListingID]domainlistings.Listing)}
}

func (s *ListingStore) ByID(ctx context.Context, id domainlistings.ListingID) (domainlistings.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listing, ok := s.items[domainlistings.ListingID(strings.TrimSpace(string(id)))]
	if !ok {
		return domainlistings.Listing{}, domainlistings.ErrNotFound
	}
	return listing, nil
}

func (s *ListingStore) Put(listing domainlistings.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[listing.ID] = listing
}

// UserDirectory holds public profiles for memory mode.
type UserDirectory struct {
	mu    sync.RWMutex
	items map[domainuser.ID]domainuser.Profile
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{items: make(map[domainuser.ID]domainuser.Profile)}
}

func (d *UserDirectory) ByID(ctx context.Context, id domainuser.ID) (domainuser.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	profile, ok := d.items[domainuser.ID(strings.TrimSpace(string(id)))]
	if !ok {
		return domainuser.Profile{}, domainuser.ErrNotFound
	}
	return profile, nil
}

func (d *UserDirectory) Put(profile domainuser.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[profile.ID] = profile
}

var (
	_ domainlistings.Reader = (*ListingStore)(nil)
	_ domainuser.Directory  = (*UserDirectory)(nil)
)
