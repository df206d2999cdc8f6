package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	domainlistings "campuschat/internal/domain/listings"
	domainuser "campuschat/internal/domain/user"
)

type fixtureFile struct {
	Listings []listingFixture `json:"listings"`
	Users    []userFixture    `json:"users"`
}

type listingFixture struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Title      string `json:"title"`
	Image      string `json:"image"`
	PriceCents int64  `json:"price_cents"`
	Location   string `json:"location"`
	Type       string `json:"type"`
}

type userFixture struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

type FixtureStats struct {
	Listings int
	Users    int
}

// LoadFixtures seeds listings and users from a JSON file. A missing file is
// reported as os.ErrNotExist.
func LoadFixtures(path string, listings *ListingStore, users *UserDirectory) (FixtureStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FixtureStats{}, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return FixtureStats{}, nil
	}
	var file fixtureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return FixtureStats{}, fmt.Errorf("decode fixtures: %w", err)
	}

	var stats FixtureStats
	for _, fx := range file.Listings {
		id := strings.TrimSpace(fx.ID)
		if id == "" {
			return stats, errors.New("decode fixtures: listing without id")
		}
		listings.Put(domainlistings.Listing{
			ID:         domainlistings.ListingID(id),
			OwnerID:    strings.TrimSpace(fx.OwnerID),
			Title:      fx.Title,
			Image:      fx.Image,
			PriceCents: fx.PriceCents,
			Location:   fx.Location,
			Type:       fx.Type,
		})
		stats.Listings++
	}
	for _, fx := range file.Users {
		id := strings.TrimSpace(fx.ID)
		if id == "" {
			return stats, errors.New("decode fixtures: user without id")
		}
		users.Put(domainuser.Profile{ID: domainuser.ID(id), Name: fx.Name, Email: fx.Email, Image: fx.Image})
		stats.Users++
	}
	return stats, nil
}
