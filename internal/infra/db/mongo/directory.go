package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainlistings "campuschat/internal/domain/listings"
	domainuser "campuschat/internal/domain/user"
)

// ListingReader reads listing cards owned by the marketplace service.
type ListingReader struct {
	col *mongo.Collection
}

func NewListingReader(db *mongo.Database) *ListingReader {
	return &ListingReader{col: db.Collection("listings")}
}

func (r *ListingReader) ByID(ctx context.Context, id domainlistings.ListingID) (domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainlistings.Listing{}, domainlistings.ErrNotFound
		}
		return domainlistings.Listing{}, err
	}
	return domainlistings.Listing{
		ID:         domainlistings.ListingID(doc.ID),
		OwnerID:    doc.OwnerID,
		Title:      doc.Title,
		Image:      doc.Image,
		PriceCents: doc.PriceCents,
		Location:   doc.Location,
		Type:       doc.Type,
	}, nil
}

type listingDocument struct {
	ID         string `bson:"_id"`
	OwnerID    string `bson:"owner_id"`
	Title      string `bson:"title"`
	Image      string `bson:"image"`
	PriceCents int64  `bson:"price_cents"`
	Location   string `bson:"location"`
	Type       string `bson:"type"`
}

// UserDirectory reads public profiles from the users collection.
type UserDirectory struct {
	col *mongo.Collection
}

func NewUserDirectory(db *mongo.Database) *UserDirectory {
	return &UserDirectory{col: db.Collection("users")}
}

func (d *UserDirectory) ByID(ctx context.Context, id domainuser.ID) (domainuser.Profile, error) {
	var doc profileDocument
	if err := d.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainuser.Profile{}, domainuser.ErrNotFound
		}
		return domainuser.Profile{}, err
	}
	return domainuser.Profile{
		ID:    domainuser.ID(doc.ID),
		Name:  doc.Name,
		Email: doc.Email,
		Image: doc.Image,
	}, nil
}

type profileDocument struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
	Image string `bson:"image"`
}
