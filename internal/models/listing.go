package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyType categorizes a listing.
type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyVilla      PropertyType = "villa"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
)

// ListingStatus is sale vs rent.
type ListingStatus string

const (
	ListingSale ListingStatus = "sale"
	ListingRent ListingStatus = "rent"
)

// Listing is a property listing shown on the public site.
type Listing struct {
	ID              uuid.UUID     `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Description     string        `json:"description"`
	PropertyType    PropertyType  `json:"property_type"`
	Status          ListingStatus `json:"status"`
	Price           int64         `json:"price"`
	Location        string        `json:"location"`
	Bedrooms        int           `json:"bedrooms"`
	Bathrooms       int           `json:"bathrooms"`
	AreaSqm         int           `json:"area_sqm"`
	IsActive        bool          `json:"is_active"`
	IsFeatured      bool          `json:"is_featured"`
	MetaTitle       string        `json:"meta_title,omitempty"`
	MetaDescription string        `json:"meta_description,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Images []ListingImage `json:"images,omitempty"`
}

// ListingImage is one gallery image for a listing, stored in S3.
type ListingImage struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`
	Key       string    `json:"key"`
	URL       string    `json:"url,omitempty"` // absolute, resolved from Key
	IsCover   bool      `json:"is_cover"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
