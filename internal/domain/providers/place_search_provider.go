package providers

import (
	"context"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
)

// PlaceSearchProvider defines the interface for external place-search services
type PlaceSearchProvider interface {
	// SearchPlaces runs a text search around a center point
	SearchPlaces(ctx context.Context, center entities.Location, radiusM int, query string) ([]*PlaceCandidate, error)

	// GetPlaceDetails retrieves the full detail record for a place.
	// Returns (nil, nil) when the place is unknown to the provider.
	GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error)

	// GeocodeAddress converts an address to coordinates.
	// Returns (nil, nil) when the address cannot be resolved.
	GeocodeAddress(ctx context.Context, address string) (*entities.Location, error)

	// FindNearbyPlaces finds places of a given type within a radius
	FindNearbyPlaces(ctx context.Context, center entities.Location, radiusM int, placeType string) ([]*PlaceCandidate, error)
}

// PlaceCandidate is a summary result from a place search
type PlaceCandidate struct {
	PlaceID     string
	Name        string
	Address     string
	Location    *entities.Location
	Rating      float64
	ReviewCount int
	PriceTier   int
	Types       []string
	OpenNow     *bool
	PhotoRef    string
}

// PlaceDetails is the full detail record for a place
type PlaceDetails struct {
	PlaceCandidate
	PhoneNumber  string
	Website      string
	OpeningHours []DayHours
	Reviews      []PlaceReview
}

// DayHours holds opening hours for one weekday (0 = Sunday)
type DayHours struct {
	Weekday int
	Open    string
	Close   string
}

// PlaceReview is a single user review attached to a place
type PlaceReview struct {
	Author string
	Rating float64
	Text   string
}
