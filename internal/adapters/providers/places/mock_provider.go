package places

import (
	"context"
	"strings"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
)

// MockPlaceSearchProvider implements a mock place-search provider for
// development runs without an API key
type MockPlaceSearchProvider struct{}

// NewMockPlaceSearchProvider creates a new mock place-search provider
func NewMockPlaceSearchProvider() providers.PlaceSearchProvider {
	return &MockPlaceSearchProvider{}
}

var mockCityCoordinates = map[string]entities.Location{
	"Lagos":    {Latitude: 6.5244, Longitude: 3.3792},
	"Ibadan":   {Latitude: 7.3775, Longitude: 3.9470},
	"Abuja":    {Latitude: 9.0765, Longitude: 7.3986},
	"Abeokuta": {Latitude: 7.1475, Longitude: 3.3619},
	"Ilorin":   {Latitude: 8.4966, Longitude: 4.5421},
	"Osogbo":   {Latitude: 7.7827, Longitude: 4.5418},
}

// SearchPlaces returns deterministic sample spots around the center
func (m *MockPlaceSearchProvider) SearchPlaces(_ context.Context, center entities.Location, _ int, query string) ([]*providers.PlaceCandidate, error) {
	return []*providers.PlaceCandidate{
		{
			PlaceID:     "mock-place-1",
			Name:        "Iya Basira Amala Joint",
			Address:     "12 Ojuelegba Road",
			Location:    &entities.Location{Latitude: center.Latitude + 0.01, Longitude: center.Longitude + 0.01},
			Rating:      4.6,
			ReviewCount: 182,
			PriceTier:   1,
			Types:       []string{"restaurant", "food"},
		},
		{
			PlaceID:     "mock-place-2",
			Name:        "Amala Sky " + query,
			Address:     "3 Allen Avenue",
			Location:    &entities.Location{Latitude: center.Latitude - 0.01, Longitude: center.Longitude - 0.01},
			Rating:      4.2,
			ReviewCount: 95,
			PriceTier:   2,
			Types:       []string{"restaurant"},
		},
	}, nil
}

// GetPlaceDetails returns a sample detail record for known mock places
func (m *MockPlaceSearchProvider) GetPlaceDetails(_ context.Context, placeID string) (*providers.PlaceDetails, error) {
	if !strings.HasPrefix(placeID, "mock-place-") {
		return nil, nil
	}
	return &providers.PlaceDetails{
		PlaceCandidate: providers.PlaceCandidate{
			PlaceID: placeID,
			Rating:  4.6,
			Types:   []string{"restaurant"},
		},
		PhoneNumber: "+2348012345678",
		OpeningHours: []providers.DayHours{
			{Weekday: 1, Open: "08:00", Close: "21:00"},
			{Weekday: 2, Open: "08:00", Close: "21:00"},
			{Weekday: 3, Open: "08:00", Close: "21:00"},
			{Weekday: 4, Open: "08:00", Close: "21:00"},
			{Weekday: 5, Open: "08:00", Close: "22:00"},
			{Weekday: 6, Open: "09:00", Close: "22:00"},
		},
		Reviews: []providers.PlaceReview{
			{Author: "Tunde", Rating: 5, Text: "Soft amala with ewedu and gbegiri"},
		},
	}, nil
}

// GeocodeAddress resolves addresses mentioning a known city
func (m *MockPlaceSearchProvider) GeocodeAddress(_ context.Context, address string) (*entities.Location, error) {
	for city, location := range mockCityCoordinates {
		if strings.Contains(strings.ToLower(address), strings.ToLower(city)) {
			loc := location
			return &loc, nil
		}
	}
	return nil, nil
}

// FindNearbyPlaces returns sample places next to the center
func (m *MockPlaceSearchProvider) FindNearbyPlaces(_ context.Context, center entities.Location, _ int, placeType string) ([]*providers.PlaceCandidate, error) {
	return []*providers.PlaceCandidate{
		{
			PlaceID:  "mock-place-3",
			Name:     "Mama Cass Buka",
			Address:  "Bodija Market Road",
			Location: &entities.Location{Latitude: center.Latitude + 0.0005, Longitude: center.Longitude - 0.0005},
			Rating:   4.0,
			Types:    []string{placeType},
		},
	}, nil
}
