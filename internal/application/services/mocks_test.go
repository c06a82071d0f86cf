package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
)

// fixedClock pins time for deterministic assertions
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

// stubFetcher serves canned HTML keyed by URL
type stubFetcher struct {
	pages map[string]string
	err   error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.pages[url], nil
}

// extractorStub is a canned discovery source
type extractorStub struct {
	candidates []*entities.SpotCandidate
	err        error
}

func (e *extractorStub) ExtractCandidates(context.Context) ([]*entities.SpotCandidate, error) {
	return e.candidates, e.err
}

type MockCandidateRepository struct {
	mock.Mock
}

func (m *MockCandidateRepository) Upsert(ctx context.Context, candidate *entities.SpotCandidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

func (m *MockCandidateRepository) GetByID(ctx context.Context, id string) (*entities.SpotCandidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SpotCandidate), args.Error(1)
}

func (m *MockCandidateRepository) List(ctx context.Context, filter repositories.CandidateFilter) ([]*entities.SpotCandidate, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SpotCandidate), args.Error(1)
}

func (m *MockCandidateRepository) FindNearby(ctx context.Context, location entities.Location, radiusKm float64, statuses []entities.CandidateStatus) ([]*entities.SpotCandidate, error) {
	args := m.Called(ctx, location, radiusKm, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SpotCandidate), args.Error(1)
}

type MockVenueRepository struct {
	mock.Mock
}

func (m *MockVenueRepository) Create(ctx context.Context, venue *entities.Venue) error {
	args := m.Called(ctx, venue)
	return args.Error(0)
}

func (m *MockVenueRepository) GetByID(ctx context.Context, id string) (*entities.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Venue), args.Error(1)
}

func (m *MockVenueRepository) FindNearby(ctx context.Context, location entities.Location, radiusKm float64) ([]*entities.Venue, error) {
	args := m.Called(ctx, location, radiusKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Venue), args.Error(1)
}

type MockVenueSearchRepository struct {
	mock.Mock
}

func (m *MockVenueSearchRepository) Index(ctx context.Context, venue *entities.Venue) error {
	args := m.Called(ctx, venue)
	return args.Error(0)
}

func (m *MockVenueSearchRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPlaceSearchProvider struct {
	mock.Mock
}

func (m *MockPlaceSearchProvider) SearchPlaces(ctx context.Context, center entities.Location, radiusM int, query string) ([]*providers.PlaceCandidate, error) {
	args := m.Called(ctx, center, radiusM, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*providers.PlaceCandidate), args.Error(1)
}

func (m *MockPlaceSearchProvider) GetPlaceDetails(ctx context.Context, placeID string) (*providers.PlaceDetails, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.PlaceDetails), args.Error(1)
}

func (m *MockPlaceSearchProvider) GeocodeAddress(ctx context.Context, address string) (*entities.Location, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Location), args.Error(1)
}

func (m *MockPlaceSearchProvider) FindNearbyPlaces(ctx context.Context, center entities.Location, radiusM int, placeType string) ([]*providers.PlaceCandidate, error) {
	args := m.Called(ctx, center, radiusM, placeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*providers.PlaceCandidate), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.DiscoveryEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DiscoveryEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.DiscoveryEvent), args.Error(1)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}
