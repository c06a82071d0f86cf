package places_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/amalaspotdiscovery/internal/adapters/providers/places"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/observability"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// memoryCache is a minimal in-process CacheProvider for tests
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	c.sets++
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok, nil
}

func newTestServer(t *testing.T, routes map[string]string) (*httptest.Server, *int) {
	t.Helper()
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		body, ok := routes[r.URL.Path]
		if !ok {
			t.Fatalf("unexpected request path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") == "" {
			t.Fatalf("request missing api key")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestSearchPlaces(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/place/textsearch/json": `{
			"status": "OK",
			"results": [
				{
					"place_id": "place-1",
					"name": "Amala Sky",
					"formatted_address": "12 Allen Avenue, Ikeja, Lagos",
					"geometry": {"location": {"lat": 6.6018, "lng": 3.3515}},
					"rating": 4.5,
					"user_ratings_total": 230,
					"price_level": 2,
					"types": ["restaurant", "food"],
					"opening_hours": {"open_now": true}
				}
			]
		}`,
	})

	provider := places.NewGooglePlacesProviderWithOptions("test-key", nil, nil, server.URL, server.Client())

	results, err := provider.SearchPlaces(context.Background(), entities.Location{Latitude: 6.5244, Longitude: 3.3792}, 5000, "amala")
	require.NoError(t, err)
	require.Len(t, results, 1)

	place := results[0]
	assert.Equal(t, "place-1", place.PlaceID)
	assert.Equal(t, "Amala Sky", place.Name)
	assert.Equal(t, "12 Allen Avenue, Ikeja, Lagos", place.Address)
	require.NotNil(t, place.Location)
	assert.Equal(t, 6.6018, place.Location.Latitude)
	assert.Equal(t, 4.5, place.Rating)
	assert.Equal(t, 230, place.ReviewCount)
	assert.Equal(t, 2, place.PriceTier)
	require.NotNil(t, place.OpenNow)
	assert.True(t, *place.OpenNow)
}

func TestSearchPlaces_ZeroResults(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/place/textsearch/json": `{"status": "ZERO_RESULTS", "results": []}`,
	})

	provider := places.NewGooglePlacesProviderWithOptions("test-key", nil, nil, server.URL, server.Client())

	results, err := provider.SearchPlaces(context.Background(), entities.Location{}, 5000, "amala")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchPlaces_RequestDenied(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/place/textsearch/json": `{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`,
	})

	provider := places.NewGooglePlacesProviderWithOptions("bad-key", nil, nil, server.URL, server.Client())

	_, err := provider.SearchPlaces(context.Background(), entities.Location{}, 5000, "amala")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestGetPlaceDetails(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/place/details/json": `{
			"status": "OK",
			"result": {
				"place_id": "place-1",
				"name": "Amala Sky",
				"formatted_address": "12 Allen Avenue, Ikeja, Lagos",
				"international_phone_number": "+234 801 234 5678",
				"website": "https://amalasky.ng",
				"opening_hours": {
					"periods": [
						{"open": {"day": 1, "time": "0800"}, "close": {"day": 1, "time": "2100"}},
						{"open": {"day": 2, "time": "0900"}, "close": {"day": 2, "time": "2200"}}
					]
				},
				"reviews": [
					{"author_name": "Tunde", "rating": 5, "text": "Best amala in Ikeja"}
				]
			}
		}`,
	})

	provider := places.NewGooglePlacesProviderWithOptions("test-key", nil, nil, server.URL, server.Client())

	details, err := provider.GetPlaceDetails(context.Background(), "place-1")
	require.NoError(t, err)
	require.NotNil(t, details)

	assert.Equal(t, "+234 801 234 5678", details.PhoneNumber)
	assert.Equal(t, "https://amalasky.ng", details.Website)
	require.Len(t, details.OpeningHours, 2)
	assert.Equal(t, 1, details.OpeningHours[0].Weekday)
	assert.Equal(t, "08:00", details.OpeningHours[0].Open)
	assert.Equal(t, "21:00", details.OpeningHours[0].Close)
	require.Len(t, details.Reviews, 1)
	assert.Equal(t, "Tunde", details.Reviews[0].Author)
}

func TestGetPlaceDetails_NotFound(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/place/details/json": `{"status": "NOT_FOUND"}`,
	})

	provider := places.NewGooglePlacesProviderWithOptions("test-key", nil, nil, server.URL, server.Client())

	details, err := provider.GetPlaceDetails(context.Background(), "gone")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestGeocodeAddress(t *testing.T) {
	server, requests := newTestServer(t, map[string]string{
		"/geocode/json": `{
			"status": "OK",
			"results": [
				{"formatted_address": "Lagos, Nigeria", "geometry": {"location": {"lat": 6.5244, "lng": 3.3792}}}
			]
		}`,
	})

	cache := newMemoryCache()
	provider := places.NewGooglePlacesProviderWithOptions("test-key", cache, nil, server.URL, server.Client())

	location, err := provider.GeocodeAddress(context.Background(), "Lagos, Nigeria")
	require.NoError(t, err)
	require.NotNil(t, location)
	assert.Equal(t, 6.5244, location.Latitude)
	assert.Equal(t, 3.3792, location.Longitude)

	// Second lookup is served from cache
	again, err := provider.GeocodeAddress(context.Background(), "Lagos, Nigeria")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, location.Latitude, again.Latitude)
	assert.Equal(t, 1, *requests)
	assert.Equal(t, 1, cache.sets)
}

func TestGeocodeAddress_RecordsCacheMetrics(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/geocode/json": `{
			"status": "OK",
			"results": [
				{"formatted_address": "Lagos, Nigeria", "geometry": {"location": {"lat": 6.5244, "lng": 3.3792}}}
			]
		}`,
	})

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	hits, err := meter.Int64Counter("cache.hit.count")
	require.NoError(t, err)
	misses, err := meter.Int64Counter("cache.miss.count")
	require.NoError(t, err)
	metrics := &observability.Metrics{CacheHitCount: hits, CacheMissCount: misses}

	cache := newMemoryCache()
	provider := places.NewGooglePlacesProviderWithOptions("test-key", cache, metrics, server.URL, server.Client())

	_, err = provider.GeocodeAddress(context.Background(), "Lagos, Nigeria")
	require.NoError(t, err)
	_, err = provider.GeocodeAddress(context.Background(), "Lagos, Nigeria")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(1), counterValue(t, rm, "cache.miss.count"))
	assert.Equal(t, int64(1), counterValue(t, rm, "cache.hit.count"))
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestGeocodeAddress_Unresolvable(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/geocode/json": `{"status": "ZERO_RESULTS", "results": []}`,
	})

	provider := places.NewGooglePlacesProviderWithOptions("test-key", nil, nil, server.URL, server.Client())

	location, err := provider.GeocodeAddress(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, location)
}

func TestFindNearbyPlaces_UsesVicinityAddress(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/place/nearbysearch/json": `{
			"status": "OK",
			"results": [
				{"place_id": "place-2", "name": "Iya Basira", "vicinity": "Ojuelegba, Surulere"}
			]
		}`,
	})

	provider := places.NewGooglePlacesProviderWithOptions("test-key", nil, nil, server.URL, server.Client())

	results, err := provider.FindNearbyPlaces(context.Background(), entities.Location{Latitude: 6.5, Longitude: 3.35}, 100, "restaurant")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Ojuelegba, Surulere", results[0].Address)
}
