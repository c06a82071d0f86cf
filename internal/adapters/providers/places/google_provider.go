package places

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/observability"
)

const (
	googleTextSearchURL    = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	googleNearbySearchURL  = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	googleDetailsURL       = "https://maps.googleapis.com/maps/api/place/details/json"
	googleGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultGeocodeCacheTTL = 60 * 60 * 24 * 30
	defaultHTTPTimeout     = 8 * time.Second
)

// GooglePlacesProvider implements the PlaceSearchProvider using the Google
// Places and Geocoding APIs.
type GooglePlacesProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	metrics    *observability.Metrics
	baseURL    string
}

// NewGooglePlacesProvider creates a new Google place-search provider.
// metrics may be nil; cache hit/miss recording is then skipped.
func NewGooglePlacesProvider(apiKey string, cache providers.CacheProvider, metrics *observability.Metrics) providers.PlaceSearchProvider {
	return NewGooglePlacesProviderWithOptions(apiKey, cache, metrics, "", nil)
}

// NewGooglePlacesProviderWithOptions allows overriding the base URL and HTTP
// client (used for tests). baseURL replaces "https://maps.googleapis.com/maps/api".
func NewGooglePlacesProviderWithOptions(apiKey string, cache providers.CacheProvider, metrics *observability.Metrics, baseURL string, httpClient *http.Client) providers.PlaceSearchProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GooglePlacesProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		metrics:    metrics,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// SearchPlaces runs a text search biased around the center point
func (g *GooglePlacesProvider) SearchPlaces(ctx context.Context, center entities.Location, radiusM int, query string) ([]*providers.PlaceCandidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("location", fmt.Sprintf("%f,%f", center.Latitude, center.Longitude))
	params.Set("radius", fmt.Sprintf("%d", radiusM))
	params.Set("region", "ng")

	resp, err := g.doSearchRequest(ctx, g.endpoint(googleTextSearchURL), params)
	if err != nil {
		return nil, err
	}

	return convertSearchResults(resp.Results), nil
}

// FindNearbyPlaces finds places of a given type within a radius
func (g *GooglePlacesProvider) FindNearbyPlaces(ctx context.Context, center entities.Location, radiusM int, placeType string) ([]*providers.PlaceCandidate, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", center.Latitude, center.Longitude))
	params.Set("radius", fmt.Sprintf("%d", radiusM))
	if placeType != "" {
		params.Set("type", placeType)
	}

	resp, err := g.doSearchRequest(ctx, g.endpoint(googleNearbySearchURL), params)
	if err != nil {
		return nil, err
	}

	return convertSearchResults(resp.Results), nil
}

// GetPlaceDetails retrieves the full detail record for a place
func (g *GooglePlacesProvider) GetPlaceDetails(ctx context.Context, placeID string) (*providers.PlaceDetails, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("place id is required")
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,formatted_address,geometry,rating,user_ratings_total,price_level,types,opening_hours,formatted_phone_number,international_phone_number,website,reviews")

	payload, err := g.doRequest(ctx, g.endpoint(googleDetailsURL), params)
	if err != nil {
		return nil, err
	}

	var resp googleDetailsResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode place details response: %w", err)
	}
	if resp.Status == "ZERO_RESULTS" || resp.Status == "NOT_FOUND" {
		return nil, nil
	}
	if resp.Status != "OK" {
		return nil, statusError("place details", resp.Status, resp.ErrorMessage)
	}

	return convertDetails(resp.Result), nil
}

// GeocodeAddress converts an address to coordinates, cache-aside
func (g *GooglePlacesProvider) GeocodeAddress(ctx context.Context, address string) (*entities.Location, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, fmt.Errorf("address is required")
	}

	cacheKey := "places:v1:geocode:" + hashKey(strings.ToLower(trimmed))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var loc entities.Location
			if err := json.Unmarshal(cached, &loc); err == nil && (loc.Latitude != 0 || loc.Longitude != 0) {
				observability.RecordCacheHit(ctx, g.metrics, "geocode")
				return &loc, nil
			}
		}
		observability.RecordCacheMiss(ctx, g.metrics, "geocode")
	}

	params := url.Values{}
	params.Set("address", trimmed)
	params.Set("region", "ng")

	payload, err := g.doRequest(ctx, g.endpoint(googleGeocodeURL), params)
	if err != nil {
		return nil, err
	}

	var resp googleGeocodeResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if resp.Status == "ZERO_RESULTS" || len(resp.Results) == 0 {
		return nil, nil
	}
	if resp.Status != "OK" {
		return nil, statusError("geocode", resp.Status, resp.ErrorMessage)
	}

	loc := entities.Location{
		Latitude:  resp.Results[0].Geometry.Location.Lat,
		Longitude: resp.Results[0].Geometry.Location.Lng,
	}

	if g.cache != nil {
		if data, err := json.Marshal(loc); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, defaultGeocodeCacheTTL)
		}
	}

	return &loc, nil
}

func (g *GooglePlacesProvider) endpoint(defaultURL string) string {
	if g.baseURL == "" {
		return defaultURL
	}
	return g.baseURL + strings.TrimPrefix(defaultURL, "https://maps.googleapis.com/maps/api")
}

func (g *GooglePlacesProvider) doSearchRequest(ctx context.Context, endpoint string, params url.Values) (*googleSearchResponse, error) {
	payload, err := g.doRequest(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp googleSearchResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if resp.Status == "ZERO_RESULTS" {
		return &googleSearchResponse{Status: resp.Status}, nil
	}
	if resp.Status != "OK" {
		return nil, statusError("place search", resp.Status, resp.ErrorMessage)
	}

	return &resp, nil
}

func (g *GooglePlacesProvider) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google places api key is required")
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

func statusError(operation, status, message string) error {
	if message != "" {
		return fmt.Errorf("%s failed: %s - %s", operation, status, message)
	}
	return fmt.Errorf("%s failed: %s", operation, status)
}

func convertSearchResults(results []googlePlaceResult) []*providers.PlaceCandidate {
	candidates := make([]*providers.PlaceCandidate, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, convertPlace(result))
	}
	return candidates
}

func convertPlace(result googlePlaceResult) *providers.PlaceCandidate {
	candidate := &providers.PlaceCandidate{
		PlaceID:     result.PlaceID,
		Name:        result.Name,
		Address:     firstNonEmpty(result.FormattedAddress, result.Vicinity),
		Rating:      result.Rating,
		ReviewCount: result.UserRatingsTotal,
		PriceTier:   result.PriceLevel,
		Types:       result.Types,
	}
	if result.Geometry != nil {
		candidate.Location = &entities.Location{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		}
	}
	if result.OpeningHours != nil && result.OpeningHours.OpenNow != nil {
		candidate.OpenNow = result.OpeningHours.OpenNow
	}
	if len(result.Photos) > 0 {
		candidate.PhotoRef = result.Photos[0].PhotoReference
	}
	return candidate
}

func convertDetails(result googlePlaceResult) *providers.PlaceDetails {
	details := &providers.PlaceDetails{
		PlaceCandidate: *convertPlace(result),
		PhoneNumber:    firstNonEmpty(result.InternationalPhoneNumber, result.FormattedPhoneNumber),
		Website:        result.Website,
	}
	if result.OpeningHours != nil {
		for _, period := range result.OpeningHours.Periods {
			hours := providers.DayHours{
				Weekday: period.Open.Day,
				Open:    formatHHMM(period.Open.Time),
			}
			if period.Close != nil {
				hours.Close = formatHHMM(period.Close.Time)
			}
			details.OpeningHours = append(details.OpeningHours, hours)
		}
	}
	for _, review := range result.Reviews {
		details.Reviews = append(details.Reviews, providers.PlaceReview{
			Author: review.AuthorName,
			Rating: review.Rating,
			Text:   review.Text,
		})
	}
	return details
}

func formatHHMM(t string) string {
	if len(t) != 4 {
		return t
	}
	return t[:2] + ":" + t[2:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type googleSearchResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Results      []googlePlaceResult `json:"results"`
}

type googleDetailsResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Result       googlePlaceResult `json:"result"`
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googlePlaceResult struct {
	PlaceID                  string              `json:"place_id"`
	Name                     string              `json:"name"`
	FormattedAddress         string              `json:"formatted_address"`
	Vicinity                 string              `json:"vicinity"`
	Geometry                 *googleGeometry     `json:"geometry"`
	Rating                   float64             `json:"rating"`
	UserRatingsTotal         int                 `json:"user_ratings_total"`
	PriceLevel               int                 `json:"price_level"`
	Types                    []string            `json:"types"`
	OpeningHours             *googleOpeningHours `json:"opening_hours"`
	Photos                   []googlePhoto       `json:"photos"`
	FormattedPhoneNumber     string              `json:"formatted_phone_number"`
	InternationalPhoneNumber string              `json:"international_phone_number"`
	Website                  string              `json:"website"`
	Reviews                  []googleReview      `json:"reviews"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleOpeningHours struct {
	OpenNow *bool          `json:"open_now"`
	Periods []googlePeriod `json:"periods"`
}

type googlePeriod struct {
	Open  googlePeriodPoint  `json:"open"`
	Close *googlePeriodPoint `json:"close"`
}

type googlePeriodPoint struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

type googlePhoto struct {
	PhotoReference string `json:"photo_reference"`
}

type googleReview struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}
