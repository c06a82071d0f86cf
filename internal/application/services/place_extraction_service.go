package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/observability"
	"github.com/zatekoja/amalaspotdiscovery/pkg/config"
	"github.com/zatekoja/amalaspotdiscovery/pkg/utils"
)

// Metadata keys captured from the place-search provider
const (
	MetadataKeyRating      = "rating"
	MetadataKeyReviewCount = "review_count"
	MetadataKeyPriceTier   = "price_tier"
	MetadataKeyPlaceID     = "place_id"
)

// PlaceExtractionService discovers candidates through the place-search
// provider for every configured city and keyword
type PlaceExtractionService struct {
	provider providers.PlaceSearchProvider
	cfg      config.PlaceSearchConfig
	vocab    *Vocabulary
	clock    providers.Clock
}

// NewPlaceExtractionService creates a new place extraction service
func NewPlaceExtractionService(provider providers.PlaceSearchProvider, cfg config.PlaceSearchConfig, vocab *Vocabulary, clock providers.Clock) *PlaceExtractionService {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &PlaceExtractionService{
		provider: provider,
		cfg:      cfg,
		vocab:    vocab,
		clock:    clock,
	}
}

// ExtractCandidates searches every target city for every keyword. A failure
// on one city/keyword pair is logged and skipped; the remaining combinations
// still run.
func (s *PlaceExtractionService) ExtractCandidates(ctx context.Context) ([]*entities.SpotCandidate, error) {
	if !s.cfg.Enabled {
		return []*entities.SpotCandidate{}, nil
	}

	logger := observability.LoggerFromContext(ctx)
	candidates := []*entities.SpotCandidate{}

	for _, city := range s.cfg.TargetCities {
		center, err := s.provider.GeocodeAddress(ctx, city+", Nigeria")
		if err != nil || center == nil {
			logger.Warn().Err(err).Str("city", city).Msg("failed to geocode target city")
			continue
		}

		for _, keyword := range s.cfg.Keywords {
			if err := ctx.Err(); err != nil {
				return candidates, err
			}

			results, err := s.provider.SearchPlaces(ctx, *center, s.cfg.SearchRadiusM, keyword)
			if err != nil {
				logger.Warn().Err(err).Str("city", city).Str("keyword", keyword).Msg("place search failed")
			} else {
				for _, result := range results {
					candidate, convErr := s.candidateFromPlace(ctx, result, city, keyword)
					if convErr != nil {
						logger.Warn().Err(convErr).Str("place_id", result.PlaceID).Msg("failed to convert place result")
						continue
					}
					candidates = append(candidates, candidate)
				}
			}

			if err := sleepCtx(ctx, s.cfg.RequestDelay); err != nil {
				return candidates, err
			}
		}
	}

	return candidates, nil
}

func (s *PlaceExtractionService) candidateFromPlace(ctx context.Context, place *providers.PlaceCandidate, city, keyword string) (*entities.SpotCandidate, error) {
	candidate := &entities.SpotCandidate{
		ID:           uuid.NewString(),
		Name:         utils.NormalizeText(place.Name),
		Address:      utils.NormalizeText(place.Address),
		Location:     place.Location,
		PriceTier:    place.PriceTier,
		Source:       entities.SourceGooglePlaces,
		SourceURL:    fmt.Sprintf("https://www.google.com/maps/place/?q=place_id:%s", place.PlaceID),
		Status:       entities.StatusDiscovered,
		DiscoveredAt: s.clock.Now(),
	}
	candidate.SetMetadata(MetadataKeyPlaceID, entities.StringValue(place.PlaceID))
	candidate.SetMetadata("search_city", entities.StringValue(city))
	candidate.SetMetadata("search_keyword", entities.StringValue(keyword))
	if place.Rating > 0 {
		candidate.SetMetadata(MetadataKeyRating, entities.NumberValue(place.Rating))
	}
	if place.ReviewCount > 0 {
		candidate.SetMetadata(MetadataKeyReviewCount, entities.NumberValue(float64(place.ReviewCount)))
	}
	if place.PriceTier > 0 {
		candidate.SetMetadata(MetadataKeyPriceTier, entities.NumberValue(float64(place.PriceTier)))
	}

	details, err := s.provider.GetPlaceDetails(ctx, place.PlaceID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		candidate.Description = fmt.Sprintf("%s in %s", keyword, city)
		return candidate, nil
	}

	candidate.PhoneNumber = utils.NormalizePhone(details.PhoneNumber)
	if details.Website != "" {
		candidate.SetMetadata("website", entities.StringValue(details.Website))
	}

	s.applyTodayHours(candidate, details.OpeningHours)

	reviewText := strings.Builder{}
	for _, review := range details.Reviews {
		reviewText.WriteString(review.Text)
		reviewText.WriteString(" ")
	}
	candidate.Specialties = s.vocab.ExtractFoodTerms(reviewText.String())

	if candidate.Description == "" {
		candidate.Description = buildPlaceDescription(details, city)
	}

	return candidate, nil
}

// applyTodayHours maps the provider's weekly hours onto the candidate using
// the current weekday
func (s *PlaceExtractionService) applyTodayHours(candidate *entities.SpotCandidate, hours []providers.DayHours) {
	today := int(s.clock.Now().Weekday())
	for _, day := range hours {
		if day.Weekday == today {
			candidate.OpeningTime = day.Open
			candidate.ClosingTime = day.Close
			return
		}
	}
}

func buildPlaceDescription(details *providers.PlaceDetails, city string) string {
	parts := []string{}
	if len(details.Types) > 0 {
		parts = append(parts, strings.ReplaceAll(details.Types[0], "_", " "))
	}
	parts = append(parts, "in "+city)
	if details.Rating > 0 {
		parts = append(parts, fmt.Sprintf("rated %.1f by %d reviewers", details.Rating, details.ReviewCount))
	}
	return strings.Join(parts, " ")
}
