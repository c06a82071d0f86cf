package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/observability"
	"github.com/zatekoja/amalaspotdiscovery/pkg/utils"
)

const (
	minNameLength    = 3
	maxNameLength    = 200
	maxAddressLength = 500

	// Radius used when matching a candidate against provider places during
	// enrichment
	enrichmentRadiusM = 100
)

// CandidateScoringService normalizes, scores, validates, and enriches spot
// candidates
type CandidateScoringService struct {
	provider      providers.PlaceSearchProvider
	vocab         *Vocabulary
	minConfidence float64
	clock         providers.Clock
}

// NewCandidateScoringService creates a new scoring service. minConfidence is
// only used to raise a soft warning during validation.
func NewCandidateScoringService(provider providers.PlaceSearchProvider, vocab *Vocabulary, minConfidence float64, clock providers.Clock) *CandidateScoringService {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &CandidateScoringService{
		provider:      provider,
		vocab:         vocab,
		minConfidence: minConfidence,
		clock:         clock,
	}
}

// ProcessCandidate normalizes all string fields, deduplicates specialties,
// and recomputes both scores. A candidate mid-enrichment is marked Enriched;
// later stages re-run scoring without disturbing their own status.
func (s *CandidateScoringService) ProcessCandidate(candidate *entities.SpotCandidate) {
	candidate.Name = utils.NormalizeText(candidate.Name)
	candidate.Description = utils.NormalizeText(candidate.Description)
	candidate.Address = utils.NormalizeText(candidate.Address)
	candidate.PhoneNumber = utils.NormalizePhone(candidate.PhoneNumber)
	candidate.Specialties = dedupeSpecialties(candidate.Specialties)

	candidate.ConfidenceScore = s.confidenceScore(candidate)
	candidate.QualityScore = s.qualityScore(candidate)

	now := s.clock.Now()
	candidate.ProcessedAt = &now

	if candidate.Status == entities.StatusEnriching {
		candidate.Status = entities.StatusEnriched
	}
}

// confidenceScore estimates how likely the candidate is a real, on-topic
// venue from keyword evidence, data presence, and source trust
func (s *CandidateScoringService) confidenceScore(candidate *entities.SpotCandidate) float64 {
	score := 0.0
	combined := candidate.Name + " " + candidate.Description

	switch {
	case s.vocab.HasStrongKeyword(combined):
		score += 0.6
	case s.vocab.HasWeakKeyword(combined):
		score += 0.3
	}

	if candidate.Location != nil {
		score += 0.2
	}
	if candidate.PhoneNumber != "" {
		score += 0.1
	}
	if candidate.Address != "" {
		score += 0.1
	}

	switch candidate.Source {
	case entities.SourceGooglePlaces:
		score += 0.3
	case entities.SourceUserSubmission:
		score += 0.15
	case entities.SourceWebScraping:
		score += 0.05
	}

	return clamp01(score)
}

// qualityScore measures how complete and usable the record is for display
func (s *CandidateScoringService) qualityScore(candidate *entities.SpotCandidate) float64 {
	score := 0.0

	if candidate.Name != "" {
		score += 0.2
	}
	if candidate.Description != "" {
		score += 0.2
	}
	if candidate.Address != "" {
		score += 0.2
	}
	if candidate.Location != nil {
		score += 0.2
	}
	if candidate.PhoneNumber != "" {
		score += 0.2
	}
	if candidate.OpeningTime != "" && candidate.ClosingTime != "" {
		score += 0.1
	}
	if rating, ok := candidate.MetadataNumber(MetadataKeyRating); ok && rating >= 4.0 {
		score += 0.1
	}

	return clamp01(score)
}

// ValidateCandidate checks field-level and content-level correctness.
// Hard errors block verification; warnings never do.
func (s *CandidateScoringService) ValidateCandidate(candidate *entities.SpotCandidate) *entities.ValidationResult {
	result := &entities.ValidationResult{
		Errors:       []string{},
		Warnings:     []string{},
		QualityScore: candidate.QualityScore,
	}

	name := strings.TrimSpace(candidate.Name)
	switch {
	case name == "":
		result.Errors = append(result.Errors, "name is required")
	case len(name) < minNameLength:
		result.Errors = append(result.Errors, fmt.Sprintf("name must be at least %d characters", minNameLength))
	case len(name) > maxNameLength:
		result.Errors = append(result.Errors, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}

	address := strings.TrimSpace(candidate.Address)
	switch {
	case address == "":
		result.Errors = append(result.Errors, "address is required")
	case len(address) > maxAddressLength:
		result.Errors = append(result.Errors, fmt.Sprintf("address must be at most %d characters", maxAddressLength))
	}

	combined := candidate.Name + " " + candidate.Description
	hasStrong := s.vocab.HasStrongKeyword(combined)
	hasWeak := s.vocab.HasWeakKeyword(combined)
	if !hasStrong && !hasWeak {
		result.Errors = append(result.Errors, "content does not match any domain keyword")
	} else if !hasStrong {
		result.Warnings = append(result.Warnings, "only weak domain keywords matched")
	}

	if utils.IsSpam(candidate.Name) || utils.IsSpam(candidate.Description) {
		result.Errors = append(result.Errors, "content matches spam patterns")
	}

	if candidate.Location == nil {
		result.Warnings = append(result.Warnings, "no geographic location")
	}
	if candidate.ConfidenceScore < s.minConfidence {
		result.Warnings = append(result.Warnings, fmt.Sprintf("confidence %.2f below minimum %.2f", candidate.ConfidenceScore, s.minConfidence))
	}
	if candidate.PhoneNumber != "" && suspiciousPhone(candidate.PhoneNumber) {
		result.Warnings = append(result.Warnings, "phone number has a suspicious shape")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// EnrichCandidate fills in missing data from the place-search provider.
// Every step is best-effort: a provider failure is logged and enrichment
// continues with what it has.
func (s *CandidateScoringService) EnrichCandidate(ctx context.Context, candidate *entities.SpotCandidate) error {
	if s.provider == nil {
		return nil
	}

	logger := observability.LoggerFromContext(ctx)

	if candidate.Location == nil && candidate.Address != "" {
		location, err := s.provider.GeocodeAddress(ctx, candidate.Address)
		if err != nil {
			logger.Warn().Err(err).Str("candidate_id", candidate.ID).Msg("geocoding failed during enrichment")
		} else if location != nil {
			candidate.Location = location
		}
	}

	if candidate.Source != entities.SourceGooglePlaces && candidate.Location != nil {
		s.backfillFromNearbyPlace(ctx, candidate)
	}

	return nil
}

// backfillFromNearbyPlace looks for a name-similar restaurant right next to
// the candidate and copies over the fields the original source was missing
func (s *CandidateScoringService) backfillFromNearbyPlace(ctx context.Context, candidate *entities.SpotCandidate) {
	logger := observability.LoggerFromContext(ctx)

	places, err := s.provider.FindNearbyPlaces(ctx, *candidate.Location, enrichmentRadiusM, "restaurant")
	if err != nil {
		logger.Warn().Err(err).Str("candidate_id", candidate.ID).Msg("nearby place lookup failed during enrichment")
		return
	}

	for _, place := range places {
		if !utils.IsSimilarName(candidate.Name, place.Name) {
			continue
		}

		if candidate.PhoneNumber == "" {
			details, err := s.provider.GetPlaceDetails(ctx, place.PlaceID)
			if err != nil {
				logger.Warn().Err(err).Str("place_id", place.PlaceID).Msg("place details lookup failed during enrichment")
			} else if details != nil {
				candidate.PhoneNumber = utils.NormalizePhone(details.PhoneNumber)
			}
		}

		if place.Rating > 0 {
			candidate.SetMetadata(MetadataKeyRating, entities.NumberValue(place.Rating))
		}
		if place.ReviewCount > 0 {
			candidate.SetMetadata(MetadataKeyReviewCount, entities.NumberValue(float64(place.ReviewCount)))
		}
		if place.PriceTier > 0 {
			candidate.SetMetadata(MetadataKeyPriceTier, entities.NumberValue(float64(place.PriceTier)))
		}
		return
	}
}

func dedupeSpecialties(specialties []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, specialty := range specialties {
		normalized := strings.ToLower(strings.TrimSpace(specialty))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func suspiciousPhone(phone string) bool {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return true
	}
	return !strings.HasPrefix(phone, "+234") && !strings.HasPrefix(phone, "0")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
