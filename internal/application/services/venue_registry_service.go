package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/amalaspotdiscovery/pkg/errors"
)

// VenueRegistryService is the canonical registry capability: it creates
// approved venues and answers proximity queries
type VenueRegistryService struct {
	repo       repositories.VenueRepository
	searchRepo repositories.VenueSearchRepository
	clock      providers.Clock
}

// NewVenueRegistryService creates a new venue registry service
func NewVenueRegistryService(repo repositories.VenueRepository, searchRepo repositories.VenueSearchRepository, clock providers.Clock) *VenueRegistryService {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &VenueRegistryService{
		repo:       repo,
		searchRepo: searchRepo,
		clock:      clock,
	}
}

// CreateFromCandidate promotes a candidate into the registry and indexes the
// new venue. Index failures are logged, not returned (eventual consistency).
func (s *VenueRegistryService) CreateFromCandidate(ctx context.Context, candidate *entities.SpotCandidate) (*entities.Venue, error) {
	if candidate.Location == nil {
		return nil, apperrors.NewValidationError("candidate has no location")
	}

	now := s.clock.Now()
	venue := &entities.Venue{
		ID:                uuid.NewString(),
		Name:              candidate.Name,
		Description:       candidate.Description,
		Address:           candidate.Address,
		Location:          *candidate.Location,
		PhoneNumber:       candidate.PhoneNumber,
		OpeningTime:       candidate.OpeningTime,
		ClosingTime:       candidate.ClosingTime,
		PriceTier:         candidate.PriceTier,
		Specialties:       candidate.Specialties,
		SourceCandidateID: candidate.ID,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if rating, ok := candidate.MetadataNumber(MetadataKeyRating); ok {
		venue.Rating = rating
	}
	if reviews, ok := candidate.MetadataNumber(MetadataKeyReviewCount); ok {
		venue.ReviewCount = int(reviews)
	}

	if err := s.repo.Create(ctx, venue); err != nil {
		return nil, err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, venue); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("venue_id", venue.ID).Msg("failed to index venue")
		}
	}

	return venue, nil
}

// FindNearby retrieves active venues within radiusKm of the location
func (s *VenueRegistryService) FindNearby(ctx context.Context, location entities.Location, radiusKm float64) ([]*entities.Venue, error) {
	return s.repo.FindNearby(ctx, location, radiusKm)
}
