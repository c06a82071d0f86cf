package services

import (
	"context"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
	"github.com/zatekoja/amalaspotdiscovery/pkg/utils"
)

// DuplicateMatch describes what a candidate collided with. Exactly one of
// VenueID and CandidateID is set.
type DuplicateMatch struct {
	VenueID     string
	CandidateID string
	MatchedName string
}

// nameSimilarityThreshold is the minimum Levenshtein similarity ratio for
// two nearby names to count as the same spot
const nameSimilarityThreshold = 0.8

// pendingStatuses are the lifecycle states a sibling candidate can be in and
// still count for duplicate screening
var pendingStatuses = []entities.CandidateStatus{
	entities.StatusDiscovered,
	entities.StatusEnriching,
	entities.StatusEnriched,
	entities.StatusVerifying,
	entities.StatusVerified,
}

// DuplicateDetectionService screens candidates against the canonical venue
// registry and against other pending candidates using proximity plus name
// similarity
type DuplicateDetectionService struct {
	venueRepo     repositories.VenueRepository
	candidateRepo repositories.CandidateRepository
	radiusKm      float64
}

// NewDuplicateDetectionService creates a new duplicate detection service
func NewDuplicateDetectionService(venueRepo repositories.VenueRepository, candidateRepo repositories.CandidateRepository, radiusKm float64) *DuplicateDetectionService {
	if radiusKm <= 0 {
		radiusKm = 0.1
	}
	return &DuplicateDetectionService{
		venueRepo:     venueRepo,
		candidateRepo: candidateRepo,
		radiusKm:      radiusKm,
	}
}

// FindDuplicate returns the match a candidate duplicates, or nil when it
// passes screening. Candidates without a location cannot be proven
// duplicates and always pass.
func (s *DuplicateDetectionService) FindDuplicate(ctx context.Context, candidate *entities.SpotCandidate) (*DuplicateMatch, error) {
	if candidate.Location == nil {
		return nil, nil
	}

	venues, err := s.venueRepo.FindNearby(ctx, *candidate.Location, s.radiusKm)
	if err != nil {
		return nil, err
	}
	for _, venue := range venues {
		if sameSpotName(candidate.Name, venue.Name) {
			return &DuplicateMatch{VenueID: venue.ID, MatchedName: venue.Name}, nil
		}
	}

	siblings, err := s.candidateRepo.FindNearby(ctx, *candidate.Location, s.radiusKm, pendingStatuses)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		if sibling.ID == candidate.ID {
			continue
		}
		if sameSpotName(candidate.Name, sibling.Name) {
			return &DuplicateMatch{CandidateID: sibling.ID, MatchedName: sibling.Name}, nil
		}
	}

	return nil, nil
}

func sameSpotName(a, b string) bool {
	return utils.IsSimilarName(a, b) || utils.SimilarityRatio(a, b) >= nameSimilarityThreshold
}
