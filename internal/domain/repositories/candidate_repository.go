package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
)

// CandidateRepository defines the interface for spot candidate storage
type CandidateRepository interface {
	// Upsert creates or replaces a candidate
	Upsert(ctx context.Context, candidate *entities.SpotCandidate) error

	// GetByID retrieves a candidate by ID
	GetByID(ctx context.Context, id string) (*entities.SpotCandidate, error)

	// List retrieves candidates matching the filter
	List(ctx context.Context, filter CandidateFilter) ([]*entities.SpotCandidate, error)

	// FindNearby retrieves candidates in the given statuses within radiusKm
	// of the location
	FindNearby(ctx context.Context, location entities.Location, radiusKm float64, statuses []entities.CandidateStatus) ([]*entities.SpotCandidate, error)
}

// CandidateFilter defines filters for listing candidates
type CandidateFilter struct {
	Status           *entities.CandidateStatus
	Source           *entities.CandidateSource
	MinConfidence    *float64
	MinQuality       *float64
	DiscoveredAfter  *time.Time
	DiscoveredBefore *time.Time
	Limit            int
	Offset           int
}
