package repositories

import (
	"context"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
)

// VenueRepository defines the interface for canonical registry venue storage
type VenueRepository interface {
	// Create creates a new venue
	Create(ctx context.Context, venue *entities.Venue) error

	// GetByID retrieves a venue by ID
	GetByID(ctx context.Context, id string) (*entities.Venue, error)

	// FindNearby retrieves active venues within radiusKm of the location
	FindNearby(ctx context.Context, location entities.Location, radiusKm float64) ([]*entities.Venue, error)
}

// VenueSearchRepository defines the interface for venue search indexing
type VenueSearchRepository interface {
	// Index indexes a venue
	Index(ctx context.Context, venue *entities.Venue) error

	// Delete removes a venue from the index
	Delete(ctx context.Context, id string) error
}
