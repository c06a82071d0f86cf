package search

import (
	"context"
	"fmt"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
	typesenseclient "github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements VenueSearchRepository using Typesense
type TypesenseAdapter struct {
	client *typesenseclient.Client
}

// NewTypesenseAdapter creates a new Typesense venue index adapter
func NewTypesenseAdapter(client *typesenseclient.Client) repositories.VenueSearchRepository {
	return &TypesenseAdapter{
		client: client,
	}
}

// Index indexes a venue
func (a *TypesenseAdapter) Index(ctx context.Context, venue *entities.Venue) error {
	document := map[string]interface{}{
		"id":           venue.ID,
		"name":         venue.Name,
		"description":  venue.Description,
		"address":      venue.Address,
		"specialties":  venue.Specialties,
		"location":     []float64{venue.Location.Latitude, venue.Location.Longitude},
		"rating":       venue.Rating,
		"review_count": venue.ReviewCount,
		"price_tier":   venue.PriceTier,
		"is_active":    venue.IsActive,
		"created_at":   venue.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(typesenseclient.VenuesCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index venue: %w", err)
	}

	return nil
}

// Delete removes a venue from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(typesenseclient.VenuesCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete venue from index: %w", err)
	}
	return nil
}
