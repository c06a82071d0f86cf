package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/amalaspotdiscovery/pkg/errors"
)

const venuesTable = "venues"

// VenueAdapter implements VenueRepository on PostgreSQL
type VenueAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVenueAdapter creates a new venue adapter
func NewVenueAdapter(client *postgres.Client) repositories.VenueRepository {
	return &VenueAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new venue
func (a *VenueAdapter) Create(ctx context.Context, venue *entities.Venue) error {
	record := goqu.Record{
		"id":                  venue.ID,
		"name":                venue.Name,
		"description":         venue.Description,
		"address":             venue.Address,
		"latitude":            venue.Location.Latitude,
		"longitude":           venue.Location.Longitude,
		"phone_number":        venue.PhoneNumber,
		"opening_time":        venue.OpeningTime,
		"closing_time":        venue.ClosingTime,
		"price_tier":          venue.PriceTier,
		"specialties":         pq.Array(venue.Specialties),
		"rating":              venue.Rating,
		"review_count":        venue.ReviewCount,
		"source_candidate_id": sql.NullString{String: venue.SourceCandidateID, Valid: venue.SourceCandidateID != ""},
		"is_active":           venue.IsActive,
		"created_at":          venue.CreatedAt,
		"updated_at":          venue.UpdatedAt,
	}

	query, args, err := a.db.Insert(venuesTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create venue", err)
	}

	return nil
}

// GetByID retrieves a venue by ID
func (a *VenueAdapter) GetByID(ctx context.Context, id string) (*entities.Venue, error) {
	query, args, err := a.db.From(venuesTable).
		Select(venueColumns()...).
		Where(goqu.Ex{"id": id, "is_active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build select query", err)
	}

	venue, err := scanVenue(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("venue with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get venue", err)
	}

	return venue, nil
}

// FindNearby retrieves active venues within radiusKm of the location,
// nearest first
func (a *VenueAdapter) FindNearby(ctx context.Context, location entities.Location, radiusKm float64) ([]*entities.Venue, error) {
	query := `
		SELECT id, name, description, address, latitude, longitude,
			phone_number, opening_time, closing_time, price_tier,
			specialties, rating, review_count, source_candidate_id,
			is_active, created_at, updated_at
		FROM (
			SELECT *,
				(6371 * acos(least(1.0, cos(radians($1)) * cos(radians(latitude)) *
				cos(radians(longitude) - radians($2)) + sin(radians($1)) *
				sin(radians(latitude))))) AS distance_km
			FROM venues
			WHERE is_active = true
		) nearby
		WHERE distance_km <= $3
		ORDER BY distance_km
	`

	rows, err := a.client.DB().QueryContext(ctx, query, location.Latitude, location.Longitude, radiusKm)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find nearby venues", err)
	}
	defer rows.Close()

	venues := []*entities.Venue{}
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan venue", err)
		}
		venues = append(venues, venue)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating venues", err)
	}

	return venues, nil
}

func venueColumns() []interface{} {
	return []interface{}{
		"id", "name", "description", "address", "latitude", "longitude",
		"phone_number", "opening_time", "closing_time", "price_tier",
		"specialties", "rating", "review_count", "source_candidate_id",
		"is_active", "created_at", "updated_at",
	}
}

func scanVenue(row rowScanner) (*entities.Venue, error) {
	venue := &entities.Venue{}
	var sourceCandidateID sql.NullString

	err := row.Scan(
		&venue.ID,
		&venue.Name,
		&venue.Description,
		&venue.Address,
		&venue.Location.Latitude,
		&venue.Location.Longitude,
		&venue.PhoneNumber,
		&venue.OpeningTime,
		&venue.ClosingTime,
		&venue.PriceTier,
		pq.Array(&venue.Specialties),
		&venue.Rating,
		&venue.ReviewCount,
		&sourceCandidateID,
		&venue.IsActive,
		&venue.CreatedAt,
		&venue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sourceCandidateID.Valid {
		venue.SourceCandidateID = sourceCandidateID.String
	}

	return venue, nil
}
