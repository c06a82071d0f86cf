package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/amalaspotdiscovery/pkg/errors"
)

const candidatesTable = "spot_candidates"

var candidateColumns = []interface{}{
	"id", "name", "description", "address", "latitude", "longitude",
	"phone_number", "opening_time", "closing_time", "price_tier",
	"specialties", "source", "source_url", "source_metadata",
	"confidence_score", "quality_score", "status", "verification_notes",
	"linked_venue_id", "discovered_at", "processed_at", "verified_at",
}

// CandidateAdapter implements CandidateRepository on PostgreSQL
type CandidateAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCandidateAdapter creates a new candidate adapter
func NewCandidateAdapter(client *postgres.Client) repositories.CandidateRepository {
	return &CandidateAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert creates or replaces a candidate
func (a *CandidateAdapter) Upsert(ctx context.Context, candidate *entities.SpotCandidate) error {
	record, err := candidateRecord(candidate)
	if err != nil {
		return apperrors.NewInternalError("failed to encode candidate", err)
	}

	update := goqu.Record{}
	for key, value := range record {
		if key == "id" || key == "discovered_at" {
			continue
		}
		update[key] = value
	}

	query, args, err := a.db.Insert(candidatesTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert candidate", err)
	}

	return nil
}

// GetByID retrieves a candidate by ID
func (a *CandidateAdapter) GetByID(ctx context.Context, id string) (*entities.SpotCandidate, error) {
	query, args, err := a.db.From(candidatesTable).
		Select(candidateColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build select query", err)
	}

	candidate, err := scanCandidate(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("candidate with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get candidate", err)
	}

	return candidate, nil
}

// List retrieves candidates matching the filter
func (a *CandidateAdapter) List(ctx context.Context, filter repositories.CandidateFilter) ([]*entities.SpotCandidate, error) {
	ds := a.db.From(candidatesTable).Select(candidateColumns...)

	if filter.Status != nil {
		ds = ds.Where(goqu.Ex{"status": string(*filter.Status)})
	}
	if filter.Source != nil {
		ds = ds.Where(goqu.Ex{"source": string(*filter.Source)})
	}
	if filter.MinConfidence != nil {
		ds = ds.Where(goqu.C("confidence_score").Gte(*filter.MinConfidence))
	}
	if filter.MinQuality != nil {
		ds = ds.Where(goqu.C("quality_score").Gte(*filter.MinQuality))
	}
	if filter.DiscoveredAfter != nil {
		ds = ds.Where(goqu.C("discovered_at").Gte(*filter.DiscoveredAfter))
	}
	if filter.DiscoveredBefore != nil {
		ds = ds.Where(goqu.C("discovered_at").Lt(*filter.DiscoveredBefore))
	}

	ds = ds.Order(goqu.C("discovered_at").Desc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list candidates", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// FindNearby retrieves candidates in the given statuses within radiusKm of
// the location, nearest first
func (a *CandidateAdapter) FindNearby(ctx context.Context, location entities.Location, radiusKm float64, statuses []entities.CandidateStatus) ([]*entities.SpotCandidate, error) {
	statusValues := make([]string, 0, len(statuses))
	for _, s := range statuses {
		statusValues = append(statusValues, string(s))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM (
			SELECT *,
				(6371 * acos(least(1.0, cos(radians($1)) * cos(radians(latitude)) *
				cos(radians(longitude) - radians($2)) + sin(radians($1)) *
				sin(radians(latitude))))) AS distance_km
			FROM spot_candidates
			WHERE latitude IS NOT NULL AND longitude IS NOT NULL
				AND status = ANY($3)
		) nearby
		WHERE distance_km <= $4
		ORDER BY distance_km
	`, columnList())

	rows, err := a.client.DB().QueryContext(ctx, query,
		location.Latitude, location.Longitude, pq.Array(statusValues), radiusKm)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find nearby candidates", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

func columnList() string {
	out := ""
	for i, col := range candidateColumns {
		if i > 0 {
			out += ", "
		}
		out += col.(string)
	}
	return out
}

func candidateRecord(candidate *entities.SpotCandidate) (goqu.Record, error) {
	var metadata []byte
	if len(candidate.SourceMetadata) > 0 {
		encoded, err := json.Marshal(candidate.SourceMetadata)
		if err != nil {
			return nil, err
		}
		metadata = encoded
	}

	var lat, lon sql.NullFloat64
	if candidate.Location != nil {
		lat = sql.NullFloat64{Float64: candidate.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: candidate.Location.Longitude, Valid: true}
	}

	var linkedVenueID sql.NullString
	if candidate.LinkedVenueID != nil {
		linkedVenueID = sql.NullString{String: *candidate.LinkedVenueID, Valid: true}
	}

	var processedAt, verifiedAt sql.NullTime
	if candidate.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *candidate.ProcessedAt, Valid: true}
	}
	if candidate.VerifiedAt != nil {
		verifiedAt = sql.NullTime{Time: *candidate.VerifiedAt, Valid: true}
	}

	return goqu.Record{
		"id":                 candidate.ID,
		"name":               candidate.Name,
		"description":        candidate.Description,
		"address":            candidate.Address,
		"latitude":           lat,
		"longitude":          lon,
		"phone_number":       candidate.PhoneNumber,
		"opening_time":       candidate.OpeningTime,
		"closing_time":       candidate.ClosingTime,
		"price_tier":         candidate.PriceTier,
		"specialties":        pq.Array(candidate.Specialties),
		"source":             string(candidate.Source),
		"source_url":         candidate.SourceURL,
		"source_metadata":    metadata,
		"confidence_score":   candidate.ConfidenceScore,
		"quality_score":      candidate.QualityScore,
		"status":             string(candidate.Status),
		"verification_notes": candidate.VerificationNotes,
		"linked_venue_id":    linkedVenueID,
		"discovered_at":      candidate.DiscoveredAt,
		"processed_at":       processedAt,
		"verified_at":        verifiedAt,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCandidate(row rowScanner) (*entities.SpotCandidate, error) {
	candidate := &entities.SpotCandidate{}
	var (
		lat, lon      sql.NullFloat64
		metadata      []byte
		linkedVenueID sql.NullString
		processedAt   sql.NullTime
		verifiedAt    sql.NullTime
		source        string
		status        string
		discoveredAt  time.Time
	)

	err := row.Scan(
		&candidate.ID,
		&candidate.Name,
		&candidate.Description,
		&candidate.Address,
		&lat,
		&lon,
		&candidate.PhoneNumber,
		&candidate.OpeningTime,
		&candidate.ClosingTime,
		&candidate.PriceTier,
		pq.Array(&candidate.Specialties),
		&source,
		&candidate.SourceURL,
		&metadata,
		&candidate.ConfidenceScore,
		&candidate.QualityScore,
		&status,
		&candidate.VerificationNotes,
		&linkedVenueID,
		&discoveredAt,
		&processedAt,
		&verifiedAt,
	)
	if err != nil {
		return nil, err
	}

	candidate.Source = entities.CandidateSource(source)
	candidate.Status = entities.CandidateStatus(status)
	candidate.DiscoveredAt = discoveredAt

	if lat.Valid && lon.Valid {
		candidate.Location = &entities.Location{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &candidate.SourceMetadata); err != nil {
			return nil, err
		}
	}
	if linkedVenueID.Valid {
		candidate.LinkedVenueID = &linkedVenueID.String
	}
	if processedAt.Valid {
		candidate.ProcessedAt = &processedAt.Time
	}
	if verifiedAt.Valid {
		candidate.VerifiedAt = &verifiedAt.Time
	}

	return candidate, nil
}

func scanCandidates(rows *sql.Rows) ([]*entities.SpotCandidate, error) {
	candidates := []*entities.SpotCandidate{}
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan candidate", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating candidates", err)
	}
	return candidates, nil
}
