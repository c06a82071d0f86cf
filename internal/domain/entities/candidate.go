package entities

import (
	"time"
)

// CandidateSource identifies the channel a candidate was discovered through
type CandidateSource string

const (
	SourceWebScraping    CandidateSource = "web_scraping"
	SourceGooglePlaces   CandidateSource = "google_places"
	SourceSocialMedia    CandidateSource = "social_media"
	SourceUserSubmission CandidateSource = "user_submission"
)

// CandidateStatus is the lifecycle state of a spot candidate
type CandidateStatus string

const (
	StatusDiscovered CandidateStatus = "discovered"
	StatusEnriching  CandidateStatus = "enriching"
	StatusEnriched   CandidateStatus = "enriched"
	StatusVerifying  CandidateStatus = "verifying"
	StatusVerified   CandidateStatus = "verified"
	StatusApproved   CandidateStatus = "approved"
	StatusRejected   CandidateStatus = "rejected"
	StatusDuplicate  CandidateStatus = "duplicate"
)

// IsTerminal reports whether no further pipeline stages apply
func (s CandidateStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusDuplicate
}

// MetadataKind tags the variant held by a MetadataValue
type MetadataKind string

const (
	MetadataKindString MetadataKind = "string"
	MetadataKindNumber MetadataKind = "number"
	MetadataKindBool   MetadataKind = "bool"
)

// MetadataValue is a typed variant for source-specific metadata
type MetadataValue struct {
	Kind   MetadataKind `json:"kind"`
	String string       `json:"string,omitempty"`
	Number float64      `json:"number,omitempty"`
	Bool   bool         `json:"bool,omitempty"`
}

// StringValue creates a string metadata value
func StringValue(v string) MetadataValue {
	return MetadataValue{Kind: MetadataKindString, String: v}
}

// NumberValue creates a numeric metadata value
func NumberValue(v float64) MetadataValue {
	return MetadataValue{Kind: MetadataKindNumber, Number: v}
}

// BoolValue creates a boolean metadata value
func BoolValue(v bool) MetadataValue {
	return MetadataValue{Kind: MetadataKindBool, Bool: v}
}

// SpotCandidate is a not-yet-approved venue observation produced by one of
// the discovery sources
type SpotCandidate struct {
	ID                string                   `json:"id" db:"id"`
	Name              string                   `json:"name" db:"name"`
	Description       string                   `json:"description" db:"description"`
	Address           string                   `json:"address" db:"address"`
	Location          *Location                `json:"location,omitempty" db:"-"`
	PhoneNumber       string                   `json:"phone_number" db:"phone_number"`
	OpeningTime       string                   `json:"opening_time,omitempty" db:"opening_time"`
	ClosingTime       string                   `json:"closing_time,omitempty" db:"closing_time"`
	PriceTier         int                      `json:"price_tier" db:"price_tier"`
	Specialties       []string                 `json:"specialties" db:"-"`
	Source            CandidateSource          `json:"source" db:"source"`
	SourceURL         string                   `json:"source_url" db:"source_url"`
	SourceMetadata    map[string]MetadataValue `json:"source_metadata,omitempty" db:"-"`
	ConfidenceScore   float64                  `json:"confidence_score" db:"confidence_score"`
	QualityScore      float64                  `json:"quality_score" db:"quality_score"`
	Status            CandidateStatus          `json:"status" db:"status"`
	VerificationNotes string                   `json:"verification_notes,omitempty" db:"verification_notes"`
	LinkedVenueID     *string                  `json:"linked_venue_id,omitempty" db:"linked_venue_id"`
	DiscoveredAt      time.Time                `json:"discovered_at" db:"discovered_at"`
	ProcessedAt       *time.Time               `json:"processed_at,omitempty" db:"processed_at"`
	VerifiedAt        *time.Time               `json:"verified_at,omitempty" db:"verified_at"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// MetadataNumber returns the numeric metadata value for key, if present
func (c *SpotCandidate) MetadataNumber(key string) (float64, bool) {
	if c.SourceMetadata == nil {
		return 0, false
	}
	v, ok := c.SourceMetadata[key]
	if !ok || v.Kind != MetadataKindNumber {
		return 0, false
	}
	return v.Number, true
}

// SetMetadata stores a metadata value, allocating the map on first use
func (c *SpotCandidate) SetMetadata(key string, value MetadataValue) {
	if c.SourceMetadata == nil {
		c.SourceMetadata = make(map[string]MetadataValue)
	}
	c.SourceMetadata[key] = value
}
