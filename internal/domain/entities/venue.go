package entities

import (
	"time"
)

// Venue represents an approved spot in the canonical registry
type Venue struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Description       string    `json:"description" db:"description"`
	Address           string    `json:"address" db:"address"`
	Location          Location  `json:"location" db:"-"`
	PhoneNumber       string    `json:"phone_number" db:"phone_number"`
	OpeningTime       string    `json:"opening_time,omitempty" db:"opening_time"`
	ClosingTime       string    `json:"closing_time,omitempty" db:"closing_time"`
	PriceTier         int       `json:"price_tier" db:"price_tier"`
	Specialties       []string  `json:"specialties" db:"-"`
	Rating            float64   `json:"rating" db:"rating"`
	ReviewCount       int       `json:"review_count" db:"review_count"`
	SourceCandidateID string    `json:"source_candidate_id,omitempty" db:"source_candidate_id"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
