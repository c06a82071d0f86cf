package entities

import (
	"time"
)

// DiscoveryResult aggregates the outcome of a single discovery run
type DiscoveryResult struct {
	RunID                string        `json:"run_id"`
	StartedAt            time.Time     `json:"started_at"`
	Duration             time.Duration `json:"duration"`
	TotalCandidatesFound int           `json:"total_candidates_found"`
	CandidatesProcessed  int           `json:"candidates_processed"`
	CandidatesEnriched   int           `json:"candidates_enriched"`
	CandidatesVerified   int           `json:"candidates_verified"`
	CandidatesApproved   int           `json:"candidates_approved"`
	CandidatesRejected   int           `json:"candidates_rejected"`
	DuplicatesDetected   int           `json:"duplicates_detected"`
	Errors               []string      `json:"errors"`
}

// DiscoveryMetrics summarizes candidates over a time window
type DiscoveryMetrics struct {
	From            *time.Time              `json:"from,omitempty"`
	To              *time.Time              `json:"to,omitempty"`
	TotalCandidates int                     `json:"total_candidates"`
	ByStatus        map[CandidateStatus]int `json:"by_status"`
	BySource        map[CandidateSource]int `json:"by_source"`
	AvgConfidence   float64                 `json:"avg_confidence"`
	AvgQuality      float64                 `json:"avg_quality"`
}

// DiscoveryEventType identifies a discovery lifecycle event
type DiscoveryEventType string

const (
	EventCandidateApproved DiscoveryEventType = "candidate.approved"
	EventCandidateRejected DiscoveryEventType = "candidate.rejected"
	EventRunCompleted      DiscoveryEventType = "run.completed"
)

// DiscoveryEvent is published on the event bus when the pipeline reaches a
// notable state, so downstream subsystems can react without polling
type DiscoveryEvent struct {
	ID          string             `json:"id"`
	Type        DiscoveryEventType `json:"type"`
	CandidateID string             `json:"candidate_id,omitempty"`
	VenueID     string             `json:"venue_id,omitempty"`
	Payload     string             `json:"payload,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}
