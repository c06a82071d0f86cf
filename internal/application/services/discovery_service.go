package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/observability"
	"github.com/zatekoja/amalaspotdiscovery/pkg/config"
	apperrors "github.com/zatekoja/amalaspotdiscovery/pkg/errors"
)

// EventChannelDiscovery is the bus channel discovery lifecycle events are
// published to
const EventChannelDiscovery = "discovery.events"

// CandidateExtractor is one discovery source
type CandidateExtractor interface {
	ExtractCandidates(ctx context.Context) ([]*entities.SpotCandidate, error)
}

// VenueCreator promotes candidates into the canonical registry
type VenueCreator interface {
	CreateFromCandidate(ctx context.Context, candidate *entities.SpotCandidate) (*entities.Venue, error)
}

// DiscoveryService orchestrates one end-to-end discovery cycle and owns the
// candidate lifecycle state machine
type DiscoveryService struct {
	scraper       CandidateExtractor
	places        CandidateExtractor
	scoring       *CandidateScoringService
	duplicates    *DuplicateDetectionService
	candidateRepo repositories.CandidateRepository
	registry      VenueCreator
	eventBus      providers.EventBus
	metrics       *observability.Metrics
	cfg           config.DiscoveryConfig
	clock         providers.Clock
}

// NewDiscoveryService creates a new discovery orchestrator. eventBus and
// metrics may be nil; publishing and metric recording are then skipped.
func NewDiscoveryService(
	scraper CandidateExtractor,
	places CandidateExtractor,
	scoring *CandidateScoringService,
	duplicates *DuplicateDetectionService,
	candidateRepo repositories.CandidateRepository,
	registry VenueCreator,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	cfg config.DiscoveryConfig,
	clock providers.Clock,
) *DiscoveryService {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &DiscoveryService{
		scraper:       scraper,
		places:        places,
		scoring:       scoring,
		duplicates:    duplicates,
		candidateRepo: candidateRepo,
		registry:      registry,
		eventBus:      eventBus,
		metrics:       metrics,
		cfg:           cfg,
		clock:         clock,
	}
}

// stageOutcome records which stages one candidate completed
type stageOutcome struct {
	enriched  bool
	verified  bool
	approved  bool
	rejected  bool
	duplicate bool
}

// RunDiscovery executes one full discovery cycle. It never propagates an
// error: source and candidate failures are isolated into the result's error
// list, and an unexpected panic is captured as a critical error on a
// partial result.
func (s *DiscoveryService) RunDiscovery(ctx context.Context) (result *entities.DiscoveryResult) {
	ctx, span := observability.StartSpan(ctx, "discovery.run")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	result = &entities.DiscoveryResult{
		RunID:     uuid.NewString(),
		StartedAt: s.clock.Now(),
		Errors:    []string{},
	}

	defer func() {
		result.Duration = s.clock.Now().Sub(result.StartedAt)
		observability.RecordRunMetrics(ctx, s.metrics, result.TotalCandidatesFound, result.CandidatesApproved, len(result.Errors), result.Duration)
		for _, msg := range result.Errors {
			observability.RecordError(span, errors.New(msg))
		}
		s.publishEvent(ctx, &entities.DiscoveryEvent{
			ID:        uuid.NewString(),
			Type:      entities.EventRunCompleted,
			Payload:   fmt.Sprintf("found=%d approved=%d errors=%d", result.TotalCandidatesFound, result.CandidatesApproved, len(result.Errors)),
			Timestamp: s.clock.Now(),
		})
		logger.Info().
			Str("run_id", result.RunID).
			Int("found", result.TotalCandidatesFound).
			Int("approved", result.CandidatesApproved).
			Int("errors", len(result.Errors)).
			Dur("duration", result.Duration).
			Msg("discovery run finished")
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("run_id", result.RunID).Msg("discovery run failed critically")
			result.Errors = append(result.Errors, fmt.Sprintf("critical: %v", r))
		}
	}()

	if !s.cfg.Enabled {
		result.Errors = append(result.Errors, "discovery is disabled")
		return result
	}

	merged := s.extractAllSources(ctx, result)

	// Pre-score so the confidence filter has something to work with; the
	// status stays Discovered until enrichment.
	admitted := make([]*entities.SpotCandidate, 0, len(merged))
	for _, candidate := range merged {
		s.scoring.ProcessCandidate(candidate)
		if candidate.ConfidenceScore >= s.cfg.MinConfidence {
			admitted = append(admitted, candidate)
		}
	}
	if s.cfg.MaxCandidatesPerRun > 0 && len(admitted) > s.cfg.MaxCandidatesPerRun {
		admitted = admitted[:s.cfg.MaxCandidatesPerRun]
	}

	for _, candidate := range admitted {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("run cancelled: %v", ctx.Err()))
			return result
		}

		outcome, err := s.processCandidate(ctx, candidate)
		result.CandidatesProcessed++
		if outcome.enriched {
			result.CandidatesEnriched++
		}
		if outcome.verified {
			result.CandidatesVerified++
		}
		if outcome.approved {
			result.CandidatesApproved++
		}
		if outcome.rejected {
			result.CandidatesRejected++
		}
		if outcome.duplicate {
			result.DuplicatesDetected++
		}
		if err != nil {
			logger.Warn().Err(err).Str("candidate_id", candidate.ID).Str("name", candidate.Name).Msg("candidate processing failed")
			result.Errors = append(result.Errors, fmt.Sprintf("candidate %s: %v", candidate.ID, err))
		}
	}

	return result
}

func (s *DiscoveryService) extractAllSources(ctx context.Context, result *entities.DiscoveryResult) []*entities.SpotCandidate {
	logger := observability.LoggerFromContext(ctx)

	sources := []struct {
		name      string
		extractor CandidateExtractor
	}{
		{"web_scraping", s.scraper},
		{"google_places", s.places},
		{"social_media", extractorFunc(s.extractSocialMedia)},
	}

	merged := []*entities.SpotCandidate{}
	for _, source := range sources {
		if source.extractor == nil {
			continue
		}
		candidates, err := source.extractor.ExtractCandidates(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("source", source.name).Msg("source extraction failed")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", source.name, err))
			continue
		}
		logger.Debug().Str("source", source.name).Int("candidates", len(candidates)).Msg("source extraction finished")
		result.TotalCandidatesFound += len(candidates)
		merged = append(merged, candidates...)
	}

	return merged
}

// extractSocialMedia is a stub: the source is configured but extraction is
// not built yet, so an enabled source yields an empty list by design.
func (s *DiscoveryService) extractSocialMedia(ctx context.Context) ([]*entities.SpotCandidate, error) {
	if s.cfg.SocialMediaEnabled {
		observability.LoggerFromContext(ctx).Debug().Msg("social media extraction not implemented, returning no candidates")
	}
	return []*entities.SpotCandidate{}, nil
}

// processCandidate drives one candidate through
// enrich -> verify -> score -> persist -> auto-approve
func (s *DiscoveryService) processCandidate(ctx context.Context, candidate *entities.SpotCandidate) (stageOutcome, error) {
	outcome := stageOutcome{}

	// Enrich
	candidate.Status = entities.StatusEnriching
	if err := s.scoring.EnrichCandidate(ctx, candidate); err != nil {
		candidate.Status = entities.StatusDiscovered
		return outcome, fmt.Errorf("enrichment failed: %w", err)
	}
	s.scoring.ProcessCandidate(candidate)
	outcome.enriched = true

	// Verify
	candidate.Status = entities.StatusVerifying
	validation := s.scoring.ValidateCandidate(candidate)
	if !validation.IsValid {
		candidate.Status = entities.StatusRejected
		candidate.VerificationNotes = "validation failed: " + strings.Join(validation.Errors, "; ")
		outcome.rejected = true
		return outcome, s.candidateRepo.Upsert(ctx, candidate)
	}

	match, err := s.duplicates.FindDuplicate(ctx, candidate)
	if err != nil {
		candidate.Status = entities.StatusEnriched
		return outcome, fmt.Errorf("duplicate screening failed: %w", err)
	}
	if match != nil {
		candidate.Status = entities.StatusDuplicate
		if match.VenueID != "" {
			venueID := match.VenueID
			candidate.LinkedVenueID = &venueID
			candidate.VerificationNotes = fmt.Sprintf("duplicate of venue %s (%s)", match.VenueID, match.MatchedName)
		} else {
			candidate.VerificationNotes = fmt.Sprintf("duplicate of pending candidate %s (%s)", match.CandidateID, match.MatchedName)
		}
		outcome.duplicate = true
		return outcome, s.candidateRepo.Upsert(ctx, candidate)
	}

	candidate.Status = entities.StatusVerified
	now := s.clock.Now()
	candidate.VerifiedAt = &now
	if len(validation.Warnings) > 0 {
		candidate.VerificationNotes = "verified with warnings: " + strings.Join(validation.Warnings, "; ")
	} else {
		candidate.VerificationNotes = "verified"
	}
	outcome.verified = true

	// Score and persist
	s.scoring.ProcessCandidate(candidate)
	if err := s.candidateRepo.Upsert(ctx, candidate); err != nil {
		return outcome, fmt.Errorf("persist failed: %w", err)
	}

	// Auto-approve. Failure leaves the candidate Verified in storage.
	if candidate.QualityScore >= s.cfg.AutoApprovalThreshold && candidate.Status == entities.StatusVerified {
		if s.approveInternal(ctx, candidate, "auto-approval") {
			outcome.approved = true
		}
	}

	return outcome, nil
}

// approveInternal performs the registry promotion shared by auto-approval
// and explicit approval. Returns false when the candidate was left Verified.
func (s *DiscoveryService) approveInternal(ctx context.Context, candidate *entities.SpotCandidate, actor string) bool {
	logger := observability.LoggerFromContext(ctx)

	if candidate.Location == nil || !s.cfg.ServiceArea.Contains(candidate.Location.Latitude, candidate.Location.Longitude) {
		logger.Info().Str("candidate_id", candidate.ID).Msg("candidate not eligible for approval outside service area")
		return false
	}

	venue, err := s.registry.CreateFromCandidate(ctx, candidate)
	if err != nil {
		logger.Warn().Err(err).Str("candidate_id", candidate.ID).Msg("venue creation failed, candidate stays verified")
		return false
	}

	candidate.Status = entities.StatusApproved
	candidate.LinkedVenueID = &venue.ID
	candidate.VerificationNotes = fmt.Sprintf("approved by %s", actor)
	if err := s.candidateRepo.Upsert(ctx, candidate); err != nil {
		logger.Warn().Err(err).Str("candidate_id", candidate.ID).Msg("failed to persist approval")
		return false
	}

	s.publishEvent(ctx, &entities.DiscoveryEvent{
		ID:          uuid.NewString(),
		Type:        entities.EventCandidateApproved,
		CandidateID: candidate.ID,
		VenueID:     venue.ID,
		Timestamp:   s.clock.Now(),
	})

	return true
}

// ApproveCandidate explicitly promotes a candidate into the registry
func (s *DiscoveryService) ApproveCandidate(ctx context.Context, id, approvedBy string) (*entities.SpotCandidate, error) {
	candidate, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch candidate.Status {
	case entities.StatusApproved:
		return nil, apperrors.NewInvalidStateError("candidate is already approved")
	case entities.StatusRejected:
		return nil, apperrors.NewInvalidStateError("a rejected candidate cannot be approved")
	}

	if candidate.Location == nil {
		return nil, apperrors.NewValidationError("candidate has no location")
	}
	if !s.cfg.ServiceArea.Contains(candidate.Location.Latitude, candidate.Location.Longitude) {
		return nil, apperrors.NewValidationError("candidate is outside the supported service area")
	}

	venue, err := s.registry.CreateFromCandidate(ctx, candidate)
	if err != nil {
		return nil, err
	}

	actor := "admin"
	if approvedBy != "" {
		actor = approvedBy
	}
	candidate.Status = entities.StatusApproved
	candidate.LinkedVenueID = &venue.ID
	candidate.VerificationNotes = fmt.Sprintf("approved by %s", actor)
	if err := s.candidateRepo.Upsert(ctx, candidate); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, &entities.DiscoveryEvent{
		ID:          uuid.NewString(),
		Type:        entities.EventCandidateApproved,
		CandidateID: candidate.ID,
		VenueID:     venue.ID,
		Timestamp:   s.clock.Now(),
	})

	return candidate, nil
}

// RejectCandidate records a rejection. The candidate is kept, not deleted.
func (s *DiscoveryService) RejectCandidate(ctx context.Context, id, reason string) (*entities.SpotCandidate, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("rejection reason is required")
	}

	candidate, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if candidate.Status == entities.StatusApproved {
		return nil, apperrors.NewInvalidStateError("an approved candidate cannot be rejected")
	}

	candidate.Status = entities.StatusRejected
	candidate.VerificationNotes = "rejected: " + reason
	if err := s.candidateRepo.Upsert(ctx, candidate); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, &entities.DiscoveryEvent{
		ID:          uuid.NewString(),
		Type:        entities.EventCandidateRejected,
		CandidateID: candidate.ID,
		Payload:     reason,
		Timestamp:   s.clock.Now(),
	})

	return candidate, nil
}

// ListCandidates retrieves candidates matching the filter
func (s *DiscoveryService) ListCandidates(ctx context.Context, filter repositories.CandidateFilter) ([]*entities.SpotCandidate, error) {
	return s.candidateRepo.List(ctx, filter)
}

// GetMetrics summarizes candidates discovered in the optional time window
func (s *DiscoveryService) GetMetrics(ctx context.Context, from, to *time.Time) (*entities.DiscoveryMetrics, error) {
	candidates, err := s.candidateRepo.List(ctx, repositories.CandidateFilter{
		DiscoveredAfter:  from,
		DiscoveredBefore: to,
	})
	if err != nil {
		return nil, err
	}

	metrics := &entities.DiscoveryMetrics{
		From:            from,
		To:              to,
		TotalCandidates: len(candidates),
		ByStatus:        map[entities.CandidateStatus]int{},
		BySource:        map[entities.CandidateSource]int{},
	}

	var confidenceSum, qualitySum float64
	for _, candidate := range candidates {
		metrics.ByStatus[candidate.Status]++
		metrics.BySource[candidate.Source]++
		confidenceSum += candidate.ConfidenceScore
		qualitySum += candidate.QualityScore
	}
	if len(candidates) > 0 {
		metrics.AvgConfidence = confidenceSum / float64(len(candidates))
		metrics.AvgQuality = qualitySum / float64(len(candidates))
	}

	return metrics, nil
}

func (s *DiscoveryService) publishEvent(ctx context.Context, event *entities.DiscoveryEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, EventChannelDiscovery, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish discovery event")
	}
}

// extractorFunc adapts a function to the CandidateExtractor interface
type extractorFunc func(ctx context.Context) ([]*entities.SpotCandidate, error)

func (f extractorFunc) ExtractCandidates(ctx context.Context) ([]*entities.SpotCandidate, error) {
	return f(ctx)
}
