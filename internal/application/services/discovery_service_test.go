package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/amalaspotdiscovery/internal/application/services"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
	"github.com/zatekoja/amalaspotdiscovery/pkg/config"
	apperrors "github.com/zatekoja/amalaspotdiscovery/pkg/errors"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// stubVenueCreator records promotions without a real registry
type stubVenueCreator struct {
	err   error
	calls int
}

func (s *stubVenueCreator) CreateFromCandidate(_ context.Context, candidate *entities.SpotCandidate) (*entities.Venue, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Venue{ID: "venue-" + candidate.ID, Name: candidate.Name}, nil
}

func testDiscoveryConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{
		Enabled:               true,
		MaxCandidatesPerRun:   10,
		MinConfidence:         0.5,
		AutoApprovalThreshold: 0.8,
		DuplicateRadiusKm:     0.1,
		ServiceArea: config.BoundingBox{
			MinLatitude:  4.27,
			MaxLatitude:  13.89,
			MinLongitude: 2.67,
			MaxLongitude: 14.68,
		},
	}
}

type discoveryFixture struct {
	svc           *services.DiscoveryService
	candidateRepo *MockCandidateRepository
	venueRepo     *MockVenueRepository
	registry      *stubVenueCreator
}

func newDiscoveryFixture(t *testing.T, scraper, places services.CandidateExtractor, cfg config.DiscoveryConfig) *discoveryFixture {
	t.Helper()

	candidateRepo := new(MockCandidateRepository)
	venueRepo := new(MockVenueRepository)
	registry := &stubVenueCreator{}
	clock := fixedClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	scoring := services.NewCandidateScoringService(nil, nil, cfg.MinConfidence, clock)
	duplicates := services.NewDuplicateDetectionService(venueRepo, candidateRepo, cfg.DuplicateRadiusKm)

	svc := services.NewDiscoveryService(
		scraper,
		places,
		scoring,
		duplicates,
		candidateRepo,
		registry,
		nil,
		nil,
		cfg,
		clock,
	)

	return &discoveryFixture{
		svc:           svc,
		candidateRepo: candidateRepo,
		venueRepo:     venueRepo,
		registry:      registry,
	}
}

func placeCandidate(id, name string) *entities.SpotCandidate {
	return &entities.SpotCandidate{
		ID:          id,
		Name:        name,
		Address:     "12 Allen Avenue, Ikeja",
		PhoneNumber: "+2348012345678",
		Location:    &entities.Location{Latitude: 6.6018, Longitude: 3.3515},
		Source:      entities.SourceGooglePlaces,
		Status:      entities.StatusDiscovered,
	}
}

func TestRunDiscovery_SourceFailureIsolation(t *testing.T) {
	scraper := &extractorStub{err: errors.New("target unreachable")}
	places := &extractorStub{candidates: []*entities.SpotCandidate{
		placeCandidate("cand-1", "Amala Sky"),
		placeCandidate("cand-2", "Iya Basira Amala"),
		{
			// No domain keyword: confidence stays below the admission gate
			ID:     "cand-3",
			Name:   "Random Phone Shop",
			Source: entities.SourceGooglePlaces,
			Status: entities.StatusDiscovered,
		},
	}}

	fixture := newDiscoveryFixture(t, scraper, places, testDiscoveryConfig())
	fixture.venueRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything).Return([]*entities.Venue{}, nil)
	fixture.candidateRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*entities.SpotCandidate{}, nil)
	fixture.candidateRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 3, result.TotalCandidatesFound)
	assert.Equal(t, 2, result.CandidatesProcessed)
	assert.Equal(t, 2, result.CandidatesEnriched)
	assert.Equal(t, 2, result.CandidatesVerified)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "web_scraping")
}

func TestRunDiscovery_AutoApprovesHighQualityCandidates(t *testing.T) {
	// Name, address, location, phone: quality 0.8, exactly at the threshold
	candidate := placeCandidate("cand-1", "Amala Sky")
	places := &extractorStub{candidates: []*entities.SpotCandidate{candidate}}

	fixture := newDiscoveryFixture(t, nil, places, testDiscoveryConfig())
	fixture.venueRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything).Return([]*entities.Venue{}, nil)
	fixture.candidateRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*entities.SpotCandidate{}, nil)
	fixture.candidateRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 1, result.CandidatesApproved)
	assert.Equal(t, 1, fixture.registry.calls)
	assert.Equal(t, entities.StatusApproved, candidate.Status)
	require.NotNil(t, candidate.LinkedVenueID)
	assert.Equal(t, "venue-cand-1", *candidate.LinkedVenueID)
}

func TestRunDiscovery_TracesRunAndRecordsErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	scraper := &extractorStub{err: errors.New("target unreachable")}
	fixture := newDiscoveryFixture(t, scraper, nil, testDiscoveryConfig())

	result := fixture.svc.RunDiscovery(context.Background())
	require.Len(t, result.Errors, 1)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "discovery.run", spans[0].Name())

	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "exception", events[0].Name)
}

func TestRunDiscovery_BelowThresholdStaysVerified(t *testing.T) {
	candidate := placeCandidate("cand-1", "Amala Sky")
	places := &extractorStub{candidates: []*entities.SpotCandidate{candidate}}

	cfg := testDiscoveryConfig()
	cfg.AutoApprovalThreshold = 0.81

	fixture := newDiscoveryFixture(t, nil, places, cfg)
	fixture.venueRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything).Return([]*entities.Venue{}, nil)
	fixture.candidateRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*entities.SpotCandidate{}, nil)
	fixture.candidateRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 0, result.CandidatesApproved)
	assert.Equal(t, 1, result.CandidatesVerified)
	assert.Equal(t, 0, fixture.registry.calls)
	assert.Equal(t, entities.StatusVerified, candidate.Status)
	require.NotNil(t, candidate.VerifiedAt)
}

func TestRunDiscovery_OutsideServiceAreaNotApproved(t *testing.T) {
	candidate := placeCandidate("cand-1", "Amala Sky")
	candidate.Location = &entities.Location{Latitude: 51.5, Longitude: -0.12} // London

	places := &extractorStub{candidates: []*entities.SpotCandidate{candidate}}

	fixture := newDiscoveryFixture(t, nil, places, testDiscoveryConfig())
	fixture.venueRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything).Return([]*entities.Venue{}, nil)
	fixture.candidateRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*entities.SpotCandidate{}, nil)
	fixture.candidateRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 0, result.CandidatesApproved)
	assert.Equal(t, 0, fixture.registry.calls)
	assert.Equal(t, entities.StatusVerified, candidate.Status)
}

func TestRunDiscovery_RejectsInvalidCandidates(t *testing.T) {
	candidate := placeCandidate("cand-1", "Amala Sky")
	candidate.Address = "" // fails validation

	places := &extractorStub{candidates: []*entities.SpotCandidate{candidate}}

	fixture := newDiscoveryFixture(t, nil, places, testDiscoveryConfig())
	fixture.candidateRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 1, result.CandidatesRejected)
	assert.Equal(t, 0, result.CandidatesVerified)
	assert.Equal(t, entities.StatusRejected, candidate.Status)
	assert.Contains(t, candidate.VerificationNotes, "validation failed")
}

func TestRunDiscovery_MarksDuplicates(t *testing.T) {
	candidate := placeCandidate("cand-1", "Iya Basira Amala")
	places := &extractorStub{candidates: []*entities.SpotCandidate{candidate}}

	fixture := newDiscoveryFixture(t, nil, places, testDiscoveryConfig())
	fixture.venueRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything).Return([]*entities.Venue{
		{ID: "venue-9", Name: "Iya Basira"},
	}, nil)
	fixture.candidateRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 1, result.DuplicatesDetected)
	assert.Equal(t, 0, result.CandidatesVerified)
	assert.Equal(t, entities.StatusDuplicate, candidate.Status)
	require.NotNil(t, candidate.LinkedVenueID)
	assert.Equal(t, "venue-9", *candidate.LinkedVenueID)
	assert.Equal(t, 0, fixture.registry.calls)
}

func TestRunDiscovery_RespectsPerRunCap(t *testing.T) {
	candidates := []*entities.SpotCandidate{
		placeCandidate("cand-1", "Amala Sky"),
		placeCandidate("cand-2", "Iya Basira Amala"),
		placeCandidate("cand-3", "Amala Republic"),
	}
	places := &extractorStub{candidates: candidates}

	cfg := testDiscoveryConfig()
	cfg.MaxCandidatesPerRun = 2

	fixture := newDiscoveryFixture(t, nil, places, cfg)
	fixture.venueRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything).Return([]*entities.Venue{}, nil)
	fixture.candidateRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*entities.SpotCandidate{}, nil)
	fixture.candidateRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 3, result.TotalCandidatesFound)
	assert.Equal(t, 2, result.CandidatesProcessed)
}

func TestRunDiscovery_DisabledShortCircuits(t *testing.T) {
	cfg := testDiscoveryConfig()
	cfg.Enabled = false

	fixture := newDiscoveryFixture(t, &extractorStub{}, &extractorStub{}, cfg)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 0, result.TotalCandidatesFound)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "disabled")
}

func TestRunDiscovery_VenueCreationFailureLeavesVerified(t *testing.T) {
	candidate := placeCandidate("cand-1", "Amala Sky")
	places := &extractorStub{candidates: []*entities.SpotCandidate{candidate}}

	fixture := newDiscoveryFixture(t, nil, places, testDiscoveryConfig())
	fixture.registry.err = errors.New("registry down")
	fixture.venueRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything).Return([]*entities.Venue{}, nil)
	fixture.candidateRepo.On("FindNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*entities.SpotCandidate{}, nil)
	fixture.candidateRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := fixture.svc.RunDiscovery(context.Background())

	assert.Equal(t, 0, result.CandidatesApproved)
	assert.Equal(t, 1, result.CandidatesVerified)
	assert.Equal(t, entities.StatusVerified, candidate.Status)
}

func TestApproveCandidate(t *testing.T) {
	location := &entities.Location{Latitude: 6.6018, Longitude: 3.3515}

	t.Run("promotes verified candidate", func(t *testing.T) {
		fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())
		stored := &entities.SpotCandidate{
			ID:       "cand-1",
			Name:     "Amala Sky",
			Location: location,
			Status:   entities.StatusVerified,
		}
		fixture.candidateRepo.On("GetByID", mock.Anything, "cand-1").Return(stored, nil)
		fixture.candidateRepo.On("Upsert", mock.Anything, stored).Return(nil)

		approved, err := fixture.svc.ApproveCandidate(context.Background(), "cand-1", "ops-team")
		require.NoError(t, err)
		assert.Equal(t, entities.StatusApproved, approved.Status)
		require.NotNil(t, approved.LinkedVenueID)
		assert.Contains(t, approved.VerificationNotes, "ops-team")
	})

	t.Run("not found", func(t *testing.T) {
		fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())
		fixture.candidateRepo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("candidate not found"))

		_, err := fixture.svc.ApproveCandidate(context.Background(), "missing", "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("already approved", func(t *testing.T) {
		fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())
		stored := &entities.SpotCandidate{ID: "cand-1", Status: entities.StatusApproved, Location: location}
		fixture.candidateRepo.On("GetByID", mock.Anything, "cand-1").Return(stored, nil)

		_, err := fixture.svc.ApproveCandidate(context.Background(), "cand-1", "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
	})

	t.Run("rejected cannot be approved", func(t *testing.T) {
		fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())
		stored := &entities.SpotCandidate{ID: "cand-1", Status: entities.StatusRejected, Location: location}
		fixture.candidateRepo.On("GetByID", mock.Anything, "cand-1").Return(stored, nil)

		_, err := fixture.svc.ApproveCandidate(context.Background(), "cand-1", "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
	})

	t.Run("outside service area", func(t *testing.T) {
		fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())
		stored := &entities.SpotCandidate{
			ID:       "cand-1",
			Status:   entities.StatusVerified,
			Location: &entities.Location{Latitude: 51.5, Longitude: -0.12},
		}
		fixture.candidateRepo.On("GetByID", mock.Anything, "cand-1").Return(stored, nil)

		_, err := fixture.svc.ApproveCandidate(context.Background(), "cand-1", "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestRejectCandidate(t *testing.T) {
	t.Run("records rejection", func(t *testing.T) {
		fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())
		stored := &entities.SpotCandidate{ID: "cand-1", Status: entities.StatusVerified}
		fixture.candidateRepo.On("GetByID", mock.Anything, "cand-1").Return(stored, nil)
		fixture.candidateRepo.On("Upsert", mock.Anything, stored).Return(nil)

		rejected, err := fixture.svc.RejectCandidate(context.Background(), "cand-1", "permanently closed")
		require.NoError(t, err)
		assert.Equal(t, entities.StatusRejected, rejected.Status)
		assert.Equal(t, "rejected: permanently closed", rejected.VerificationNotes)
	})

	t.Run("requires a reason", func(t *testing.T) {
		fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())

		_, err := fixture.svc.RejectCandidate(context.Background(), "cand-1", "  ")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("approved cannot be rejected", func(t *testing.T) {
		fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())
		stored := &entities.SpotCandidate{ID: "cand-1", Status: entities.StatusApproved}
		fixture.candidateRepo.On("GetByID", mock.Anything, "cand-1").Return(stored, nil)

		_, err := fixture.svc.RejectCandidate(context.Background(), "cand-1", "spam")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
	})
}

func TestGetMetrics(t *testing.T) {
	fixture := newDiscoveryFixture(t, nil, nil, testDiscoveryConfig())

	candidates := []*entities.SpotCandidate{
		{Status: entities.StatusApproved, Source: entities.SourceGooglePlaces, ConfidenceScore: 0.9, QualityScore: 0.8},
		{Status: entities.StatusVerified, Source: entities.SourceWebScraping, ConfidenceScore: 0.5, QualityScore: 0.4},
		{Status: entities.StatusApproved, Source: entities.SourceGooglePlaces, ConfidenceScore: 0.7, QualityScore: 0.6},
	}
	fixture.candidateRepo.On("List", mock.Anything, mock.MatchedBy(func(filter repositories.CandidateFilter) bool {
		return filter.DiscoveredAfter == nil && filter.DiscoveredBefore == nil
	})).Return(candidates, nil)

	metrics, err := fixture.svc.GetMetrics(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, metrics.TotalCandidates)
	assert.Equal(t, 2, metrics.ByStatus[entities.StatusApproved])
	assert.Equal(t, 1, metrics.ByStatus[entities.StatusVerified])
	assert.Equal(t, 2, metrics.BySource[entities.SourceGooglePlaces])
	assert.InDelta(t, 0.7, metrics.AvgConfidence, 0.001)
	assert.InDelta(t, 0.6, metrics.AvgQuality, 0.001)
}
