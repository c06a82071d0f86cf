package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zatekoja/amalaspotdiscovery/internal/adapters/cache"
	"github.com/zatekoja/amalaspotdiscovery/internal/adapters/database"
	"github.com/zatekoja/amalaspotdiscovery/internal/adapters/events"
	"github.com/zatekoja/amalaspotdiscovery/internal/adapters/providers/places"
	"github.com/zatekoja/amalaspotdiscovery/internal/adapters/scraping"
	"github.com/zatekoja/amalaspotdiscovery/internal/adapters/search"
	"github.com/zatekoja/amalaspotdiscovery/internal/application/services"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
	"github.com/zatekoja/amalaspotdiscovery/internal/domain/repositories"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/clients/redis"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/amalaspotdiscovery/internal/infrastructure/observability"
	"github.com/zatekoja/amalaspotdiscovery/pkg/config"
)

func main() {
	var once bool
	flag.BoolVar(&once, "once", false, "run a single discovery cycle and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Warn().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized successfully")

	// Initialize Redis client. The pipeline works without it: caching and
	// event publishing are simply skipped.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without cache and events")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("Redis client initialized successfully")
	}

	// Initialize Typesense client. Without it approved venues are stored but
	// not searchable until the next reindex.
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Typesense client, continuing without search indexing")
		typesenseClient = nil
	} else {
		logger.Info().Msg("Typesense client initialized successfully")
	}

	// Initialize adapters
	candidateRepo := database.NewCandidateAdapter(pgClient)
	venueRepo := database.NewVenueAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	var searchRepo repositories.VenueSearchRepository
	if typesenseClient != nil {
		if err := typesenseClient.InitSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		searchRepo = search.NewTypesenseAdapter(typesenseClient)
	}

	var placeProvider providers.PlaceSearchProvider
	if cfg.Discovery.PlaceSearch.APIKey == "" {
		logger.Warn().Msg("PLACES_API_KEY is not set; using mock place-search provider")
		placeProvider = places.NewMockPlaceSearchProvider()
	} else {
		placeProvider = places.NewGooglePlacesProvider(cfg.Discovery.PlaceSearch.APIKey, cacheProvider, metrics)
	}

	// Initialize services
	vocab := services.DefaultVocabulary()
	clock := providers.SystemClock{}

	var scraper services.CandidateExtractor
	if cfg.Discovery.WebScraping.Enabled {
		fetcher := scraping.NewHTTPFetcher(cfg.Discovery.WebScraping.UserAgent, nil)
		scraper = services.NewWebScrapingService(fetcher, cfg.Discovery.WebScraping, vocab, clock)
	}

	var placeExtractor services.CandidateExtractor
	if placeProvider != nil && cfg.Discovery.PlaceSearch.Enabled {
		placeExtractor = services.NewPlaceExtractionService(placeProvider, cfg.Discovery.PlaceSearch, vocab, clock)
	}

	scoringService := services.NewCandidateScoringService(placeProvider, vocab, cfg.Discovery.MinConfidence, clock)
	duplicateService := services.NewDuplicateDetectionService(venueRepo, candidateRepo, cfg.Discovery.DuplicateRadiusKm)
	registryService := services.NewVenueRegistryService(venueRepo, searchRepo, clock)

	discoveryService := services.NewDiscoveryService(
		scraper,
		placeExtractor,
		scoringService,
		duplicateService,
		candidateRepo,
		registryService,
		eventBus,
		metrics,
		cfg.Discovery,
		clock,
	)

	runOnce := func() {
		result := discoveryService.RunDiscovery(ctx)
		logger.Info().
			Str("run_id", result.RunID).
			Int("found", result.TotalCandidatesFound).
			Int("processed", result.CandidatesProcessed).
			Int("approved", result.CandidatesApproved).
			Int("duplicates", result.DuplicatesDetected).
			Int("errors", len(result.Errors)).
			Msg("Discovery cycle complete")
	}

	if once {
		runOnce()
		closeEventBus(eventBus)
		return
	}

	scheduler := cron.New()
	schedule := cron.Every(cfg.Discovery.RunInterval)
	scheduler.Schedule(schedule, cron.FuncJob(runOnce))
	scheduler.Start()
	logger.Info().Dur("interval", cfg.Discovery.RunInterval).Msg("Discovery scheduler started")

	// First cycle immediately, the scheduler handles the rest
	runOnce()

	<-ctx.Done()
	logger.Info().Msg("Discovery service shutting down")

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("Timed out waiting for running job to finish")
	}

	closeEventBus(eventBus)
	logger.Info().Msg("Discovery service stopped")
	os.Exit(0)
}

func closeEventBus(eventBus providers.EventBus) {
	if eventBus == nil {
		return
	}
	if err := eventBus.Close(); err != nil {
		observability.GetLogger().Warn().Err(err).Msg("Error closing event bus")
	}
}
