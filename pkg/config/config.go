package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Discovery DiscoveryConfig
	OTEL      OTELConfig
	Env       string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// BoundingBox is the supported service area. Candidates located outside it
// are not eligible for approval.
type BoundingBox struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// Contains reports whether the point falls inside the box
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLatitude && lat <= b.MaxLatitude &&
		lon >= b.MinLongitude && lon <= b.MaxLongitude
}

// ScrapeTarget describes one website the scraper visits
type ScrapeTarget struct {
	Name       string            `json:"name"`
	BaseURL    string            `json:"base_url"`
	SearchURLs []string          `json:"search_urls"`
	Selectors  map[string]string `json:"selectors"`
	Enabled    bool              `json:"enabled"`
}

// WebScrapingConfig holds the scraping source configuration
type WebScrapingConfig struct {
	Enabled         bool
	Targets         []ScrapeTarget
	RequestDelay    time.Duration
	MaxPagesPerSite int
	UserAgent       string
}

// PlaceSearchConfig holds the place-search source configuration
type PlaceSearchConfig struct {
	Enabled       bool
	APIKey        string
	SearchRadiusM int
	Keywords      []string
	TargetCities  []string
	RequestDelay  time.Duration
}

// DiscoveryConfig holds the discovery pipeline configuration
type DiscoveryConfig struct {
	Enabled               bool
	RunInterval           time.Duration
	MaxCandidatesPerRun   int
	MinConfidence         float64
	AutoApprovalThreshold float64
	DuplicateRadiusKm     float64
	ServiceArea           BoundingBox
	WebScraping           WebScrapingConfig
	PlaceSearch           PlaceSearchConfig
	SocialMediaEnabled    bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	targets, err := loadScrapeTargets()
	if err != nil {
		return nil, err
	}

	return &Config{
		Env: getEnv("APP_ENV", "development"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "amala_spot_discovery"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Discovery: DiscoveryConfig{
			Enabled:               getEnvAsBool("DISCOVERY_ENABLED", true),
			RunInterval:           getEnvAsDuration("DISCOVERY_RUN_INTERVAL", 6*time.Hour),
			MaxCandidatesPerRun:   getEnvAsInt("DISCOVERY_MAX_CANDIDATES_PER_RUN", 50),
			MinConfidence:         getEnvAsFloat("DISCOVERY_MIN_CONFIDENCE", 0.5),
			AutoApprovalThreshold: getEnvAsFloat("DISCOVERY_AUTO_APPROVAL_THRESHOLD", 0.8),
			DuplicateRadiusKm:     getEnvAsFloat("DISCOVERY_DUPLICATE_RADIUS_KM", 0.1),
			ServiceArea: BoundingBox{
				MinLatitude:  getEnvAsFloat("DISCOVERY_AREA_MIN_LAT", 4.27),
				MaxLatitude:  getEnvAsFloat("DISCOVERY_AREA_MAX_LAT", 13.89),
				MinLongitude: getEnvAsFloat("DISCOVERY_AREA_MIN_LON", 2.67),
				MaxLongitude: getEnvAsFloat("DISCOVERY_AREA_MAX_LON", 14.68),
			},
			WebScraping: WebScrapingConfig{
				Enabled:         getEnvAsBool("SCRAPING_ENABLED", true),
				Targets:         targets,
				RequestDelay:    getEnvAsDuration("SCRAPING_REQUEST_DELAY", 2*time.Second),
				MaxPagesPerSite: getEnvAsInt("SCRAPING_MAX_PAGES_PER_SITE", 5),
				UserAgent:       getEnv("SCRAPING_USER_AGENT", "AmalaSpotDiscoveryBot/1.0"),
			},
			PlaceSearch: PlaceSearchConfig{
				Enabled:       getEnvAsBool("PLACES_ENABLED", true),
				APIKey:        getEnv("PLACES_API_KEY", ""),
				SearchRadiusM: getEnvAsInt("PLACES_SEARCH_RADIUS_M", 5000),
				Keywords:      getEnvAsSlice("PLACES_KEYWORDS", []string{"amala", "amala joint", "buka", "bukka", "local food"}),
				TargetCities:  getEnvAsSlice("PLACES_TARGET_CITIES", []string{"Lagos", "Ibadan", "Abuja", "Abeokuta"}),
				RequestDelay:  getEnvAsDuration("PLACES_REQUEST_DELAY", 500*time.Millisecond),
			},
			SocialMediaEnabled: getEnvAsBool("SOCIAL_MEDIA_ENABLED", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "amala-spot-discovery"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadScrapeTargets() ([]ScrapeTarget, error) {
	raw := os.Getenv("SCRAPING_TARGETS")
	if raw == "" {
		return defaultScrapeTargets(), nil
	}
	var targets []ScrapeTarget
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, fmt.Errorf("failed to parse SCRAPING_TARGETS: %w", err)
	}
	return targets, nil
}

func defaultScrapeTargets() []ScrapeTarget {
	return []ScrapeTarget{
		{
			Name:    "eatdrinklagos",
			BaseURL: "https://www.eatdrinklagos.com",
			SearchURLs: []string{
				"https://www.eatdrinklagos.com/search?q=amala",
			},
			Selectors: map[string]string{
				"listing": ".restaurant, .listing, .business-card, article",
				"name":    "h1, h2, h3, .name, .title",
				"address": ".address, .location",
				"phone":   ".phone, .tel, a[href^='tel:']",
			},
			Enabled: true,
		},
		{
			Name:    "pulse-ng",
			BaseURL: "https://www.pulse.ng",
			SearchURLs: []string{
				"https://www.pulse.ng/lifestyle/food-travel/amala-spots",
			},
			Selectors: map[string]string{
				"listing": "article, .article-card, .listing",
				"name":    "h1, h2, h3, .headline",
				"address": ".address, .location",
				"phone":   ".phone, a[href^='tel:']",
			},
			Enabled: true,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
