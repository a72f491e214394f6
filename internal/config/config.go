package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the screening service.
// Environment variables are parsed from the SCREENING_ prefix.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Consolidated list (UN) dataset source
	ConsolidatedURL     string `envconfig:"CONSOLIDATED_URL" default:"https://scsanctions.un.org/resources/xml/en/consolidated.xml"`
	CacheDir            string `envconfig:"CACHE_DIR" default:"cache"`
	FetchTimeoutSeconds int    `envconfig:"FETCH_TIMEOUT_SECONDS" default:"120"`

	// EU Sanctions Map registry
	SanctionsMapBaseURL    string `envconfig:"SANCTIONS_MAP_BASE_URL" default:"https://www.sanctionsmap.eu"`
	RegistryTimeoutSeconds int    `envconfig:"REGISTRY_TIMEOUT_SECONDS" default:"30"`

	// Artifact store (S3-compatible, e.g. DigitalOcean Spaces)
	SpacesEndpoint    string `envconfig:"SPACES_ENDPOINT" default:""`
	SpacesRegion      string `envconfig:"SPACES_REGION" default:"nyc3"`
	SpacesKey         string `envconfig:"SPACES_KEY" default:""`
	SpacesSecret      string `envconfig:"SPACES_SECRET" default:""`
	SpacesBucket      string `envconfig:"SPACES_BUCKET" default:"sanctions-audit"`
	PresignTTLSeconds int    `envconfig:"PRESIGN_TTL_SECONDS" default:"3600"`

	// Visual evidence capture
	CaptureTimeoutSeconds int `envconfig:"CAPTURE_TIMEOUT_SECONDS" default:"60"`
	CaptureSettleMillis   int `envconfig:"CAPTURE_SETTLE_MILLIS" default:"5000"`

	// Risk classification (optional; blank key selects deterministic fallback)
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel        string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	RiskTimeoutSeconds int    `envconfig:"RISK_TIMEOUT_SECONDS" default:"30"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
}

// New creates a new Config by parsing environment variables.
// Example: SCREENING_HTTP_PORT, SCREENING_SPACES_BUCKET.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SCREENING", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("cache_dir", cfg.CacheDir).
		Str("consolidated_url", cfg.ConsolidatedURL).
		Str("sanctions_map_base_url", cfg.SanctionsMapBaseURL).
		Str("spaces_bucket", cfg.SpacesBucket).
		Bool("spaces_configured", cfg.SpacesEndpoint != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}
	if c.ConsolidatedURL == "" {
		return fmt.Errorf("CONSOLIDATED_URL is required")
	}
	if c.SanctionsMapBaseURL == "" {
		return fmt.Errorf("SANCTIONS_MAP_BASE_URL is required")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("CACHE_DIR is required")
	}
	return nil
}

// NewForTesting creates a config for tests; no network credentials are set.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:                  8080,
		ConsolidatedURL:           "http://localhost:0/consolidated.xml",
		CacheDir:                  "cache",
		FetchTimeoutSeconds:       5,
		SanctionsMapBaseURL:       "http://localhost:0",
		RegistryTimeoutSeconds:    5,
		SpacesRegion:              "nyc3",
		SpacesBucket:              "sanctions-audit-test",
		PresignTTLSeconds:         3600,
		CaptureTimeoutSeconds:     5,
		CaptureSettleMillis:       100,
		RiskTimeoutSeconds:        5,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 5,
	}
}

// FetchTimeout returns the dataset fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// RegistryTimeout returns the registry call timeout as a duration.
func (c *Config) RegistryTimeout() time.Duration {
	return time.Duration(c.RegistryTimeoutSeconds) * time.Second
}

// CaptureTimeout returns the per-capture timeout as a duration.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.CaptureTimeoutSeconds) * time.Second
}

// PresignTTL returns the presigned-URL lifetime as a duration.
func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.PresignTTLSeconds) * time.Second
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
