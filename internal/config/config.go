package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Config holds all settings for one pipeline run, populated from command-line
// flags and environment variables (a local .env file is loaded first when
// present).
type Config struct {
	DataDir string `long:"data-dir" env:"DATA_DIR" default:"data" description:"Directory holding day files, the day index, and the geocode cache"`

	// Outage feed.
	FeedBaseURL string        `long:"feed-base-url" env:"FEED_BASE_URL" default:"https://awarie.enea.pl/api" description:"Base URL of the outage feed"`
	FeedTimeout time.Duration `long:"feed-timeout" env:"FEED_TIMEOUT" default:"15s" description:"HTTP timeout for feed requests"`
	Regions     []string      `long:"region" env:"REGIONS" env-delim:"," default:"Poznań" description:"Regions to process (repeatable)"`

	// Geocoding provider. The user agent is mandatory under the Nominatim
	// usage policy; the delays mirror its rate-limit guidance.
	GeocoderBaseURL    string        `long:"geocoder-base-url" env:"GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org" description:"Base URL of the geocoding provider"`
	GeocoderUserAgent  string        `long:"geocoder-user-agent" env:"GEOCODER_USER_AGENT" default:"outage-data-etl/1.0" description:"User-Agent sent to the geocoding provider"`
	GeocoderLanguage   string        `long:"geocoder-language" env:"GEOCODER_LANGUAGE" default:"pl" description:"Preferred language for geocoding results"`
	GeocoderTimeout    time.Duration `long:"geocoder-timeout" env:"GEOCODER_TIMEOUT" default:"10s" description:"HTTP timeout for geocoding requests"`
	GeocodeMinDelay    time.Duration `long:"geocode-min-delay" env:"GEOCODE_MIN_DELAY" default:"1s" description:"Minimum delay between geocoding calls"`
	GeocodeErrorDelay  time.Duration `long:"geocode-error-delay" env:"GEOCODE_ERROR_DELAY" default:"10s" description:"Delay after a failed geocoding call"`
	BareStreetFallback bool          `long:"bare-street-fallback" env:"BARE_STREET_FALLBACK" description:"Keep region-mentioning segments without a street marker as candidates"`

	// Optional listeners and sinks.
	HTTPAddr     string   `long:"http-addr" env:"HTTP_ADDR" description:"Address for health/metrics endpoints during the run (empty = disabled)"`
	KafkaBrokers []string `long:"kafka-broker" env:"KAFKA_BROKERS" env-delim:"," description:"Kafka brokers for publishing new records (empty = disabled)"`
	KafkaTopic   string   `long:"kafka-topic" env:"KAFKA_TOPIC" default:"outage-records" description:"Kafka topic for new records"`

	LogLevel  string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"json" description:"Log format (json or text)"`
}

// Load parses configuration from the process arguments and environment.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()
	return loadArgs(os.Args[1:])
}

func loadArgs(args []string) (*Config, error) {
	var cfg Config

	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.FeedBaseURL == "" {
		return errors.New("FEED_BASE_URL is required")
	}
	if c.GeocoderBaseURL == "" {
		return errors.New("GEOCODER_BASE_URL is required")
	}
	if c.GeocoderUserAgent == "" {
		return errors.New("GEOCODER_USER_AGENT is required")
	}
	if len(c.Regions) == 0 {
		return errors.New("at least one region is required")
	}
	if c.GeocodeMinDelay <= 0 || c.GeocodeErrorDelay <= 0 {
		return errors.New("geocode delays must be positive")
	}
	return nil
}

// DaysDir returns the directory holding per-day record files.
func (c *Config) DaysDir() string {
	return filepath.Join(c.DataDir, "days")
}

// IndexPath returns the path of the day index file.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index.json")
}

// CachePath returns the path of the geocode cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "geocoding_cache.json")
}
