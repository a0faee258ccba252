package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data provider configuration.
	ProviderBaseURL   string
	ProviderAnonKey   string
	ProviderTimeout   time.Duration
	ProviderCacheSize int
	ProviderCacheTTL  time.Duration

	// Identity service configuration.
	IdentityBaseURL string

	// Refresh loop configuration.
	RefreshInterval time.Duration
	DefaultLocation string
	DefaultLat      float64
	DefaultLon      float64

	// Snapshot stream configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parsePositiveDuration("PROVIDER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("PROVIDER_CACHE_TTL", "1m")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	lat, err := parseCoordinate("DEFAULT_LOCATION_LAT", "-0.4535", 90)
	if err != nil {
		return nil, err
	}
	lon, err := parseCoordinate("DEFAULT_LOCATION_LON", "39.6594", 180)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ProviderBaseURL:   sharedcfg.EnvOrDefault("PROVIDER_BASE_URL", "http://127.0.0.1:8000"),
		ProviderAnonKey:   os.Getenv("PROVIDER_ANON_KEY"),
		ProviderTimeout:   providerTimeout,
		ProviderCacheSize: parseCacheSize(),
		ProviderCacheTTL:  cacheTTL,

		IdentityBaseURL: sharedcfg.EnvOrDefault("IDENTITY_BASE_URL", "http://127.0.0.1:9999"),

		RefreshInterval: refreshInterval,
		DefaultLocation: sharedcfg.EnvOrDefault("DEFAULT_LOCATION", "Garissa, Kenya"),
		DefaultLat:      lat,
		DefaultLon:      lon,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       brokers,
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "climate-risk-snapshots"),
	}

	if _, err := url.ParseRequestURI(cfg.ProviderBaseURL); err != nil {
		return nil, errors.New("invalid PROVIDER_BASE_URL")
	}
	if _, err := url.ParseRequestURI(cfg.IdentityBaseURL); err != nil {
		return nil, errors.New("invalid IDENTITY_BASE_URL")
	}
	if cfg.DefaultLocation == "" {
		return nil, errors.New("DEFAULT_LOCATION is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCoordinate(key, def string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || v < -limit || v > limit {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseCacheSize() int {
	if s := os.Getenv("PROVIDER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 100
}
