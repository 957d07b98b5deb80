// Package config loads service configuration from defaults, an optional
// YAML file, and MATCHD_-prefixed environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains process configuration.
type Config struct {
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Internal     InternalConfig     `koanf:"internal"`
	Conversation ConversationConfig `koanf:"conversation"`
	Matching     MatchingConfig     `koanf:"matching"`
	Scoring      ScoringConfig      `koanf:"scoring"`
	Tracing      TracingConfig      `koanf:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// InternalConfig holds the shared secret for service-to-service endpoints.
type InternalConfig struct {
	SharedSecret string `koanf:"shared_secret"`
}

// ConversationConfig configures the conversation-service client.
type ConversationConfig struct {
	BaseURL      string        `koanf:"base_url"`
	SharedSecret string        `koanf:"shared_secret"`
	Timeout      time.Duration `koanf:"timeout"`
}

// MatchingConfig bounds trigger fan-out and provider-facing actions.
type MatchingConfig struct {
	MaxAgentPool       int           `koanf:"max_agent_pool"`
	MaxOpenRequests    int           `koanf:"max_open_requests"`
	BacklogThreshold   int           `koanf:"backlog_threshold"`
	RefreshRateLimit   int           `koanf:"refresh_rate_limit"`
	RefreshRateWindow  time.Duration `koanf:"refresh_rate_window"`
	DirectoryCacheTTL  time.Duration `koanf:"directory_cache_ttl"`
	MatchExpiryEnabled bool          `koanf:"match_expiry_enabled"`

	ExpirySweepInterval time.Duration `koanf:"expiry_sweep_interval"`
	ExpiryBatchSize     int           `koanf:"expiry_batch_size"`
}

// ScoringConfig carries the weighted-factor configuration.
type ScoringConfig struct {
	Weights               map[string]float64 `koanf:"weights"`
	StarRatingThreshold   float64            `koanf:"star_rating_threshold"`
	StarTripsThreshold    int                `koanf:"star_trips_threshold"`
	SpecializationEnabled bool               `koanf:"specialization_enabled"`
	RegionEnabled         bool               `koanf:"region_enabled"`
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled          bool    `koanf:"enabled"`
	ExporterEndpoint string  `koanf:"exporter_endpoint"`
	ExporterProtocol string  `koanf:"exporter_protocol"`
	SamplingRatio    float64 `koanf:"sampling_ratio"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Addr:            ":8086",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Conversation: ConversationConfig{
			Timeout: 5 * time.Second,
		},
		Matching: MatchingConfig{
			MaxAgentPool:      50,
			MaxOpenRequests:   100,
			BacklogThreshold:  3,
			RefreshRateLimit:  5,
			RefreshRateWindow: time.Minute,
			DirectoryCacheTTL: 2 * time.Minute,

			ExpirySweepInterval: 5 * time.Minute,
			ExpiryBatchSize:     100,
		},
		Scoring: ScoringConfig{
			Weights: map[string]float64{
				"tier":           0.25,
				"rating":         0.20,
				"response":       0.15,
				"specialization": 0.15,
				"region":         0.15,
				"workload":       0.10,
			},
			StarRatingThreshold:   4.5,
			StarTripsThreshold:    20,
			SpecializationEnabled: true,
			RegionEnabled:         true,
		},
		Tracing: TracingConfig{
			ExporterProtocol: "grpc",
			SamplingRatio:    0.1,
		},
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if MATCHD_CONFIG is set
//  3. env (prefix MATCHD_, "__" as section separator)
func Load() (Config, error) {
	cfg := *New()

	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv("MATCHD_CONFIG")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	// MATCHD_SERVER__ADDR -> server.addr, MATCHD_LOG_LEVEL -> log_level.
	envProvider := env.Provider("MATCHD_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "MATCHD_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, err
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Matching.MaxAgentPool <= 0 {
		return errors.New("matching.max_agent_pool must be positive")
	}
	if c.Matching.MaxOpenRequests <= 0 {
		return errors.New("matching.max_open_requests must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}
