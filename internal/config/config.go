package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Engine  EngineConfig
	Catalog CatalogConfig
	Fetch   FetchConfig
	Logging LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// EngineConfig holds extraction engine configuration.
type EngineConfig struct {
	// ProbeTimeout bounds a single detection call.
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"5s" yaml:"probe_timeout"`
	// GracePeriod bounds a single extraction run; work still pending when it
	// elapses is interrupted and not-yet-emitted records are lost.
	GracePeriod time.Duration `envconfig:"GRACE_PERIOD" default:"30s" yaml:"grace_period"`
}

// CatalogConfig holds translator catalog configuration.
type CatalogConfig struct {
	Dir string `envconfig:"TRANSLATOR_DIR" default:"./translators" yaml:"dir"`
}

// FetchConfig holds outbound HTTP configuration.
type FetchConfig struct {
	Timeout           time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s" yaml:"timeout"`
	MaxRetries        int           `envconfig:"FETCH_MAX_RETRIES" default:"3" yaml:"max_retries"`
	RequestsPerSecond float64       `envconfig:"FETCH_RPS" default:"4" yaml:"requests_per_second"`
	UserAgent         string        `envconfig:"FETCH_USER_AGENT" default:"bibharvest/1.0" yaml:"user_agent"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from environment variables, then overlays
// values from a YAML file. File values win over environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8600",
			Host: "0.0.0.0",
		},
		Engine: EngineConfig{
			ProbeTimeout: 5 * time.Second,
			GracePeriod:  30 * time.Second,
		},
		Catalog: CatalogConfig{
			Dir: "./translators",
		},
		Fetch: FetchConfig{
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 4,
			UserAgent:         "bibharvest/1.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
