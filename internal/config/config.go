// Package config loads application configuration from an optional YAML file
// overlaid with environment variables (prefix BIZPULSE). Defaults are applied
// after both sources so that neither clobbers the other.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the envconfig prefix for all settings.
const EnvPrefix = "BIZPULSE"

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"REDIS"`
	Cache    CacheConfig    `yaml:"cache" envconfig:"CACHE"`
	Ingest   IngestConfig   `yaml:"ingest" envconfig:"INGEST"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// DatabaseConfig contains Postgres connection configuration.
type DatabaseConfig struct {
	URI             string        `yaml:"uri" envconfig:"URI" validate:"required"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"`
}

// RedisConfig contains the remote cache tier configuration. An empty address
// disables Redis entirely; the cache layer then runs on local memory only.
type RedisConfig struct {
	Addr        string        `yaml:"addr" envconfig:"ADDR"`
	Password    string        `yaml:"password" envconfig:"PASSWORD"`
	DB          int           `yaml:"db" envconfig:"DB"`
	DialTimeout time.Duration `yaml:"dial_timeout" envconfig:"DIAL_TIMEOUT"`
}

// CacheConfig controls analytics response caching.
type CacheConfig struct {
	DefaultTTL   time.Duration `yaml:"default_ttl" envconfig:"DEFAULT_TTL"`
	KPITTL       time.Duration `yaml:"kpi_ttl" envconfig:"KPI_TTL"`
	AnalyticsTTL time.Duration `yaml:"analytics_ttl" envconfig:"ANALYTICS_TTL"`
}

// IngestConfig controls the ingestion pipeline and analytics thresholds.
type IngestConfig struct {
	BatchSize    int    `yaml:"batch_size" envconfig:"BATCH_SIZE" validate:"min=1"`
	MaxUploadMB  int    `yaml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB" validate:"min=1"`
	LabelsPath   string `yaml:"labels_path" envconfig:"LABELS_PATH"`
	MinSupport   int    `yaml:"min_support" envconfig:"MIN_SUPPORT" validate:"min=1"`
	MaxPairs     int    `yaml:"max_pairs" envconfig:"MAX_PAIRS" validate:"min=1"`
	ForecastDays int    `yaml:"forecast_days" envconfig:"FORECAST_DAYS" validate:"min=1"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Load loads configuration from the optional YAML file pointed to by
// BIZPULSE_CONFIG_FILE (default config.yaml), overlays environment variables,
// applies defaults and validates the result.
func Load() (*Config, error) {
	var cfg Config

	if path := configFilePath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFromFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no external
// sources consulted. Used by tests and tooling.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Validate checks the configuration against the struct validation tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Server.RateLimit.RPS == 0 {
		c.Server.RateLimit.RPS = 100
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 50
	}
	if c.Database.URI == "" {
		c.Database.URI = "postgres://localhost:5432/bizpulse?sslmode=disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 2 * time.Second
	}
	if c.Cache.DefaultTTL == 0 {
		c.Cache.DefaultTTL = time.Minute
	}
	if c.Cache.KPITTL == 0 {
		c.Cache.KPITTL = time.Minute
	}
	if c.Cache.AnalyticsTTL == 0 {
		c.Cache.AnalyticsTTL = 5 * time.Minute
	}
	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = 2000
	}
	if c.Ingest.MaxUploadMB == 0 {
		c.Ingest.MaxUploadMB = 64
	}
	if c.Ingest.LabelsPath == "" {
		c.Ingest.LabelsPath = "dataset_config.json"
	}
	if c.Ingest.MinSupport == 0 {
		c.Ingest.MinSupport = 2
	}
	if c.Ingest.MaxPairs == 0 {
		c.Ingest.MaxPairs = 50
	}
	if c.Ingest.ForecastDays == 0 {
		c.Ingest.ForecastDays = 30
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}
}

// loadFromFile loads configuration from a YAML file into cfg. Keys absent
// from the document leave the target fields untouched.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func configFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}
