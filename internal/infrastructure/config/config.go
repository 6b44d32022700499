package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	Images    ImagesConfig    `yaml:"images" toml:"images"`
	Probe     ProbeConfig     `yaml:"probe" toml:"probe"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Tracing   TracingConfig   `yaml:"tracing" toml:"tracing"`
	Render    RenderConfig    `yaml:"render" toml:"render"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string   `envconfig:"PORT" yaml:"port" toml:"port"`
	Host            string   `envconfig:"HOST" yaml:"host" toml:"host"`
	ShutdownTimeout Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	Compress        bool     `envconfig:"HTTP_COMPRESS" yaml:"compress" toml:"compress"`
	MaxBodyBytes    int64    `envconfig:"HTTP_MAX_BODY_BYTES" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// ImagesConfig holds responsive image configuration.
type ImagesConfig struct {
	ResizeEnabled bool   `envconfig:"IMAGES_RESIZE_ENABLED" yaml:"resize_enabled" toml:"resize_enabled"`
	Endpoint      string `envconfig:"IMAGES_ENDPOINT" yaml:"endpoint" toml:"endpoint"`
	SigningKey    string `envconfig:"IMAGES_SIGNING_KEY" yaml:"signing_key" toml:"signing_key"`
	Quality       int    `envconfig:"IMAGES_QUALITY" yaml:"quality" toml:"quality"`
	MaxDensity    int    `envconfig:"IMAGES_MAX_DENSITY" yaml:"max_density" toml:"max_density"`
}

// ProbeConfig holds remote image size probe configuration.
type ProbeConfig struct {
	Enabled           bool     `envconfig:"PROBE_ENABLED" yaml:"enabled" toml:"enabled"`
	Timeout           Duration `envconfig:"PROBE_TIMEOUT" yaml:"timeout" toml:"timeout"`
	MaxBytes          int64    `envconfig:"PROBE_MAX_BYTES" yaml:"max_bytes" toml:"max_bytes"`
	Retries           int      `envconfig:"PROBE_RETRIES" yaml:"retries" toml:"retries"`
	RequestsPerSecond float64  `envconfig:"PROBE_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	UserAgent         string   `envconfig:"PROBE_USER_AGENT" yaml:"user_agent" toml:"user_agent"`
}

// CacheConfig holds image size cache configuration.
type CacheConfig struct {
	Backend       string   `envconfig:"CACHE_BACKEND" yaml:"backend" toml:"backend"`
	TTL           Duration `envconfig:"CACHE_TTL" yaml:"ttl" toml:"ttl"`
	RedisAddr     string   `envconfig:"REDIS_ADDR" yaml:"redis_addr" toml:"redis_addr"`
	RedisPassword string   `envconfig:"REDIS_PASSWORD" yaml:"redis_password" toml:"redis_password"`
	RedisDB       int      `envconfig:"REDIS_DB" yaml:"redis_db" toml:"redis_db"`
}

// TracingConfig holds trace wrapper configuration.
type TracingConfig struct {
	Service       string `envconfig:"TRACE_SERVICE" yaml:"service" toml:"service"`
	OpenTelemetry bool   `envconfig:"TRACE_OTEL" yaml:"opentelemetry" toml:"opentelemetry"`
}

// RenderConfig holds document rendering configuration.
type RenderConfig struct {
	Sanitize    bool `envconfig:"RENDER_SANITIZE" yaml:"sanitize" toml:"sanitize"`
	Concurrency int  `envconfig:"RENDER_CONCURRENCY" yaml:"concurrency" toml:"concurrency"`
}

// RateLimitConfig holds rate limiting configuration. The per-client limit
// applies when Enabled; the global limit caps all clients together and is
// off while GlobalRequestsPerSecond is zero.
type RateLimitConfig struct {
	RequestsPerSecond       int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst                   int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled                 bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
	GlobalRequestsPerSecond int  `envconfig:"RATE_LIMIT_GLOBAL_RPS" yaml:"global_requests_per_second" toml:"global_requests_per_second"`
	GlobalBurst             int  `envconfig:"RATE_LIMIT_GLOBAL_BURST" yaml:"global_burst" toml:"global_burst"`
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Load loads configuration from environment variables over the defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
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
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: Duration{10 * time.Second},
			Compress:        true,
			MaxBodyBytes:    1 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Images: ImagesConfig{
			ResizeEnabled: false,
			Quality:       100,
			MaxDensity:    4,
		},
		Probe: ProbeConfig{
			Enabled:           true,
			Timeout:           Duration{5 * time.Second},
			MaxBytes:          1 << 20,
			Retries:           2,
			RequestsPerSecond: 20,
			UserAgent:         "gitbook-image-probe/1.0",
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     Duration{24 * time.Hour},
		},
		Tracing: TracingConfig{
			Service: "gitbook",
		},
		Render: RenderConfig{
			Sanitize:    true,
			Concurrency: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if c.Images.Quality < 0 || c.Images.Quality > 100 {
		errs = append(errs, fmt.Errorf("images quality %d out of range [0,100]", c.Images.Quality))
	}
	if c.Images.MaxDensity < 0 {
		errs = append(errs, fmt.Errorf("images max density %d must not be negative", c.Images.MaxDensity))
	}
	if c.Images.ResizeEnabled && c.Images.Endpoint == "" {
		errs = append(errs, errors.New("images endpoint is required when resizing is enabled"))
	}
	if c.Probe.Timeout.Duration < 0 {
		errs = append(errs, errors.New("probe timeout must not be negative"))
	}
	if c.Probe.MaxBytes <= 0 {
		errs = append(errs, errors.New("probe max bytes must be positive"))
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for the redis cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit requires positive rps and burst"))
	}
	if c.RateLimit.GlobalRequestsPerSecond < 0 || c.RateLimit.GlobalBurst < 0 {
		errs = append(errs, errors.New("global rate limit must not be negative"))
	}

	return errors.Join(errs...)
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

func applyEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Duration is a time.Duration that decodes from strings like "5s" in
// environment variables, YAML and TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
