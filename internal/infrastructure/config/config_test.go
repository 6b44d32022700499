package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)

	// Images config
	assert.False(t, cfg.Images.ResizeEnabled)
	assert.Equal(t, 100, cfg.Images.Quality)
	assert.Equal(t, 4, cfg.Images.MaxDensity)

	// Cache config
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                  "9000",
		"HOST":                  "127.0.0.1",
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
		"IMAGES_RESIZE_ENABLED": "true",
		"IMAGES_ENDPOINT":       "https://img.example.com",
		"IMAGES_QUALITY":        "80",
		"PROBE_TIMEOUT":         "2s",
		"CACHE_BACKEND":         "redis",
		"REDIS_ADDR":            "localhost:6379",
		"CACHE_TTL":             "1h",
		"RATE_LIMIT_RPS":        "500",
		"RATE_LIMIT_BURST":      "1000",
		"RATE_LIMIT_ENABLED":    "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address())

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.True(t, cfg.Images.ResizeEnabled)
	assert.Equal(t, "https://img.example.com", cfg.Images.Endpoint)
	assert.Equal(t, 80, cfg.Images.Quality)
	assert.Equal(t, 4, cfg.Images.MaxDensity)

	assert.Equal(t, 2*time.Second, cfg.Probe.Timeout.Duration)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Duration)

	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 100, cfg.Images.Quality)
	assert.True(t, cfg.Probe.Enabled)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("PROBE_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 5*time.Second, cfg.Probe.Timeout.Duration)
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: "7000"
images:
  resize_enabled: true
  endpoint: https://img.example.com
  signing_key: secret
  quality: 75
probe:
  timeout: 750ms
cache:
  backend: none
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.True(t, cfg.Images.ResizeEnabled)
	assert.Equal(t, "secret", cfg.Images.SigningKey)
	assert.Equal(t, 75, cfg.Images.Quality)
	assert.Equal(t, 750*time.Millisecond, cfg.Probe.Timeout.Duration)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[server]
port = "7100"

[images]
resize_enabled = true
endpoint = "https://img.example.com"
max_density = 2

[cache]
ttl = "30m"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Images.MaxDensity)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL.Duration)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: \"7000\"\n")
	t.Setenv("PORT", "7001")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Server.Port)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "config.json", "{}"))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = LoadFile(writeFile(t, "bad.toml", "[server\nport ="))
	assert.Error(t, err)
}

func TestLoadPath(t *testing.T) {
	cfg, err := LoadPath("")
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "quality above range",
			mutate:  func(c *Config) { c.Images.Quality = 101 },
			wantErr: "quality",
		},
		{
			name:    "negative density",
			mutate:  func(c *Config) { c.Images.MaxDensity = -1 },
			wantErr: "max density",
		},
		{
			name:    "resize without endpoint",
			mutate:  func(c *Config) { c.Images.ResizeEnabled = true },
			wantErr: "endpoint",
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.Cache.Backend = CacheRedis },
			wantErr: "redis address",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Cache.Backend = "memcached" },
			wantErr: "unknown cache backend",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *Config) { c.RateLimit.Burst = 0 },
			wantErr: "rate limit",
		},
		{
			name:    "negative global rate limit",
			mutate:  func(c *Config) { c.RateLimit.GlobalRequestsPerSecond = -1 },
			wantErr: "global rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
