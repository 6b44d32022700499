// Package config provides 12-factor configuration management for the
// rendering service.
//
// Configuration starts from Default(), is optionally overlaid by a YAML or
// TOML file, and is finally overlaid by environment variables. A .env file
// is loaded by the binaries before Load runs.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout)
//   - Logging: Log level and output format
//   - Images: Resize endpoint, signing key, quality and max density
//   - Probe: Remote image size probe settings
//   - Cache: Image size cache backend (memory, redis, none)
//   - Tracing: Service name and OpenTelemetry export
//   - Render: Sanitization and batch concurrency
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg, err := config.LoadPath(*configFile)
//	if err != nil {
//		return err
//	}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, HTTP_COMPRESS
//   - LOG_LEVEL, LOG_DEV
//   - IMAGES_RESIZE_ENABLED, IMAGES_ENDPOINT, IMAGES_SIGNING_KEY, IMAGES_QUALITY, IMAGES_MAX_DENSITY
//   - PROBE_ENABLED, PROBE_TIMEOUT, PROBE_MAX_BYTES, PROBE_RETRIES, PROBE_RPS, PROBE_USER_AGENT
//   - CACHE_BACKEND, CACHE_TTL, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
//   - TRACE_SERVICE, TRACE_OTEL
//   - RENDER_SANITIZE, RENDER_CONCURRENCY
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
