package sizecache

import (
	"context"
	"fmt"
	"time"

	"github.com/KexinAnswer/gitbook/internal/images"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/config"
)

// Cache stores discovered image sizes by URL.
type Cache interface {
	// Get returns the cached size, or false when there is none.
	Get(ctx context.Context, key string) (*images.Size, bool, error)
	Set(ctx context.Context, key string, size images.Size) error
	// Name labels the backend in metrics.
	Name() string
	Close() error
}

// FromConfig builds the configured cache. The "none" backend returns nil.
func FromConfig(cfg config.CacheConfig) (Cache, error) {
	ttl := cfg.TTL.Duration
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory, "":
		return NewMemory(ttl, 0), nil
	case config.CacheRedis:
		return NewRedis(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      ttl,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
