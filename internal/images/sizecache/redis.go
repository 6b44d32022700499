package sizecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/KexinAnswer/gitbook/internal/images"
)

// RedisConfig configures the redis cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Redis stores sizes as JSON values under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "images:size:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (*images.Size, bool, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var size images.Size
	if err := sonic.Unmarshal(raw, &size); err != nil {
		return nil, false, fmt.Errorf("decode cached size: %w", err)
	}
	return &size, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, size images.Size) error {
	data, err := sonic.Marshal(size)
	if err != nil {
		return fmt.Errorf("encode size: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Name implements Cache.
func (r *Redis) Name() string { return "redis" }

// Close implements Cache.
func (r *Redis) Close() error { return r.client.Close() }
