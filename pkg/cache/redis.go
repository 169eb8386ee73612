package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cache:"

// Redis is a cache backed by a shared Redis store. Any Redis failure on
// Get or Set degrades silently to an embedded in-process cache for that
// operation, so a flapping store never surfaces to callers.
type Redis struct {
	client   *redis.Client
	fallback *Memory
	logger   *slog.Logger
}

// NewRedis creates a Redis-backed cache and verifies the connection.
func NewRedis(addr, password string, db int, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisFromClient(client, logger), nil
}

// NewRedisFromClient creates a Redis cache from an existing client.
// This is useful for testing with miniredis.
func NewRedisFromClient(client *redis.Client, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client:   client,
		fallback: NewMemory(),
		logger:   logger.With("component", "cache"),
	}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	value, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false
		}
		r.logger.Warn("redis get failed, using in-process fallback", "error", err)
		return r.fallback.Get(ctx, key)
	}
	return value, true
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		r.logger.Warn("redis set failed, using in-process fallback", "error", err)
		r.fallback.Set(ctx, key, value, ttl)
	}
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
