package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a limiter backed by a shared Redis store, suitable when
// several processes serve the same user population. Each window is a
// per-user sorted set scored by event time; eviction trims entries
// older than the window before counting. The trim-count-insert sequence
// is not atomic across processes; the resulting races are accepted.
// Store failures degrade to an embedded in-process limiter.
type Redis struct {
	client    *redis.Client
	fallback  *SlidingWindow
	perMinute int
	perHour   int
	logger    *slog.Logger
	now       func() time.Time
}

// NewRedis creates a Redis-backed limiter and verifies the connection.
func NewRedis(addr, password string, db, perMinute, perHour int, logger *slog.Logger) (*Redis, error) {
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

	return NewRedisFromClient(client, perMinute, perHour, logger), nil
}

// NewRedisFromClient creates a Redis limiter from an existing client.
// This is useful for testing with miniredis.
func NewRedisFromClient(client *redis.Client, perMinute, perHour int, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client:    client,
		fallback:  NewSlidingWindow(perMinute, perHour),
		perMinute: perMinute,
		perHour:   perHour,
		logger:    logger.With("component", "ratelimit"),
		now:       time.Now,
	}
}

func windowKey(userID, window string) string {
	return "ratelimit:" + userID + ":" + window
}

// Admit implements Limiter.
func (l *Redis) Admit(ctx context.Context, userID string) bool {
	now := l.now()

	minuteCount, err := l.windowCount(ctx, windowKey(userID, "minute"), now, minuteWindow)
	if err != nil {
		l.logger.Warn("redis rate-limit check failed, using in-process fallback", "error", err)
		return l.fallback.Admit(ctx, userID)
	}

	hourCount, err := l.windowCount(ctx, windowKey(userID, "hour"), now, hourWindow)
	if err != nil {
		l.logger.Warn("redis rate-limit check failed, using in-process fallback", "error", err)
		return l.fallback.Admit(ctx, userID)
	}

	if minuteCount >= int64(l.perMinute) || hourCount >= int64(l.perHour) {
		return false
	}

	if err := l.record(ctx, userID, now); err != nil {
		l.logger.Warn("redis rate-limit record failed", "error", err)
	}
	return true
}

// windowCount trims entries older than the window and returns the
// post-eviction count.
func (l *Redis) windowCount(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error) {
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	if err := l.client.ZRemRangeByScore(ctx, key, "-inf", cutoff).Err(); err != nil {
		return 0, err
	}
	return l.client.ZCard(ctx, key).Result()
}

// record inserts the admitted event into both windows.
func (l *Redis) record(ctx context.Context, userID string, now time.Time) error {
	member := strconv.FormatInt(now.UnixNano(), 10)
	score := float64(now.UnixNano())

	pipe := l.client.Pipeline()
	for window, retain := range map[string]time.Duration{
		"minute": minuteWindow,
		"hour":   hourWindow,
	} {
		key := windowKey(userID, window)
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
		pipe.Expire(ctx, key, retain+time.Minute)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the underlying client.
func (l *Redis) Close() error {
	return l.client.Close()
}
