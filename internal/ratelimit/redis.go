package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window counter in Redis, shared across all
// replicas of the service. The first request in a window creates the counter
// with the window as its expiry; the counter's remaining TTL is the retry
// hint handed to rejected clients.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

// NewRedisLimiter creates a RedisLimiter. logger may be nil.
func NewRedisLimiter(client *redis.Client, cfg Config, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{client: client, cfg: cfg, logger: logger}
}

func (l *RedisLimiter) Admit(ctx context.Context, clientID string) (Decision, error) {
	key := keyPrefix + clientID

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incrementing window counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("setting window expiry: %w", err)
		}
	}

	if count <= int64(l.cfg.Requests) {
		return Decision{Allowed: true}, nil
	}

	retryAfter, err := l.client.TTL(ctx, key).Result()
	if err != nil || retryAfter <= 0 {
		// Counter without expiry (crashed between INCR and EXPIRE) or TTL
		// lookup failure: fall back to a full window.
		retryAfter = l.cfg.Window
	}

	l.logger.Warn("rate limit exceeded",
		"client", clientID,
		"count", count,
		"retry_after", retryAfter,
	)
	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

// compile-time interface check
var _ Limiter = (*RedisLimiter)(nil)

// RetrySeconds rounds a retry hint up to whole seconds for the Retry-After
// header, never below one second.
func RetrySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
