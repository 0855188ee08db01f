package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares submit intervals between server instances.
// Each allowed action writes key with a TTL of minInterval; a key that
// already exists means the interval is still running.
type RedisLimiter struct {
	client      *redis.Client
	prefix      string
	minInterval time.Duration
	timeout     time.Duration
}

// NewRedis creates a Redis-backed limiter
func NewRedis(client *redis.Client, prefix string, minInterval time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "autolot:"
	}
	return &RedisLimiter{
		client:      client,
		prefix:      prefix + "ratelimit:",
		minInterval: minInterval,
		timeout:     2 * time.Second,
	}
}

// Allow reports whether key may act now. Redis errors allow the action.
func (l *RedisLimiter) Allow(key string) bool {
	if l.minInterval <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	ok, err := l.client.SetNX(ctx, l.prefix+key, time.Now().UnixMilli(), l.minInterval).Result()
	if err != nil {
		return true
	}
	return ok
}

// Reset forgets key
func (l *RedisLimiter) Reset(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	l.client.Del(ctx, l.prefix+key)
}

var _ RateLimiter = (*RedisLimiter)(nil)
