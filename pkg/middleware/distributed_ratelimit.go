package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/complyscan/complyscan/pkg/plan"
)

// RedisLimiter is a fixed-window limiter backed by redis, so limits hold
// across gateway instances. The window lives in the key name: all
// instances INCR the same counter for the same caller and window start,
// which makes the check-and-increment atomic without a lock.
type RedisLimiter struct {
	redis  *redis.Client
	prefix string
}

// NewRedisLimiter creates a redis-backed limiter.
func NewRedisLimiter(redisClient *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, budget plan.RateBudget) (Decision, error) {
	now := time.Now()
	start := now.Truncate(budget.Window)
	reset := start.Add(budget.Window)

	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, start.Unix())

	pipe := l.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	// Expire a window after the window ends; keeps abandoned counters out
	// of redis without racing the reset boundary.
	pipe.Expire(ctx, redisKey, 2*budget.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}

	count := int(incr.Val())
	if count > budget.MaxRequests {
		return Decision{Allowed: false, Remaining: 0, Reset: reset}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: budget.MaxRequests - count,
		Reset:     reset,
	}, nil
}

// Reset clears the current window for a key (tests and admin tooling).
func (l *RedisLimiter) Reset(ctx context.Context, key string, budget plan.RateBudget) error {
	start := time.Now().Truncate(budget.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, start.Unix())
	return l.redis.Del(ctx, redisKey).Err()
}
