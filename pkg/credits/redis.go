package credits

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// debitScript decrements the balance only when it is sufficient. Returns
// the new balance on success or -(current balance)-1 on refusal, so the
// caller can distinguish "refused with balance 0" from "debited to 0".
var debitScript = redis.NewScript(`
local balance = tonumber(redis.call('GET', KEYS[1]) or '0')
local cost = tonumber(ARGV[1])
if balance >= cost then
  return redis.call('DECRBY', KEYS[1], cost)
end
return -balance - 1
`)

// RedisStore is a redis-backed credit counter shared across instances.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a credit store on the given redis client.
func NewRedisStore(redisClient *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "credits"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *RedisStore) key(subject string) string {
	return fmt.Sprintf("%s:%s", s.prefix, subject)
}

// Debit implements Store. The check-and-decrement runs as a single Lua
// script, so concurrent debits for the same subject serialize in redis.
func (s *RedisStore) Debit(ctx context.Context, subject string, cost int) (int, error) {
	result, err := debitScript.Run(ctx, s.redis, []string{s.key(subject)}, cost).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis debit: %w", err)
	}
	if result < 0 {
		return 0, &InsufficientError{Required: cost, Remaining: int(-result - 1)}
	}
	return int(result), nil
}

// Balance implements Store.
func (s *RedisStore) Balance(ctx context.Context, subject string) (int, error) {
	balance, err := s.redis.Get(ctx, s.key(subject)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis balance: %w", err)
	}
	return balance, nil
}

// Grant implements Store.
func (s *RedisStore) Grant(ctx context.Context, subject string, amount int) (int, error) {
	balance, err := s.redis.IncrBy(ctx, s.key(subject), int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis grant: %w", err)
	}
	return int(balance), nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, subject string, balance int) error {
	if err := s.redis.Set(ctx, s.key(subject), balance, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
