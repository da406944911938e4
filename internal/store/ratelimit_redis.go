package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store
// using a sorted set per key as the sliding window.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	cutoff := now.Add(-window)
	redisKey := s.prefix + key

	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return count.Val(), nil
}
