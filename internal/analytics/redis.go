package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps per-code usage counters in Redis hashes, one hash
// per short code under "link_stats:<code>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed usage store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "link_stats:",
	}
}

func (s *RedisStore) SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error {
	fields := map[string]interface{}{
		"original_url": event.OriginalURL,
		"custom":       strconv.FormatBool(event.Custom),
		"created_at":   event.CreatedAt.Format(time.RFC3339),
	}

	if event.ExpiresAt != nil {
		fields["expires_at"] = event.ExpiresAt.Format(time.RFC3339)
	}

	return s.client.HSet(ctx, s.prefix+event.Code, fields).Err()
}

func (s *RedisStore) SaveLinkAccessed(ctx context.Context, event *LinkAccessedEvent) error {
	key := s.prefix + event.Code

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, key, "clicks", 1)
	pipe.HSet(ctx, key, map[string]interface{}{
		"last_accessed_at": event.AccessedAt.Format(time.RFC3339),
		"last_client_ip":   event.ClientIP,
		"last_user_agent":  event.UserAgent,
	})

	_, err := pipe.Exec(ctx)

	return err
}

// Compile-time check.
var _ Store = (*RedisStore)(nil)
