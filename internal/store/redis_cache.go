package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink-go/internal/shortlink"
)

// RedisCacheRepository decorates a Repository with a Redis read cache
// for code lookups, the hot path behind redirects. Cached records carry
// their expires_at, so read-time expiry checks stay correct even when
// the scheduled sweep deactivates rows behind the cache; the TTL bounds
// every other form of staleness.
type RedisCacheRepository struct {
	store  shortlink.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a caching decorator around store.
func NewRedisCacheRepository(store shortlink.Repository, client *redis.Client, ttl time.Duration) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

func (r *RedisCacheRepository) Create(ctx context.Context, link *shortlink.ShortLink) error {
	if err := r.store.Create(ctx, link); err != nil {
		return err
	}

	r.cache(ctx, link)

	return nil
}

func (r *RedisCacheRepository) GetByCode(ctx context.Context, code string) (*shortlink.ShortLink, error) {
	if cached, err := r.fromCache(ctx, code); err == nil {
		return cached, nil
	}

	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cache(ctx, link)

	return link, nil
}

func (r *RedisCacheRepository) FindActiveByURL(ctx context.Context, originalURL string) (*shortlink.ShortLink, error) {
	return r.store.FindActiveByURL(ctx, originalURL)
}

func (r *RedisCacheRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	// Uniqueness decisions always go to the source of truth.
	return r.store.CodeExists(ctx, code)
}

func (r *RedisCacheRepository) RegisterClick(ctx context.Context, code string, at time.Time) error {
	if err := r.store.RegisterClick(ctx, code, at); err != nil {
		return err
	}

	r.invalidate(ctx, code)

	return nil
}

func (r *RedisCacheRepository) Deactivate(ctx context.Context, code string, at time.Time) error {
	if err := r.store.Deactivate(ctx, code, at); err != nil {
		return err
	}

	r.invalidate(ctx, code)

	return nil
}

func (r *RedisCacheRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.store.DeactivateExpired(ctx, now)
}

func (r *RedisCacheRepository) Delete(ctx context.Context, code string) error {
	if err := r.store.Delete(ctx, code); err != nil {
		return err
	}

	r.invalidate(ctx, code)

	return nil
}

func (r *RedisCacheRepository) List(ctx context.Context, q shortlink.Query) ([]shortlink.ShortLink, int64, error) {
	return r.store.List(ctx, q)
}

func (r *RedisCacheRepository) Stats(ctx context.Context, now, dayStart time.Time) (shortlink.Stats, error) {
	return r.store.Stats(ctx, now, dayStart)
}

func (r *RedisCacheRepository) fromCache(ctx context.Context, code string) (*shortlink.ShortLink, error) {
	payload, err := r.client.Get(ctx, r.prefix+code).Bytes()
	if err != nil {
		return nil, err
	}

	var link shortlink.ShortLink
	if err := json.Unmarshal(payload, &link); err != nil {
		return nil, err
	}

	return &link, nil
}

// cache and invalidate are best-effort: a failed cache write never
// fails the operation that triggered it.
func (r *RedisCacheRepository) cache(ctx context.Context, link *shortlink.ShortLink) {
	payload, err := json.Marshal(link)
	if err != nil {
		return
	}

	_ = r.client.Set(ctx, r.prefix+link.ShortCode, payload, r.ttl).Err()
}

func (r *RedisCacheRepository) invalidate(ctx context.Context, code string) {
	_ = r.client.Del(ctx, r.prefix+code).Err()
}

// Compile-time check.
var _ shortlink.Repository = (*RedisCacheRepository)(nil)
