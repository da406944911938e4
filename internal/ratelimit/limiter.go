package ratelimit

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// MetadataKey stores per-endpoint rate limit config in huma operation metadata.
const MetadataKey = "rateLimit"

// LimitConfig is a single window/max pair.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// EndpointConfig declares the rate limits of one endpoint. Attached to
// huma operations via the Metadata field.
type EndpointConfig struct {
	Limits   []LimitConfig
	Disabled bool
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata,
// or nil when the endpoint declares none.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// Store counts requests per key within a sliding window, pruning
// entries that fell out of it.
type Store interface {
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Exceeded describes which limit a rejected request hit.
type Exceeded struct {
	Config LimitConfig
	Count  int64
}

// Limiter checks a client key against a set of sliding-window limits.
type Limiter struct {
	store Store
}

// NewLimiter creates a limiter on top of a window store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Allow records the request under every limit window and reports
// whether all limits hold. Each window tracks independently, keyed by
// client and window length.
func (l *Limiter) Allow(ctx context.Context, clientKey string, limits []LimitConfig) (bool, *Exceeded, error) {
	for _, limit := range limits {
		key := clientKey + ":" + limit.Window.String()

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return false, nil, err
		}

		if count > limit.Max {
			return false, &Exceeded{Config: limit, Count: count}, nil
		}
	}

	return true, nil, nil
}
