package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker adapts pgxpool.Pool to Checker.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a Postgres health checker.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Handler serves the health endpoint. Either checker may be nil when
// the deployment runs without that dependency.
type Handler struct {
	database Checker
	cache    Checker
}

// NewHandler creates a health handler.
func NewHandler(database, cache Checker) *Handler {
	return &Handler{
		database: database,
		cache:    cache,
	}
}

// Response is the health check response.
type Response struct {
	Body struct {
		Status   string `json:"status"`
		Database string `json:"database,omitempty"`
		Cache    string `json:"cache,omitempty"`
	}
}

// Check reports the status of the service and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"

	if h.database != nil {
		resp.Body.Database = "healthy"
		if err := h.database.Ping(ctx); err != nil {
			resp.Body.Database = "unhealthy"
			resp.Body.Status = "degraded"
		}
	}

	if h.cache != nil {
		resp.Body.Cache = "healthy"
		if err := h.cache.Ping(ctx); err != nil {
			resp.Body.Cache = "unhealthy"
			resp.Body.Status = "degraded"
		}
	}

	return resp, nil
}

// RegisterRoutes registers the health endpoint.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
