package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlink-go/internal/middleware"
	"github.com/serroba/shortlink-go/internal/ratelimit"
	"github.com/serroba/shortlink-go/internal/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupLimitedAPI(t *testing.T, defaults []ratelimit.LimitConfig) (*chi.Mux, huma.API) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))

	limiter := ratelimit.NewLimiter(store.NewRateLimitMemoryStore())
	api.UseMiddleware(middleware.RateLimiter(api, limiter, defaults, zap.NewNop()))

	return router, api
}

func get(router *chi.Mux, path, agent string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", agent)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("enforces the endpoint limit", func(t *testing.T) {
		router, api := setupLimitedAPI(t, nil)

		huma.Register(api, huma.Operation{
			Method: http.MethodGet,
			Path:   "/limited",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{
					Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 2}},
				},
			},
		}, func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		assert.Equal(t, http.StatusOK, get(router, "/limited", "agent").Code)
		assert.Equal(t, http.StatusOK, get(router, "/limited", "agent").Code)
		assert.Equal(t, http.StatusTooManyRequests, get(router, "/limited", "agent").Code)
	})

	t.Run("falls back to default limits", func(t *testing.T) {
		router, api := setupLimitedAPI(t, []ratelimit.LimitConfig{{Window: time.Minute, Max: 1}})

		huma.Get(api, "/plain", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		assert.Equal(t, http.StatusOK, get(router, "/plain", "agent").Code)
		assert.Equal(t, http.StatusTooManyRequests, get(router, "/plain", "agent").Code)
	})

	t.Run("disabled endpoints are never limited", func(t *testing.T) {
		router, api := setupLimitedAPI(t, []ratelimit.LimitConfig{{Window: time.Minute, Max: 1}})

		huma.Register(api, huma.Operation{
			Method: http.MethodGet,
			Path:   "/open",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
			},
		}, func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, get(router, "/open", "agent").Code)
		}
	})

	t.Run("different clients have separate windows", func(t *testing.T) {
		router, api := setupLimitedAPI(t, []ratelimit.LimitConfig{{Window: time.Minute, Max: 1}})

		huma.Get(api, "/shared", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		assert.Equal(t, http.StatusOK, get(router, "/shared", "agent-a").Code)
		assert.Equal(t, http.StatusOK, get(router, "/shared", "agent-b").Code)
	})

	t.Run("endpoints track independently", func(t *testing.T) {
		router, api := setupLimitedAPI(t, []ratelimit.LimitConfig{{Window: time.Minute, Max: 1}})

		huma.Get(api, "/first", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})
		huma.Get(api, "/second", func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})

		assert.Equal(t, http.StatusOK, get(router, "/first", "agent").Code)
		assert.Equal(t, http.StatusOK, get(router, "/second", "agent").Code)
	})
}
