package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a huma middleware enforcing the rate limits each
// operation declares in its metadata; operations without a declaration
// fall back to defaults. Limits are tracked per client, keyed by a
// hash of IP and User-Agent.
func RateLimiter(
	api huma.API,
	limiter *ratelimit.Limiter,
	defaults []ratelimit.LimitConfig,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		limits := defaults

		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil {
			if cfg.Disabled {
				next(ctx)

				return
			}

			if len(cfg.Limits) > 0 {
				limits = cfg.Limits
			}
		}

		key := clientKey(ctx)
		if op := ctx.Operation(); op != nil {
			// Scope counters to the route template so endpoints with
			// different budgets do not share windows.
			key += ":" + op.Path
		}

		allowed, exceeded, err := limiter.Allow(ctx.Context(), key, limits)
		if err != nil {
			logger.Error("rate limit check failed", zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			msg := "rate limit exceeded"
			if exceeded != nil {
				msg = fmt.Sprintf("rate limit exceeded: %d/%d requests in %s",
					exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)
				logger.Warn("rate limit exceeded",
					zap.String("method", ctx.Method()),
					zap.Int64("count", exceeded.Count),
					zap.Int64("max", exceeded.Config.Max),
					zap.Duration("window", exceeded.Config.Window),
				)
			}

			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)

			return
		}

		next(ctx)
	}
}

// clientKey derives a stable per-client key from IP and User-Agent.
func clientKey(ctx huma.Context) string {
	hash := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(hash[:])
}
