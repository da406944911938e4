package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/ratelimit"
)

// RegisterRoutes registers the short-link operations with per-endpoint
// rate limit configuration. The redirect route is registered last so
// the catch-all {code} pattern cannot shadow the fixed paths.
func RegisterRoutes(api huma.API, links *LinkHandler, admin *AdminHandler) {
	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/shorten",
		Summary:       "Create short URL",
		Description:   "Creates a short link, or returns the existing one for the same destination URL.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, links.Shorten)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/urls",
		Summary:     "List short URLs",
		Description: "Returns a filtered, sorted page of links.",
		Tags:        []string{"URLs"},
	}, links.List)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/details/{code}",
		Summary:     "Get URL details",
		Tags:        []string{"URLs"},
	}, links.Details)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/analytics/{code}",
		Summary:     "Get URL analytics",
		Tags:        []string{"Analytics"},
	}, links.Analytics)

	huma.Register(api, huma.Operation{
		Method:      http.MethodDelete,
		Path:        "/delete/{code}",
		Summary:     "Delete short URL",
		Description: "Removes the record permanently.",
		Tags:        []string{"URLs"},
	}, links.Delete)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/admin/stats",
		Summary:     "System statistics",
		Tags:        []string{"Admin"},
	}, admin.Stats)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/admin/cleanup",
		Summary:     "Trigger expiry sweep",
		Tags:        []string{"Admin"},
	}, admin.Cleanup)

	// High-traffic read path gets a relaxed limit.
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, links.Redirect)
}
