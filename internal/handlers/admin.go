package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/shortlink"
	"go.uber.org/zap"
)

// AdminHandler serves system stats and the manual cleanup trigger.
type AdminHandler struct {
	svc    *shortlink.Service
	logger *zap.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(svc *shortlink.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		logger: logger,
	}
}

// Stats returns aggregate counters over all links.
func (h *AdminHandler) Stats(ctx context.Context, _ *struct{}) (*StatsResponse, error) {
	stats, err := h.svc.SystemStats(ctx)
	if err != nil {
		h.logger.Error("failed to aggregate stats", zap.Error(err))

		return nil, huma.Error500InternalServerError("internal server error")
	}

	resp := &StatsResponse{}
	resp.Body.TotalUrls = stats.TotalLinks
	resp.Body.ActiveUrls = stats.ActiveLinks
	resp.Body.ExpiredUrls = stats.ExpiredLinks
	resp.Body.TotalClicks = stats.TotalClicks
	resp.Body.UrlsCreatedToday = stats.CreatedToday

	return resp, nil
}

// Cleanup triggers the expiry sweep on demand.
func (h *AdminHandler) Cleanup(ctx context.Context, _ *struct{}) (*CleanupResponse, error) {
	count, err := h.svc.CleanupExpired(ctx)
	if err != nil {
		h.logger.Error("manual cleanup failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("internal server error")
	}

	resp := &CleanupResponse{}
	resp.Body.DeactivatedCount = count

	return resp, nil
}
