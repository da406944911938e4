package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/analytics"
	"github.com/serroba/shortlink-go/internal/messaging"
	"github.com/serroba/shortlink-go/internal/shortlink"
	"go.uber.org/zap"
)

// LinkHandler handles the short-link HTTP operations.
type LinkHandler struct {
	svc             *shortlink.Service
	baseURL         string
	publishCreated  messaging.Publish[analytics.LinkCreatedEvent]
	publishAccessed messaging.Publish[analytics.LinkAccessedEvent]
	logger          *zap.Logger
}

// NewLinkHandler creates a link handler.
func NewLinkHandler(
	svc *shortlink.Service,
	baseURL string,
	publishCreated messaging.Publish[analytics.LinkCreatedEvent],
	publishAccessed messaging.Publish[analytics.LinkAccessedEvent],
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		svc:             svc,
		baseURL:         baseURL,
		publishCreated:  publishCreated,
		publishAccessed: publishAccessed,
		logger:          logger,
	}
}

// Shorten creates a short link or returns the existing one for the
// same destination.
func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	link, isNew, err := h.svc.FindOrCreate(ctx, req.Body.OriginalURL, req.Body.CustomShortURL, req.Body.Tags)
	if err != nil {
		return nil, h.mapError(err, "shorten")
	}

	if isNew {
		meta := RequestMetaFromContext(ctx)
		event := &analytics.LinkCreatedEvent{
			Code:        link.ShortCode,
			OriginalURL: link.OriginalURL,
			Custom:      req.Body.CustomShortURL != "",
			ExpiresAt:   link.ExpiresAt,
			CreatedAt:   link.CreatedAt,
			ClientIP:    meta.ClientIP,
			UserAgent:   meta.UserAgent,
		}

		if err := h.publishCreated(event); err != nil {
			h.logger.Error("failed to publish created event",
				zap.String("code", link.ShortCode),
				zap.Error(err),
			)
		}
	}

	resp := &ShortenResponse{Status: http.StatusOK}
	if isNew {
		resp.Status = http.StatusCreated
	}

	resp.Body.LinkPayload = newLinkPayload(link, h.baseURL)
	resp.Body.IsNew = isNew

	return resp, nil
}

// Redirect resolves a short code and redirects to its destination.
// Unknown, inactive, and expired codes all answer 404.
func (h *LinkHandler) Redirect(ctx context.Context, req *CodeParam) (*RedirectResponse, error) {
	link, err := h.svc.RecordClick(ctx, req.Code)
	if err != nil {
		kind := shortlink.KindOf(err)
		if kind == shortlink.KindNotFound || kind == shortlink.KindExpired {
			return nil, huma.Error404NotFound("short link not found or expired")
		}

		return nil, h.mapError(err, "redirect")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkAccessedEvent{
		Code:       link.ShortCode,
		AccessedAt: time.Now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err := h.publishAccessed(event); err != nil {
		h.logger.Error("failed to publish accessed event",
			zap.String("code", link.ShortCode),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{Status: http.StatusFound}
	resp.Headers.Location = link.OriginalURL

	return resp, nil
}

// List returns a filtered, paginated page of links.
func (h *LinkHandler) List(ctx context.Context, req *ListLinksRequest) (*ListLinksResponse, error) {
	links, meta, err := h.svc.List(ctx, shortlink.ListOptions{
		Page:           req.Page,
		Limit:          req.Limit,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
		IncludeExpired: req.IncludeExpired,
		Search:         req.Search,
	})
	if err != nil {
		return nil, h.mapError(err, "list")
	}

	resp := &ListLinksResponse{}
	resp.Body.Urls = make([]LinkPayload, 0, len(links))

	for i := range links {
		resp.Body.Urls = append(resp.Body.Urls, newLinkPayload(&links[i], h.baseURL))
	}

	resp.Body.Pagination = PaginationPayload{
		CurrentPage: meta.CurrentPage,
		TotalPages:  meta.TotalPages,
		TotalCount:  meta.TotalCount,
		HasNextPage: meta.HasNextPage,
		HasPrevPage: meta.HasPrevPage,
		Limit:       meta.Limit,
	}

	return resp, nil
}

// Details returns a single link with computed expiry fields.
func (h *LinkHandler) Details(ctx context.Context, req *CodeParam) (*DetailsResponse, error) {
	link, err := h.svc.Get(ctx, req.Code)
	if err != nil {
		return nil, h.mapError(err, "details")
	}

	now := time.Now()

	resp := &DetailsResponse{}
	resp.Body.LinkPayload = newLinkPayload(link, h.baseURL)
	resp.Body.IsExpired = link.Expired(now)
	resp.Body.DaysUntilExpiration = shortlink.DaysUntilExpiration(link, now)

	return resp, nil
}

// Analytics returns the analytics view of a link, regardless of its
// active state.
func (h *LinkHandler) Analytics(ctx context.Context, req *CodeParam) (*AnalyticsResponse, error) {
	view, err := h.svc.Analytics(ctx, req.Code)
	if err != nil {
		return nil, h.mapError(err, "analytics")
	}

	resp := &AnalyticsResponse{}
	resp.Body.ShortCode = view.ShortCode
	resp.Body.OriginalURL = view.OriginalURL
	resp.Body.TotalClicks = view.TotalClicks
	resp.Body.CreatedAt = view.CreatedAt
	resp.Body.LastAccessedAt = view.LastAccessedAt
	resp.Body.IsActive = view.IsActive
	resp.Body.IsExpired = view.IsExpired
	resp.Body.ExpiresAt = view.ExpiresAt
	resp.Body.DaysUntilExpiration = view.DaysUntilExpiration

	return resp, nil
}

// Delete removes a link permanently.
func (h *LinkHandler) Delete(ctx context.Context, req *CodeParam) (*DeleteResponse, error) {
	if err := h.svc.Delete(ctx, req.Code); err != nil {
		return nil, h.mapError(err, "delete")
	}

	resp := &DeleteResponse{}
	resp.Body.Message = "URL deleted successfully"

	return resp, nil
}

// mapError translates lifecycle error kinds to HTTP errors. Unknown
// errors are logged and masked as 500s.
func (h *LinkHandler) mapError(err error, op string) error {
	switch shortlink.KindOf(err) {
	case shortlink.KindInvalid:
		return huma.Error400BadRequest(err.Error())
	case shortlink.KindConflict:
		return huma.Error409Conflict(err.Error())
	case shortlink.KindNotFound:
		return huma.Error404NotFound(err.Error())
	case shortlink.KindExpired:
		return huma.Error410Gone(err.Error())
	case shortlink.KindExhausted:
		// Keyspace pressure: fatal for this request, not the process.
		h.logger.Error("short code generation exhausted", zap.String("op", op))

		return huma.Error500InternalServerError(err.Error())
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}
