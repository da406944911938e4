package handlers

import (
	"fmt"
	"time"

	"github.com/serroba/shortlink-go/internal/shortlink"
)

// LinkPayload is the wire representation of a short link.
type LinkPayload struct {
	ID             string     `doc:"Store-assigned identifier"          json:"id"`
	OriginalURL    string     `doc:"The destination URL"                json:"originalUrl"`
	ShortCode      string     `doc:"The short code"                     json:"shortCode"`
	ShortURL       string     `doc:"The full short URL"                 json:"shortUrl"`
	Clicks         int64      `doc:"Redirect traversal count"           json:"clicks"`
	IsActive       bool       `doc:"Whether redirects are served"       json:"isActive"`
	ExpiresAt      *time.Time `doc:"Expiry, absent means never expires" json:"expiresAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastAccessedAt *time.Time `doc:"Set on successful redirects only"   json:"lastAccessedAt,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
}

func newLinkPayload(link *shortlink.ShortLink, baseURL string) LinkPayload {
	return LinkPayload{
		ID:             link.ID,
		OriginalURL:    link.OriginalURL,
		ShortCode:      link.ShortCode,
		ShortURL:       fmt.Sprintf("%s/%s", baseURL, link.ShortCode),
		Clicks:         link.ClickCount,
		IsActive:       link.IsActive,
		ExpiresAt:      link.ExpiresAt,
		CreatedAt:      link.CreatedAt,
		UpdatedAt:      link.UpdatedAt,
		LastAccessedAt: link.LastAccessedAt,
		Tags:           link.Tags,
	}
}

// PaginationPayload describes the position of a returned page.
type PaginationPayload struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

// ShortenRequest is the request body for creating a short link.
type ShortenRequest struct {
	Body struct {
		OriginalURL    string   `doc:"The URL to shorten"                    example:"https://example.com/very/long/path" json:"originalUrl"                maxLength:"2048" minLength:"1"`
		CustomShortURL string   `doc:"Optional custom short code"            example:"promo1"                             json:"customShortUrl,omitempty"   pattern:"^[A-Za-z0-9]{3,20}$"    required:"false"`
		Tags           []string `doc:"Optional labels attached to the link"  json:"tags,omitempty"                        required:"false"`
	}
}

// ShortenResponse returns the link representation; status is 201 for a
// newly created record and 200 for an existing one.
type ShortenResponse struct {
	Status int
	Body   struct {
		LinkPayload
		IsNew bool `doc:"Whether a new record was created" json:"isNew"`
	}
}

// CodeParam identifies a short link by its code.
type CodeParam struct {
	Code string `doc:"The short code" example:"abc123" maxLength:"20" path:"code"`
}

// RedirectResponse redirects to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The destination URL" header:"Location"`
	}
}

// ListLinksRequest carries pagination and filter query parameters.
// Out-of-range page and limit values are clamped, not rejected.
type ListLinksRequest struct {
	Page           int    `default:"1"         query:"page"`
	Limit          int    `default:"10"        query:"limit"`
	SortBy         string `default:"createdAt" enum:"createdAt,updatedAt,clicks,lastAccessedAt,expiresAt,originalUrl,shortCode" query:"sortBy"`
	SortOrder      string `default:"desc"      enum:"asc,desc"                                                                 query:"sortOrder"`
	IncludeExpired bool   `doc:"Include inactive and expired links" query:"includeExpired"`
	Search         string `doc:"Case-insensitive substring match on URL or code" query:"search"`
}

// ListLinksResponse is a page of links plus pagination metadata.
type ListLinksResponse struct {
	Body struct {
		Urls       []LinkPayload     `json:"urls"`
		Pagination PaginationPayload `json:"pagination"`
	}
}

// DetailsResponse is a single link plus computed expiry fields.
type DetailsResponse struct {
	Body struct {
		LinkPayload
		IsExpired           bool `json:"isExpired"`
		DaysUntilExpiration *int `json:"daysUntilExpiration"`
	}
}

// AnalyticsResponse is the analytics view of a link.
type AnalyticsResponse struct {
	Body struct {
		ShortCode           string     `json:"shortCode"`
		OriginalURL         string     `json:"originalUrl"`
		TotalClicks         int64      `json:"totalClicks"`
		CreatedAt           time.Time  `json:"createdAt"`
		LastAccessedAt      *time.Time `json:"lastAccessedAt,omitempty"`
		IsActive            bool       `json:"isActive"`
		IsExpired           bool       `json:"isExpired"`
		ExpiresAt           *time.Time `json:"expiresAt,omitempty"`
		DaysUntilExpiration *int       `json:"daysUntilExpiration"`
	}
}

// DeleteResponse confirms a hard delete.
type DeleteResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// StatsResponse holds aggregate system counters.
type StatsResponse struct {
	Body struct {
		TotalUrls        int64 `json:"totalUrls"`
		ActiveUrls       int64 `json:"activeUrls"`
		ExpiredUrls      int64 `json:"expiredUrls"`
		TotalClicks      int64 `json:"totalClicks"`
		UrlsCreatedToday int64 `json:"urlsCreatedToday"`
	}
}

// CleanupResponse reports the result of a manual expiry sweep.
type CleanupResponse struct {
	Body struct {
		DeactivatedCount int64 `json:"deactivatedCount"`
	}
}
