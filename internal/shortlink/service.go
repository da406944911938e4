package shortlink

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultExpirationDays is applied to new links.
	DefaultExpirationDays = 7

	// DefaultPageLimit and MaxPageLimit bound list pagination.
	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// sortKeys whitelists sortable fields. Values are the keys handed to
// the repository; anything else falls back to createdAt.
var sortKeys = map[string]string{
	"createdAt":      "createdAt",
	"updatedAt":      "updatedAt",
	"clicks":         "clicks",
	"lastAccessedAt": "lastAccessedAt",
	"expiresAt":      "expiresAt",
	"originalUrl":    "originalUrl",
	"shortCode":      "shortCode",
}

// ListOptions are the caller-facing pagination and filter knobs.
// Out-of-range values are clamped, not rejected.
type ListOptions struct {
	Page           int
	Limit          int
	SortBy         string
	SortOrder      string // "asc" or "desc"; default desc
	IncludeExpired bool
	Search         string
}

// PageMeta describes the position of a returned page.
type PageMeta struct {
	CurrentPage int
	TotalPages  int
	TotalCount  int64
	HasNextPage bool
	HasPrevPage bool
	Limit       int
}

// AnalyticsView is the computed analytics projection of a link.
type AnalyticsView struct {
	ShortCode           string
	OriginalURL         string
	TotalClicks         int64
	CreatedAt           time.Time
	LastAccessedAt      *time.Time
	IsActive            bool
	IsExpired           bool
	ExpiresAt           *time.Time
	DaysUntilExpiration *int
}

// Service orchestrates the short-link lifecycle: find-or-create with
// collision-free codes, click recording with lazy expiration, filtered
// listing, analytics and the bulk expiry sweep.
type Service struct {
	repo        Repository
	resolver    *UniqueResolver
	expireAfter time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a lifecycle service. expirationDays values below 1
// fall back to DefaultExpirationDays.
func NewService(repo Repository, resolver *UniqueResolver, expirationDays int, logger *zap.Logger) *Service {
	if expirationDays < 1 {
		expirationDays = DefaultExpirationDays
	}

	return &Service{
		repo:        repo,
		resolver:    resolver,
		expireAfter: time.Duration(expirationDays) * 24 * time.Hour,
		logger:      logger,
		now:         time.Now,
	}
}

// FindOrCreate returns an existing active, non-expired link for the
// destination URL, or creates a new one. The second return value
// reports whether a record was created.
//
// Deduplication is best-effort: concurrent calls for the same URL can
// both pass the existence check and insert, each with its own code.
// The store enforces uniqueness on the short code only.
func (s *Service) FindOrCreate(ctx context.Context, rawURL, customCode string, tags []string) (*ShortLink, bool, error) {
	originalURL, err := Normalize(rawURL)
	if err != nil {
		return nil, false, err
	}

	now := s.now()

	existing, err := s.repo.FindActiveByURL(ctx, originalURL)
	if err == nil && !existing.Expired(now) {
		return existing, false, nil
	}

	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("looking up existing link: %w", err)
	}

	var code string
	if customCode != "" {
		if !ValidCode(customCode) {
			return nil, false, ErrInvalidCode
		}

		code, err = s.resolver.ResolveCustom(ctx, customCode)
	} else {
		code, err = s.resolver.Resolve(ctx)
	}

	if err != nil {
		return nil, false, err
	}

	expiresAt := now.Add(s.expireAfter)
	link := &ShortLink{
		OriginalURL: originalURL,
		ShortCode:   code,
		IsActive:    true,
		ExpiresAt:   &expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        tags,
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, false, fmt.Errorf("creating link: %w", err)
	}

	s.logger.Info("short link created",
		zap.String("code", link.ShortCode),
		zap.Bool("custom", customCode != ""),
	)

	return link, true, nil
}

// RecordClick registers a redirect traversal of the given code and
// returns the link to redirect to. Inactive or unknown codes yield
// ErrNotFound. A lapsed expiry deactivates the record as a side effect
// and yields ErrExpired; the scheduled sweep applies the identical
// predicate, so both expiration paths agree.
func (s *Service) RecordClick(ctx context.Context, code string) (*ShortLink, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !link.IsActive {
		return nil, ErrNotFound
	}

	now := s.now()
	if link.Expired(now) {
		if derr := s.repo.Deactivate(ctx, code, now); derr != nil {
			s.logger.Error("failed to deactivate expired link",
				zap.String("code", code),
				zap.Error(derr),
			)
		}

		return nil, ErrExpired
	}

	if err := s.repo.RegisterClick(ctx, code, now); err != nil {
		return nil, fmt.Errorf("registering click: %w", err)
	}

	link.ClickCount++
	link.LastAccessedAt = &now
	link.UpdatedAt = now

	return link, nil
}

// Get returns a link by code regardless of its active state.
func (s *Service) Get(ctx context.Context, code string) (*ShortLink, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns a page of links. Page is clamped to at least 1 and
// limit to [1, MaxPageLimit]. Unless IncludeExpired is set, only active
// links whose expiry is absent or in the future are returned. Search
// matches case-insensitive substrings of the original URL or code.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]ShortLink, PageMeta, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}

	limit := opts.Limit
	if limit < 1 {
		limit = DefaultPageLimit
	}

	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	sortBy, ok := sortKeys[opts.SortBy]
	if !ok {
		sortBy = "createdAt"
	}

	links, total, err := s.repo.List(ctx, Query{
		Offset:         (page - 1) * limit,
		Limit:          limit,
		SortBy:         sortBy,
		SortAsc:        opts.SortOrder == "asc",
		IncludeExpired: opts.IncludeExpired,
		Search:         opts.Search,
		Now:            s.now(),
	})
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("listing links: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return links, PageMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
		Limit:       limit,
	}, nil
}

// Analytics returns the analytics projection for a code, independent of
// the link's active state.
func (s *Service) Analytics(ctx context.Context, code string) (*AnalyticsView, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()

	return &AnalyticsView{
		ShortCode:           link.ShortCode,
		OriginalURL:         link.OriginalURL,
		TotalClicks:         link.ClickCount,
		CreatedAt:           link.CreatedAt,
		LastAccessedAt:      link.LastAccessedAt,
		IsActive:            link.IsActive,
		IsExpired:           link.Expired(now),
		ExpiresAt:           link.ExpiresAt,
		DaysUntilExpiration: DaysUntilExpiration(link, now),
	}, nil
}

// CleanupExpired deactivates every active link whose expiry has passed
// and returns the number affected. Idempotent: a second run with no
// newly lapsed links returns 0.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("deactivating expired links: %w", err)
	}

	return count, nil
}

// SystemStats returns aggregate counters. The created-today window
// starts at local midnight.
func (s *Service) SystemStats(ctx context.Context) (Stats, error) {
	now := s.now()
	year, month, day := now.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	stats, err := s.repo.Stats(ctx, now, dayStart)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating stats: %w", err)
	}

	return stats, nil
}

// Delete removes a link permanently.
func (s *Service) Delete(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, code)
}

// DaysUntilExpiration returns the whole days remaining before the
// link's expiry, rounded up, or nil when the link never expires. The
// value can be zero or negative once the expiry has passed.
func DaysUntilExpiration(link *ShortLink, now time.Time) *int {
	if link.ExpiresAt == nil {
		return nil
	}

	days := int(math.Ceil(link.ExpiresAt.Sub(now).Hours() / 24))

	return &days
}
