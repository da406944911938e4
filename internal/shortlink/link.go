package shortlink

import (
	"context"
	"time"
)

// ShortLink is a shortened URL record with its full lifecycle state.
type ShortLink struct {
	ID             string
	OriginalURL    string
	ShortCode      string
	ClickCount     int64
	IsActive       bool
	ExpiresAt      *time.Time // nil means the link never expires
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt *time.Time
	Tags           []string
}

// Expired reports whether the link's expiry has passed at the given time.
// Links without an expiry never expire.
func (l *ShortLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// Query describes a filtered, sorted page of links.
// SortBy holds a key already validated by the service; implementations
// map it to their own column or field names.
type Query struct {
	Offset         int
	Limit          int
	SortBy         string
	SortAsc        bool
	IncludeExpired bool
	Search         string
	Now            time.Time
}

// Stats holds aggregate counters over all links.
type Stats struct {
	TotalLinks   int64
	ActiveLinks  int64
	ExpiredLinks int64
	TotalClicks  int64
	CreatedToday int64
}

// Repository defines the persistence contract the lifecycle service
// depends on. Implementations must keep short codes unique across all
// records, active or not, and must apply click increments atomically.
type Repository interface {
	// Create persists a new link. Returns ErrCodeTaken if the short
	// code is already in use by any record.
	Create(ctx context.Context, link *ShortLink) error

	// GetByCode returns a link regardless of its active state.
	// Returns ErrNotFound if no record exists.
	GetByCode(ctx context.Context, code string) (*ShortLink, error)

	// FindActiveByURL returns an active link for the given original URL.
	// Returns ErrNotFound if none exists.
	FindActiveByURL(ctx context.Context, originalURL string) (*ShortLink, error)

	// CodeExists reports whether any record, active or not, uses the code.
	CodeExists(ctx context.Context, code string) (bool, error)

	// RegisterClick atomically increments the click count and sets the
	// last accessed time on an active link. Returns ErrNotFound if the
	// code does not resolve to an active record.
	RegisterClick(ctx context.Context, code string, at time.Time) error

	// Deactivate marks a link inactive. The transition is terminal.
	Deactivate(ctx context.Context, code string, at time.Time) error

	// DeactivateExpired marks every active link whose expiry has passed
	// as inactive and returns the number of records affected.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)

	// Delete removes a record permanently. Returns ErrNotFound if no
	// record matches the code.
	Delete(ctx context.Context, code string) error

	// List returns a page of links matching the query along with the
	// total number of matching records.
	List(ctx context.Context, q Query) ([]ShortLink, int64, error)

	// Stats returns aggregate counters. dayStart is the local midnight
	// used for the created-today count.
	Stats(ctx context.Context, now, dayStart time.Time) (Stats, error)
}
