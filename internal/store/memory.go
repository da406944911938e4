package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlink-go/internal/shortlink"
)

// MemoryStore is an in-memory implementation of shortlink.Repository.
// It backs tests and dependency-free local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]*shortlink.ShortLink // code -> record
}

// NewMemoryStore creates an empty in-memory repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[string]*shortlink.ShortLink),
	}
}

func (m *MemoryStore) Create(_ context.Context, link *shortlink.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.ShortCode]; ok {
		return shortlink.ErrCodeTaken
	}

	if link.ID == "" {
		link.ID = uuid.NewString()
	}

	m.links[link.ShortCode] = cloneLink(link)

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code string) (*shortlink.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[code]
	if !ok {
		return nil, shortlink.ErrNotFound
	}

	return cloneLink(link), nil
}

func (m *MemoryStore) FindActiveByURL(_ context.Context, originalURL string) (*shortlink.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Prefer the newest active record. An expired record can still be
	// active next to a fresh one until the sweep retires it, and map
	// iteration order must not decide which of the two wins.
	var newest *shortlink.ShortLink

	for _, link := range m.links {
		if !link.IsActive || link.OriginalURL != originalURL {
			continue
		}

		if newest == nil || link.CreatedAt.After(newest.CreatedAt) {
			newest = link
		}
	}

	if newest == nil {
		return nil, shortlink.ErrNotFound
	}

	return cloneLink(newest), nil
}

func (m *MemoryStore) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.links[code]

	return ok, nil
}

func (m *MemoryStore) RegisterClick(_ context.Context, code string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok || !link.IsActive {
		return shortlink.ErrNotFound
	}

	link.ClickCount++
	accessed := at
	link.LastAccessedAt = &accessed
	link.UpdatedAt = at

	return nil
}

func (m *MemoryStore) Deactivate(_ context.Context, code string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return shortlink.ErrNotFound
	}

	link.IsActive = false
	link.UpdatedAt = at

	return nil
}

func (m *MemoryStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64

	for _, link := range m.links {
		if link.IsActive && link.ExpiresAt != nil && link.ExpiresAt.Before(now) {
			link.IsActive = false
			link.UpdatedAt = now
			count++
		}
	}

	return count, nil
}

func (m *MemoryStore) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[code]; !ok {
		return shortlink.ErrNotFound
	}

	delete(m.links, code)

	return nil
}

func (m *MemoryStore) List(_ context.Context, q shortlink.Query) ([]shortlink.ShortLink, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*shortlink.ShortLink, 0, len(m.links))
	search := strings.ToLower(q.Search)

	for _, link := range m.links {
		if !q.IncludeExpired && (!link.IsActive || link.Expired(q.Now)) {
			continue
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(link.OriginalURL), search) &&
			!strings.Contains(strings.ToLower(link.ShortCode), search) {
			continue
		}

		matched = append(matched, link)
	}

	sortLinks(matched, q.SortBy, q.SortAsc)

	total := int64(len(matched))

	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}

	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]shortlink.ShortLink, 0, end-start)
	for _, link := range matched[start:end] {
		page = append(page, *cloneLink(link))
	}

	return page, total, nil
}

func (m *MemoryStore) Stats(_ context.Context, now, dayStart time.Time) (shortlink.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats shortlink.Stats

	for _, link := range m.links {
		stats.TotalLinks++
		stats.TotalClicks += link.ClickCount

		if link.IsActive {
			stats.ActiveLinks++
		} else if link.ExpiresAt != nil && link.ExpiresAt.Before(now) {
			stats.ExpiredLinks++
		}

		if !link.CreatedAt.Before(dayStart) {
			stats.CreatedToday++
		}
	}

	return stats, nil
}

func sortLinks(links []*shortlink.ShortLink, sortBy string, asc bool) {
	sort.SliceStable(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if !asc {
			a, b = b, a
		}

		switch sortBy {
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "clicks":
			return a.ClickCount < b.ClickCount
		case "lastAccessedAt":
			return timePtrBefore(a.LastAccessedAt, b.LastAccessedAt)
		case "expiresAt":
			return timePtrBefore(a.ExpiresAt, b.ExpiresAt)
		case "originalUrl":
			return a.OriginalURL < b.OriginalURL
		case "shortCode":
			return a.ShortCode < b.ShortCode
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

// timePtrBefore orders nil timestamps first.
func timePtrBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}

func cloneLink(link *shortlink.ShortLink) *shortlink.ShortLink {
	c := *link

	if link.ExpiresAt != nil {
		t := *link.ExpiresAt
		c.ExpiresAt = &t
	}

	if link.LastAccessedAt != nil {
		t := *link.LastAccessedAt
		c.LastAccessedAt = &t
	}

	if link.Tags != nil {
		c.Tags = append([]string(nil), link.Tags...)
	}

	return &c
}

// Compile-time check.
var _ shortlink.Repository = (*MemoryStore)(nil)
