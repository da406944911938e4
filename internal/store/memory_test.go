package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shortlink-go/internal/shortlink"
	"github.com/serroba/shortlink-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(code, url string, active bool) *shortlink.ShortLink {
	now := time.Now()

	return &shortlink.ShortLink{
		OriginalURL: url,
		ShortCode:   code,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMemoryStore_Create(t *testing.T) {
	t.Run("persists a link and assigns an id", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink("abc123", "https://example.com", true)

		err := s.Create(context.Background(), link)

		require.NoError(t, err)
		assert.NotEmpty(t, link.ID)
	})

	t.Run("rejects duplicate codes regardless of active state", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", false)))

		err := s.Create(context.Background(), newLink("abc123", "https://other.com", true))

		assert.ErrorIs(t, err, shortlink.ErrCodeTaken)
	})
}

func TestMemoryStore_GetByCode(t *testing.T) {
	t.Run("returns links regardless of active state", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", false)))

		link, err := s.GetByCode(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", link.OriginalURL)
		assert.False(t, link.IsActive)
	})

	t.Run("returns ErrNotFound for unknown codes", func(t *testing.T) {
		s := store.NewMemoryStore()

		_, err := s.GetByCode(context.Background(), "nosuch")

		assert.ErrorIs(t, err, shortlink.ErrNotFound)
	})

	t.Run("returned link is a copy", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", true)))

		link, err := s.GetByCode(context.Background(), "abc123")
		require.NoError(t, err)

		link.ClickCount = 99

		again, err := s.GetByCode(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Zero(t, again.ClickCount)
	})
}

func TestMemoryStore_FindActiveByURL(t *testing.T) {
	t.Run("skips inactive links", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", false)))

		_, err := s.FindActiveByURL(context.Background(), "https://example.com")

		assert.ErrorIs(t, err, shortlink.ErrNotFound)
	})

	t.Run("finds the active link for a URL", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", true)))

		link, err := s.FindActiveByURL(context.Background(), "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, "abc123", link.ShortCode)
	})

	t.Run("prefers the newest among active siblings", func(t *testing.T) {
		s := store.NewMemoryStore()
		now := time.Now()

		// Expired records stay active until the sweep retires them, so
		// a URL can briefly have several active siblings.
		for i, code := range []string{"old001", "old002", "old003", "old004"} {
			link := newLink(code, "https://example.com", true)
			link.CreatedAt = now.Add(-time.Duration(i+1) * time.Hour)
			expires := link.CreatedAt.Add(time.Minute)
			link.ExpiresAt = &expires
			require.NoError(t, s.Create(context.Background(), link))
		}

		fresh := newLink("fresh1", "https://example.com", true)
		fresh.CreatedAt = now
		require.NoError(t, s.Create(context.Background(), fresh))

		// Repeat so randomized map iteration cannot mask a wrong pick.
		for i := 0; i < 20; i++ {
			link, err := s.FindActiveByURL(context.Background(), "https://example.com")

			require.NoError(t, err)
			assert.Equal(t, "fresh1", link.ShortCode)
		}
	})
}

func TestMemoryStore_RegisterClick(t *testing.T) {
	t.Run("increments count and stamps last accessed", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", true)))

		at := time.Now()
		require.NoError(t, s.RegisterClick(context.Background(), "abc123", at))

		link, err := s.GetByCode(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), link.ClickCount)
		require.NotNil(t, link.LastAccessedAt)
		assert.True(t, link.LastAccessedAt.Equal(at))
	})

	t.Run("rejects inactive links", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", false)))

		err := s.RegisterClick(context.Background(), "abc123", time.Now())

		assert.ErrorIs(t, err, shortlink.ErrNotFound)
	})

	t.Run("concurrent clicks are all counted", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", true)))

		const clicks = 50

		var wg sync.WaitGroup
		wg.Add(clicks)

		for i := 0; i < clicks; i++ {
			go func() {
				defer wg.Done()
				_ = s.RegisterClick(context.Background(), "abc123", time.Now())
			}()
		}

		wg.Wait()

		link, err := s.GetByCode(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(clicks), link.ClickCount)
	})
}

func TestMemoryStore_DeactivateExpired(t *testing.T) {
	t.Run("deactivates only active links past their expiry", func(t *testing.T) {
		s := store.NewMemoryStore()
		now := time.Now()

		expired := newLink("old123", "https://example.com/a", true)
		past := now.Add(-time.Hour)
		expired.ExpiresAt = &past
		require.NoError(t, s.Create(context.Background(), expired))

		fresh := newLink("new123", "https://example.com/b", true)
		future := now.Add(time.Hour)
		fresh.ExpiresAt = &future
		require.NoError(t, s.Create(context.Background(), fresh))

		forever := newLink("keep12", "https://example.com/c", true)
		require.NoError(t, s.Create(context.Background(), forever))

		count, err := s.DeactivateExpired(context.Background(), now)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		link, _ := s.GetByCode(context.Background(), "old123")
		assert.False(t, link.IsActive)

		link, _ = s.GetByCode(context.Background(), "new123")
		assert.True(t, link.IsActive)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Run("removes the record", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), newLink("abc123", "https://example.com", true)))

		require.NoError(t, s.Delete(context.Background(), "abc123"))

		_, err := s.GetByCode(context.Background(), "abc123")
		assert.ErrorIs(t, err, shortlink.ErrNotFound)
	})

	t.Run("returns ErrNotFound for unknown codes", func(t *testing.T) {
		s := store.NewMemoryStore()

		err := s.Delete(context.Background(), "nosuch")

		assert.ErrorIs(t, err, shortlink.ErrNotFound)
	})
}

func TestMemoryStore_List(t *testing.T) {
	seed := func(t *testing.T) *store.MemoryStore {
		t.Helper()

		s := store.NewMemoryStore()
		base := time.Now().Add(-time.Hour)

		for i, code := range []string{"aaa111", "bbb222", "ccc333"} {
			link := newLink(code, "https://example.com/"+code, true)
			link.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			link.UpdatedAt = link.CreatedAt
			link.ClickCount = int64(i)
			require.NoError(t, s.Create(context.Background(), link))
		}

		return s
	}

	t.Run("sorts and paginates", func(t *testing.T) {
		s := seed(t)

		links, total, err := s.List(context.Background(), shortlink.Query{
			Limit:  2,
			SortBy: "createdAt",
			Now:    time.Now(),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, links, 2)
		assert.Equal(t, "ccc333", links[0].ShortCode)
		assert.Equal(t, "bbb222", links[1].ShortCode)
	})

	t.Run("ascending sort by clicks", func(t *testing.T) {
		s := seed(t)

		links, _, err := s.List(context.Background(), shortlink.Query{
			Limit:   3,
			SortBy:  "clicks",
			SortAsc: true,
			Now:     time.Now(),
		})

		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, "aaa111", links[0].ShortCode)
		assert.Equal(t, "ccc333", links[2].ShortCode)
	})

	t.Run("offset past the end returns an empty page", func(t *testing.T) {
		s := seed(t)

		links, total, err := s.List(context.Background(), shortlink.Query{
			Offset: 10,
			Limit:  2,
			Now:    time.Now(),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Empty(t, links)
	})

	t.Run("search filters on code substring", func(t *testing.T) {
		s := seed(t)

		links, total, err := s.List(context.Background(), shortlink.Query{
			Limit:  10,
			Search: "BBB",
			Now:    time.Now(),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, links, 1)
		assert.Equal(t, "bbb222", links[0].ShortCode)
	})
}

func TestMemoryStore_Stats(t *testing.T) {
	t.Run("counts by lifecycle state", func(t *testing.T) {
		s := store.NewMemoryStore()
		now := time.Now()
		dayStart := now.Add(-12 * time.Hour)

		active := newLink("active", "https://example.com/a", true)
		active.ClickCount = 5
		require.NoError(t, s.Create(context.Background(), active))

		lapsed := newLink("lapsed", "https://example.com/b", false)
		past := now.Add(-time.Hour)
		lapsed.ExpiresAt = &past
		lapsed.CreatedAt = now.Add(-48 * time.Hour)
		require.NoError(t, s.Create(context.Background(), lapsed))

		disabled := newLink("damned", "https://example.com/c", false)
		disabled.CreatedAt = now.Add(-48 * time.Hour)
		require.NoError(t, s.Create(context.Background(), disabled))

		stats, err := s.Stats(context.Background(), now, dayStart)

		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalLinks)
		assert.Equal(t, int64(1), stats.ActiveLinks)
		assert.Equal(t, int64(1), stats.ExpiredLinks)
		assert.Equal(t, int64(5), stats.TotalClicks)
		assert.Equal(t, int64(1), stats.CreatedToday)
	})
}
