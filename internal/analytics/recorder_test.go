package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/shortlink-go/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureStore struct {
	created  []*analytics.LinkCreatedEvent
	accessed []*analytics.LinkAccessedEvent
	err      error
}

func (s *captureStore) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	if s.err != nil {
		return s.err
	}

	s.created = append(s.created, event)

	return nil
}

func (s *captureStore) SaveLinkAccessed(_ context.Context, event *analytics.LinkAccessedEvent) error {
	if s.err != nil {
		return s.err
	}

	s.accessed = append(s.accessed, event)

	return nil
}

func TestRecorder_HandleLinkCreated(t *testing.T) {
	t.Run("persists the event", func(t *testing.T) {
		store := &captureStore{}
		recorder := analytics.NewRecorder(store, zap.NewNop())

		event := &analytics.LinkCreatedEvent{
			Code:        "abc123",
			OriginalURL: "https://example.com",
			CreatedAt:   time.Now(),
		}

		err := recorder.HandleLinkCreated(context.Background(), event)

		require.NoError(t, err)
		require.Len(t, store.created, 1)
		assert.Equal(t, "abc123", store.created[0].Code)
	})

	t.Run("returns store errors so the message is nacked", func(t *testing.T) {
		storeErr := errors.New("redis down")
		recorder := analytics.NewRecorder(&captureStore{err: storeErr}, zap.NewNop())

		err := recorder.HandleLinkCreated(context.Background(), &analytics.LinkCreatedEvent{Code: "abc123"})

		assert.ErrorIs(t, err, storeErr)
	})
}

func TestRecorder_HandleLinkAccessed(t *testing.T) {
	t.Run("persists the event", func(t *testing.T) {
		store := &captureStore{}
		recorder := analytics.NewRecorder(store, zap.NewNop())

		event := &analytics.LinkAccessedEvent{
			Code:       "abc123",
			AccessedAt: time.Now(),
			ClientIP:   "203.0.113.9",
		}

		err := recorder.HandleLinkAccessed(context.Background(), event)

		require.NoError(t, err)
		require.Len(t, store.accessed, 1)
		assert.Equal(t, "203.0.113.9", store.accessed[0].ClientIP)
	})
}

func TestNoopStore(t *testing.T) {
	t.Run("accepts everything silently", func(t *testing.T) {
		store := analytics.NewNoopStore()

		assert.NoError(t, store.SaveLinkCreated(context.Background(), &analytics.LinkCreatedEvent{}))
		assert.NoError(t, store.SaveLinkAccessed(context.Background(), &analytics.LinkAccessedEvent{}))
	})
}
