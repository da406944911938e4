package analytics

import "context"

// Store persists usage events.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	SaveLinkAccessed(ctx context.Context, event *LinkAccessedEvent) error
}

// NoopStore discards events. It serves as an analytics sink where no
// backend is wanted, such as tests.
type NoopStore struct{}

// NewNoopStore creates a store that drops everything.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) SaveLinkCreated(_ context.Context, _ *LinkCreatedEvent) error {
	return nil
}

func (s *NoopStore) SaveLinkAccessed(_ context.Context, _ *LinkAccessedEvent) error {
	return nil
}
