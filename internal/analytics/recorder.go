package analytics

import (
	"context"

	"go.uber.org/zap"
)

// Recorder turns usage events into store writes. Its methods satisfy
// messaging.Handler and are wired to consumers in the worker binary.
type Recorder struct {
	store  Store
	logger *zap.Logger
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
	}
}

// HandleLinkCreated persists a link creation event.
func (r *Recorder) HandleLinkCreated(ctx context.Context, event *LinkCreatedEvent) error {
	if err := r.store.SaveLinkCreated(ctx, event); err != nil {
		return err
	}

	r.logger.Debug("recorded link created", zap.String("code", event.Code))

	return nil
}

// HandleLinkAccessed persists a redirect traversal event.
func (r *Recorder) HandleLinkAccessed(ctx context.Context, event *LinkAccessedEvent) error {
	if err := r.store.SaveLinkAccessed(ctx, event); err != nil {
		return err
	}

	r.logger.Debug("recorded link accessed", zap.String("code", event.Code))

	return nil
}
