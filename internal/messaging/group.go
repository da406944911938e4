package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a consumer the group can manage.
type Runnable interface {
	Topic() string
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup starts and stops a set of consumers as one unit and
// owns the shared subscriber.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates an empty group over a shared subscriber.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Start starts every consumer. If one fails, the already-started
// consumers are shut down again and the group is left stopped.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("starting consumer for %s: %w", consumer.Topic(), err)
		}
	}

	topics := make([]string, 0, len(g.consumers))
	for _, consumer := range g.consumers {
		topics = append(topics, consumer.Topic())
	}

	g.logger.Info("consumer group started", zap.Strings("topics", topics))

	return nil
}

// Shutdown stops every consumer and closes the subscriber, collecting
// all errors.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	var errs []error

	for _, consumer := range g.consumers {
		if err := consumer.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stopping consumer for %s: %w", consumer.Topic(), err))
		}
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
