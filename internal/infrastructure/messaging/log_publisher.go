// Package messaging publishes domain events outside the process
package messaging

import (
	"context"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/shared"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"go.uber.org/zap"
)

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

var _ outbound.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a new log publisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

// Publish logs the event
func (p *LogPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	p.logger.Info("Domain event",
		zap.String("event", event.EventName()),
		zap.String("aggregate_id", event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", event),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
