// Package kafka publishes domain events to a Kafka topic
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/shared"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"go.uber.org/zap"
)

// Config configures the producer
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
	RetryMax int
}

// Envelope is the message value written for each event
type Envelope struct {
	Event       string          `json:"event"`
	AggregateID string          `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Payload     json.RawMessage `json:"payload"`
}

// Publisher implements outbound.EventPublisher with a synchronous producer
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

var _ outbound.EventPublisher = (*Publisher)(nil)

// NewSaramaConfig builds the producer configuration
func NewSaramaConfig(cfg Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = cfg.RetryMax
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Net.DialTimeout = 10 * time.Second
	saramaConfig.Net.ReadTimeout = 10 * time.Second
	saramaConfig.Net.WriteTimeout = 10 * time.Second
	return saramaConfig
}

// NewPublisher connects to the brokers
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	logger.Info("Kafka producer created", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return NewPublisherWithProducer(producer, cfg.Topic, logger), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{producer: producer, topic: topic, logger: logger.Named("kafka")}
}

// Publish writes the event keyed by its aggregate id so events for one plan stay ordered
func (p *Publisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.EventName(), err)
	}
	value, err := json.Marshal(Envelope{
		Event:       event.EventName(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt().UTC(),
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event.EventName(), err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.AggregateID()),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(event.EventName())},
		},
	})
	if err != nil {
		return fmt.Errorf("send %s to %s: %w", event.EventName(), p.topic, err)
	}

	p.logger.Debug("Event published",
		zap.String("event", event.EventName()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close flushes and closes the producer
func (p *Publisher) Close() error {
	return p.producer.Close()
}
