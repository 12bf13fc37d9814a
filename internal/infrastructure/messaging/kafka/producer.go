// Package kafka implements the feed event bus on Kafka. Events are keyed by
// author so one submitter's posts stay ordered within a partition; delivery
// is at-least-once and the store's dedup absorbs redelivery.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// Producer implements outbound.BusProducer.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates the event bus producer.
func NewProducer(cfg *config.Config, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{
		writer: writer,
		logger: logger.Named("bus-producer"),
	}
}

// Publish writes feed events to the bus, keyed by author.
func (p *Producer) Publish(ctx context.Context, events ...outbound.FeedEvent) error {
	if len(events) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to encode feed event: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.Author),
			Value: value,
		})
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to publish feed events: %w", err)
	}
	p.logger.Debug("Feed events published", zap.Int("count", len(messages)))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

var _ outbound.BusProducer = (*Producer)(nil)
