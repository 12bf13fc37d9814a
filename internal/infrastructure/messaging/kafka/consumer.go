package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// Handler processes one feed event. Messages are committed whatever the
// handler returns; a poison message must not wedge the partition, and the
// store's identifier dedup makes reprocessing safe anyway.
type Handler func(ctx context.Context, event outbound.FeedEvent) error

// ConsumeStats counts the outcome of one consume run.
type ConsumeStats struct {
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// ErrDuplicate marks an event whose recipe already existed in the store.
// The consumer commits it and counts it separately from failures.
var ErrDuplicate = errors.New("event refers to an existing recipe")

// defaultFetchTimeout bounds one broker fetch. An empty topic returns the
// stats collected so far instead of blocking the whole activity.
const defaultFetchTimeout = 5 * time.Second

// messageSource is the slice of kafka.Reader the consumer needs.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads feed events from the bus within a consumer group.
type Consumer struct {
	reader       messageSource
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// NewConsumer creates a consumer group reader. Offsets are committed only
// after the handler returns, so a crash redelivers the in-flight message.
func NewConsumer(cfg *config.Config, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		GroupID:     cfg.Kafka.GroupID,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
	})
	return &Consumer{
		reader:       reader,
		fetchTimeout: defaultFetchTimeout,
		logger:       logger.Named("bus-consumer"),
	}
}

// ConsumeBatch reads up to maxMessages events and hands each to the handler.
// Every fetch carries its own deadline; when it expires with no pending
// messages the drain stops and returns the stats collected so far.
func (c *Consumer) ConsumeBatch(ctx context.Context, maxMessages int, handler Handler) (ConsumeStats, error) {
	stats := ConsumeStats{}
	for i := 0; i < maxMessages; i++ {
		fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return stats, nil
			}
			return stats, fmt.Errorf("failed to fetch message: %w", err)
		}

		var event outbound.FeedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			stats.Errors++
			c.logger.Warn("Discarding undecodable event",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return stats, fmt.Errorf("failed to commit message: %w", err)
			}
			continue
		}

		switch err := handler(ctx, event); {
		case err == nil:
			stats.Processed++
		case errors.Is(err, ErrDuplicate):
			stats.Duplicates++
		default:
			stats.Errors++
			c.logger.Warn("Event handling failed",
				zap.String("title", event.Title),
				zap.String("author", event.Author),
				zap.Error(err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return stats, fmt.Errorf("failed to commit message: %w", err)
		}
	}
	return stats, nil
}

// Close shuts down the reader and leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
