package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alchemorsel/pipeline/internal/ports/outbound"
)

// fakeSource serves queued messages, then blocks until the fetch deadline.
type fakeSource struct {
	messages  []kafka.Message
	committed []int64
}

func (f *fakeSource) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.messages) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return msg, nil
}

func (f *fakeSource) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeSource) Close() error { return nil }

func eventMessage(t *testing.T, offset int64, event outbound.FeedEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte(event.Author), Value: value}
}

func newTestConsumer(src *fakeSource) *Consumer {
	return &Consumer{
		reader:       src,
		fetchTimeout: 20 * time.Millisecond,
		logger:       zap.NewNop(),
	}
}

func TestConsumeBatchStopsWhenTopicDrained(t *testing.T) {
	src := &fakeSource{messages: []kafka.Message{
		eventMessage(t, 0, outbound.FeedEvent{Title: "Miso Soup", Author: "cook_a"}),
		eventMessage(t, 1, outbound.FeedEvent{Title: "Beef Stew", Author: "cook_b"}),
	}}
	c := newTestConsumer(src)

	start := time.Now()
	stats, err := c.ConsumeBatch(context.Background(), 100, func(ctx context.Context, event outbound.FeedEvent) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, []int64{0, 1}, src.committed)
	// The third fetch hits its own deadline; the drain must not wait for
	// anything close to the activity timeout.
	assert.Less(t, time.Since(start), time.Second)
}

func TestConsumeBatchEmptyTopicReturnsImmediately(t *testing.T) {
	c := newTestConsumer(&fakeSource{})

	stats, err := c.ConsumeBatch(context.Background(), 10, func(ctx context.Context, event outbound.FeedEvent) error {
		t.Fatal("handler must not run on an empty topic")
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)
}

func TestConsumeBatchCommitsPoisonMessages(t *testing.T) {
	src := &fakeSource{messages: []kafka.Message{
		{Offset: 0, Value: []byte("{not json")},
		eventMessage(t, 1, outbound.FeedEvent{Title: "Dupe", Author: "cook_a"}),
		eventMessage(t, 2, outbound.FeedEvent{Title: "Broken", Author: "cook_b"}),
		eventMessage(t, 3, outbound.FeedEvent{Title: "Fine", Author: "cook_c"}),
	}}
	c := newTestConsumer(src)

	stats, err := c.ConsumeBatch(context.Background(), 4, func(ctx context.Context, event outbound.FeedEvent) error {
		switch event.Title {
		case "Dupe":
			return ErrDuplicate
		case "Broken":
			return errors.New("store unavailable")
		default:
			return nil
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 2, stats.Errors)
	// Every offset is committed so a poison message cannot wedge the
	// partition.
	assert.Equal(t, []int64{0, 1, 2, 3}, src.committed)
}

func TestConsumeBatchHonorsMaxMessages(t *testing.T) {
	src := &fakeSource{messages: []kafka.Message{
		eventMessage(t, 0, outbound.FeedEvent{Title: "One", Author: "a"}),
		eventMessage(t, 1, outbound.FeedEvent{Title: "Two", Author: "b"}),
		eventMessage(t, 2, outbound.FeedEvent{Title: "Three", Author: "c"}),
	}}
	c := newTestConsumer(src)

	stats, err := c.ConsumeBatch(context.Background(), 2, func(ctx context.Context, event outbound.FeedEvent) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Len(t, src.committed, 2)
}
