package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// MessageHandler applies one record value. Errors are retried per the
// consumer's backoff before the record is skipped.
type MessageHandler interface {
	Handle(ctx context.Context, payload []byte) error
}

type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	Backoff []time.Duration
	Logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, handler MessageHandler) (*Consumer, error) {
	if handler == nil {
		return nil, errors.New("kafka: consumer handler required")
	}
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: consumer group: %w", err)
	}
	return &Consumer{group: g, handler: handler}, nil
}

// Run consumes topics until ctx is cancelled, rejoining after rebalances.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	h := groupHandler{handler: c.handler, backoff: c.Backoff, logger: c.Logger}
	for {
		if err := c.group.Consume(ctx, topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler MessageHandler
	backoff []time.Duration
	logger  *slog.Logger
}

func (h groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.apply(sess.Context(), message); err != nil {
			if sess.Context().Err() != nil {
				return nil
			}
			if h.logger != nil {
				h.logger.Error("kafka message dropped",
					"topic", message.Topic,
					"partition", message.Partition,
					"offset", message.Offset,
					"error", err,
				)
			}
		}
		sess.MarkMessage(message, "")
	}
	return nil
}

func (h groupHandler) apply(ctx context.Context, message *sarama.ConsumerMessage) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = h.handler.Handle(ctx, message.Value); err == nil {
			return nil
		}
		if attempt >= len(h.backoff) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.backoff[attempt]):
		}
	}
}
