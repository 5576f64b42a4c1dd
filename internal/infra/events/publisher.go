// Package events publishes booking lifecycle events.
package events

import (
	"context"
	"log/slog"
	"time"

	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to one topic, keyed by booking id so that events of
// a booking stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.EventsConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.BookingTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish sends value with the event type carried in the "type" header.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(eventType)},
		},
	})
	if err != nil {
		return errs.Wrapf(err, "failed to publish %s", eventType)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, eventType, key string, _ []byte) error {
	slog.Debug("event dropped, no brokers configured", "type", eventType, "key", key)
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
