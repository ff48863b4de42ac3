package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/PulseTrack/internal/app/model"
	"go.uber.org/zap"
)

// EventConsumer drains the ingested-event stream and logs per-event
// telemetry. It is the attachment point for future downstream work (live
// feed push, cold archival).
type EventConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewEventConsumer creates a new event consumer.
func NewEventConsumer(js nats.JetStreamContext, logger *zap.Logger) *EventConsumer {
	return &EventConsumer{js: js, logger: logger}
}

// Start ensures the stream and durable consumer exist and begins consuming.
func (c *EventConsumer) Start() error {
	_, err := c.js.StreamInfo(model.EventStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.EventStreamName,
			Subjects: []string{model.EventStreamSubject},
			MaxBytes: model.EventStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.EventStreamName, model.EventConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.EventStreamName, &nats.ConsumerConfig{
			Durable:   model.EventConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.EventStreamSubject, model.EventConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *EventConsumer) consume(sub *nats.Subscription) {
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal event", zap.Error(err))
				msg.Nak()
				continue
			}

			c.logger.Debug("event ingested",
				zap.String("event_id", event.EventID),
				zap.String("event_name", event.EventName),
				zap.String("page_path", event.PagePath),
				zap.String("device", event.Device),
				zap.Bool("is_bot", event.IsBot),
			)

			msg.Ack()
		}
	}
}
