package service

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/PulseTrack/internal/app/model"
)

// EventPublisher fans accepted events out to NATS JetStream for downstream
// consumers (live feeds, archival).
type EventPublisher struct {
	js nats.JetStreamContext
}

// NewEventPublisher creates a new event publisher.
func NewEventPublisher(js nats.JetStreamContext) *EventPublisher {
	return &EventPublisher{js: js}
}

// Publish sends one stored event to the stream.
func (p *EventPublisher) Publish(event *model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.EventStreamSubject, data)
	return err
}
