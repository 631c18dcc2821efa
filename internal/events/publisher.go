// Package events publishes occupancy changes after they are committed.
// Publishing is best effort: a failed publish is logged and never undoes
// the reservation that produced it.
package events

import (
	"context"

	"rentals/pkg/kafka"
	"rentals/pkg/logger"
	"rentals/pkg/model"
)

const (
	SchemaVersion = "1"
	Source        = "reservations"
)

type Publisher interface {
	Publish(ctx context.Context, event model.OccupancyEvent)
}

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer MessagePublisher
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessagePublisher, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event model.OccupancyEvent) {
	log := logger.FromContext(ctx, p.log)

	msg, err := kafka.NewMessage().
		WithKey(event.PropertyID).
		WithValue(event).
		WithEventID("").
		WithEventType(string(event.Type)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		log.Error("Failed to build occupancy event", "type", event.Type, "record_id", event.RecordID, "error", err)
		return
	}

	// The request may already be finishing; the event outlives it.
	if err := p.producer.Publish(context.WithoutCancel(ctx), msg); err != nil {
		log.Warn("Failed to publish occupancy event",
			"type", event.Type,
			"record_id", event.RecordID,
			"property_id", event.PropertyID,
			"error", err,
		)
	}
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, model.OccupancyEvent) {}
