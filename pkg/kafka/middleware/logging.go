package kafka_middleware

import (
	"context"
	"time"

	"rentals/pkg/kafka"
	"rentals/pkg/logger"
)

// LoggingProducerMiddleware logs message publishing operations
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		l := logger.FromContext(ctx, log).With(
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
		)

		l.Debug("Publishing kafka message")

		err := next(ctx, msg)
		if err != nil {
			l.Error("Failed to publish kafka message", "duration", time.Since(start), "error", err)
			return err
		}

		l.Debug("Published kafka message", "duration", time.Since(start))
		return nil
	}
}
