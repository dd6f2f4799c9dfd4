package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/snapcrew/capture-market/internal/worker/domain"
)

// setupConsumer sets up RabbitMQ consumer with QoS and returns delivery channel
func (w *Worker) setupConsumer(ctx context.Context) (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// prefetch_count bounds unacknowledged deliveries per consumer
	err := channel.Qos(
		w.prefetchCount, // prefetch count
		0,               // prefetch size
		false,           // global
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	w.logger.Info("RabbitMQ QoS configured",
		slog.Int("prefetch_count", w.prefetchCount),
	)

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.String("queue", w.queueName),
	)

	return deliveries, nil
}

// startMessageDispatcher listens to RabbitMQ deliveries and dispatches parsed
// events to the worker pool
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			msg, err := parseEventMessage(delivery)
			if err != nil {
				w.logger.Error("Failed to parse event message",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// NACK without requeue - malformed messages should go to DLQ
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case w.eventsChan <- msg:
				w.logger.Debug("Event dispatched to worker pool",
					slog.String("event_id", msg.EventID),
					slog.String("event_type", msg.Type),
					slog.Uint64("delivery_tag", msg.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching event")
				// NACK with requeue so the event can be reprocessed
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}

// parseEventMessage decodes a delivery body into an EventMessage
func parseEventMessage(delivery amqp.Delivery) (*domain.EventMessage, error) {
	var body struct {
		EventID    string    `json:"event_id"`
		Type       string    `json:"type"`
		JobID      string    `json:"job_id"`
		ActorID    string    `json:"actor_id"`
		OccurredAt time.Time `json:"occurred_at"`
	}

	if err := json.Unmarshal(delivery.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}

	if _, err := uuid.Parse(body.EventID); err != nil {
		return nil, fmt.Errorf("%w: invalid event_id %q", domain.ErrMalformedEvent, body.EventID)
	}

	if _, err := uuid.Parse(body.JobID); err != nil {
		return nil, fmt.Errorf("%w: invalid job_id %q", domain.ErrMalformedEvent, body.JobID)
	}

	if body.Type == "" {
		return nil, fmt.Errorf("%w: missing type", domain.ErrMalformedEvent)
	}

	return &domain.EventMessage{
		EventID:     body.EventID,
		Type:        body.Type,
		JobID:       body.JobID,
		ActorID:     body.ActorID,
		OccurredAt:  body.OccurredAt,
		DeliveryTag: delivery.DeliveryTag,
	}, nil
}
