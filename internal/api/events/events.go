// Package events defines the lifecycle events the API service publishes to
// the message bus and the publisher that emits them.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/snapcrew/capture-market/shared/rabbitmq"
)

// Lifecycle event types, used as topic routing keys.
const (
	TypeJobCreated    = "job.created"
	TypeJobClaimed    = "job.claimed"
	TypeJobProgressed = "job.progressed"
	TypeJobSubmitted  = "job.submitted"
	TypeJobApproved   = "job.approved"
	TypeJobCancelled  = "job.cancelled"
	TypeUploadCreated = "upload.created"
	TypeUploadDeleted = "upload.deleted"
)

// Event is the wire payload for one lifecycle event.
type Event struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	JobID      string    `json:"job_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits lifecycle events over RabbitMQ. Events are an audit/side
// channel: publish failures are logged and never fail the originating request.
type Publisher struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewPublisher creates an event publisher over an established client.
func NewPublisher(client *rabbitmq.Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish emits one event, routed by its type.
func (p *Publisher) Publish(ctx context.Context, eventType, jobID, actorID string) {
	evt := Event{
		EventID:    uuid.New().String(),
		Type:       eventType,
		JobID:      jobID,
		ActorID:    actorID,
		OccurredAt: time.Now(),
	}

	body, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("Failed to marshal lifecycle event",
			slog.String("type", eventType),
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		return
	}

	if err := p.client.PublishWithRetry(ctx, eventType, body, "application/json"); err != nil {
		p.logger.Error("Failed to publish lifecycle event",
			slog.String("type", eventType),
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
	}
}
