package domain

import "time"

// EventMessage is a parsed lifecycle event paired with its RabbitMQ delivery
// tag so the worker can ACK/NACK after processing.
type EventMessage struct {
	EventID     string
	Type        string
	JobID       string
	ActorID     string
	OccurredAt  time.Time
	DeliveryTag uint64
}

// JobEvent is an audit-trail row recorded for a lifecycle event.
type JobEvent struct {
	EventID    string    `db:"event_id"`
	EventType  string    `db:"event_type"`
	JobID      string    `db:"job_id"`
	ActorID    string    `db:"actor_id"`
	OccurredAt time.Time `db:"occurred_at"`
	RecordedAt time.Time `db:"recorded_at"`
}
