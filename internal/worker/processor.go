package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/snapcrew/capture-market/internal/worker/domain"
)

// processEvent records a lifecycle event in the audit trail. Database errors
// are wrapped as retryable so the delivery is requeued.
func (w *Worker) processEvent(ctx context.Context, msg *domain.EventMessage) error {
	w.logger.Debug("Processing event",
		slog.String("event_id", msg.EventID),
		slog.String("event_type", msg.Type),
		slog.String("job_id", msg.JobID),
	)

	event := &domain.JobEvent{
		EventID:    msg.EventID,
		EventType:  msg.Type,
		JobID:      msg.JobID,
		ActorID:    msg.ActorID,
		OccurredAt: msg.OccurredAt,
		RecordedAt: time.Now().UTC(),
	}

	inserted, err := w.storage.InsertJobEvent(ctx, event)
	if err != nil {
		return domain.NewRetryableError(err)
	}

	if !inserted {
		w.logger.Debug("Event already recorded, skipping",
			slog.String("event_id", msg.EventID),
		)
		return nil
	}

	w.logger.Info("Event recorded",
		slog.String("event_id", msg.EventID),
		slog.String("event_type", msg.Type),
		slog.String("job_id", msg.JobID),
	)

	return nil
}
