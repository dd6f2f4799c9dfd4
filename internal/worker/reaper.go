package worker

import (
	"context"
	"log/slog"
	"time"
)

// runTokenReaper periodically deletes unconsumed claim tokens that expired
// more than the retention window ago. Tokens expire lazily at check time, so
// the sweep is housekeeping rather than correctness.
func (w *Worker) runTokenReaper(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.reaperInterval)
	defer ticker.Stop()

	w.logger.Info("Token reaper started",
		slog.Duration("interval", w.reaperInterval),
		slog.Duration("retention", w.tokenRetention),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Token reaper stopped - stopChan closed")
			return

		case <-ctx.Done():
			w.logger.Info("Token reaper stopped - context canceled")
			return

		case <-ticker.C:
			deleted, err := w.storage.DeleteExpiredTokens(ctx, w.tokenRetention)
			if err != nil {
				w.logger.Error("Token reaper sweep failed",
					slog.String("error", err.Error()),
				)
				continue
			}

			if deleted > 0 {
				w.logger.Info("Expired tokens reaped",
					slog.Int64("deleted", deleted),
				)
			}
		}
	}
}
