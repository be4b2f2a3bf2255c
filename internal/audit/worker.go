package audit

import (
	"context"
	"log/slog"
)

// Worker drains recorded events into the store and, when configured, the
// external publisher. Persistence failures are logged and skipped; an audit
// gap is preferable to back-pressuring evaluations.
type Worker struct {
	store     Store
	publisher Publisher
	inbox     <-chan Event
	logger    *slog.Logger
}

func NewWorker(store Store, publisher Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, publisher: publisher, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to append audit event",
					"event_id", event.ID,
					"error", err.Error(),
				)
			}
			if w.publisher != nil {
				if err := w.publisher.Publish(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "failed to publish audit event",
						"event_id", event.ID,
						"error", err.Error(),
					)
				}
			}
		}
	}
}
