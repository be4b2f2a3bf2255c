package audit

import "context"

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher forwards audit events to an external pipeline.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
