package audit

import "context"

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRecord(ctx context.Context, recordID string) ([]Event, error)
	// ListRecent returns the newest events first, restricted to actions
	// when any are given. A non-positive limit returns everything.
	ListRecent(ctx context.Context, limit int, actions ...AuditEvent) ([]Event, error)
}
