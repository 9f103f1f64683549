// Package audit records the kiosk's audit trail.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"kiosk/pkg/platform/sentinel"
)

// Publisher captures structured audit events. It is append-only. In async
// mode events go through a buffered channel drained by a Worker; Close
// drains what is buffered.
type Publisher struct {
	store  Store
	logger *slog.Logger
	buffer int

	mu      sync.RWMutex
	closed  bool
	inbox   chan Event
	done    chan struct{}
	dropped atomic.Int64
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches to async mode with a buffer of n events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.inbox = make(chan Event, p.buffer)
		p.done = make(chan struct{})
		w := NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records an event. In async mode a full buffer drops the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return sentinel.ErrClosed
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit buffer full, event dropped", "action", string(event.Action))
	}
	return nil
}

// List returns the events of one visitor record.
func (p *Publisher) List(ctx context.Context, recordID string) ([]Event, error) {
	return p.store.ListByRecord(ctx, recordID)
}

// Recent returns the newest events first, optionally only those with the
// given actions.
func (p *Publisher) Recent(ctx context.Context, limit int, actions ...AuditEvent) ([]Event, error) {
	return p.store.ListRecent(ctx, limit, actions...)
}

// Dropped returns how many events were dropped because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting events and, in async mode, waits for the buffer to
// drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
}
