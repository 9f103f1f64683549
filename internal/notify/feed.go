package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// EventType distinguishes notifications from navigation requests.
type EventType string

const (
	EventNotification EventType = "notification"
	EventNavigateHome EventType = "navigate_home"
)

// Event is one entry in the feed.
type Event struct {
	Seq     uint64    `json:"seq"`
	Type    EventType `json:"type"`
	Kind    Kind      `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Feed buffers events until the front-end drains them. It implements both
// Sink and Navigator.
type Feed struct {
	buf   *RingBuffer
	seq   atomic.Uint64
	clock func() time.Time

	mu     sync.Mutex
	signal chan struct{}
}

// NewFeed creates a feed holding at most capacity undrained events.
func NewFeed(capacity int) *Feed {
	return &Feed{
		buf:    NewRingBuffer(capacity),
		clock:  time.Now,
		signal: make(chan struct{}),
	}
}

func (f *Feed) Notify(kind Kind, message string) {
	f.push(Event{Type: EventNotification, Kind: kind, Message: message})
}

func (f *Feed) NavigateHome() {
	f.push(Event{Type: EventNavigateHome})
}

func (f *Feed) push(e Event) {
	e.Seq = f.seq.Add(1)
	e.At = f.clock()
	f.buf.Enqueue(e)

	f.mu.Lock()
	close(f.signal)
	f.signal = make(chan struct{})
	f.mu.Unlock()
}

// Drain removes up to n events (all when n <= 0).
func (f *Feed) Drain(n int) []Event {
	return f.buf.DequeueBatch(n)
}

// Wait blocks until at least one event is buffered or ctx ends, then
// drains up to n events.
func (f *Feed) Wait(ctx context.Context, n int) ([]Event, error) {
	for {
		f.mu.Lock()
		ch := f.signal
		f.mu.Unlock()

		if events := f.Drain(n); len(events) > 0 {
			return events, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Pending returns the number of undrained events.
func (f *Feed) Pending() int {
	return f.buf.Len()
}

// Dropped returns how many events were overwritten before being drained.
func (f *Feed) Dropped() int64 {
	return f.buf.Dropped()
}
