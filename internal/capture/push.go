package capture

import (
	"context"
	"image"
	"sync"
	"time"

	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/platform/sentinel"
)

// PushSource is a FrameSource fed from outside: the front-end answers the
// permission prompt with Decide and uploads frames with Push.
type PushSource struct {
	mu      sync.Mutex
	pending chan bool
	stream  *pushStream
	clock   func() time.Time
	opened  time.Time
}

// NewPushSource creates an idle push source.
func NewPushSource() *PushSource {
	return &PushSource{clock: time.Now}
}

// Open waits for a permission decision.
func (p *PushSource) Open(ctx context.Context) (Stream, error) {
	p.mu.Lock()
	if p.pending != nil || p.stream != nil {
		p.mu.Unlock()
		return nil, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "camera already in use")
	}
	decision := make(chan bool, 1)
	p.pending = decision
	p.mu.Unlock()

	select {
	case granted := <-decision:
		p.mu.Lock()
		defer p.mu.Unlock()
		p.pending = nil
		if !granted {
			return nil, dErrors.New(dErrors.CodePermissionDenied, "camera permission denied")
		}
		st := &pushStream{source: p, changed: make(chan struct{})}
		p.stream = st
		p.opened = p.clock()
		return st, nil
	case <-ctx.Done():
		p.mu.Lock()
		if p.pending == decision {
			p.pending = nil
		}
		p.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Decide answers the open permission prompt.
func (p *PushSource) Decide(granted bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeConflict, "no camera permission request is pending")
	}
	select {
	case p.pending <- granted:
		return nil
	default:
		return dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "camera permission already decided")
	}
}

// AwaitingPermission reports whether an Open is waiting for Decide.
func (p *PushSource) AwaitingPermission() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Held reports whether a session currently owns the stream.
func (p *PushSource) Held() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream != nil
}

// Push publishes a frame. Frames arriving while no session holds the camera
// are rejected. The timestamp is taken from the source's monotonic clock.
func (p *PushSource) Push(img image.Image) error {
	p.mu.Lock()
	st := p.stream
	ts := p.clock().Sub(p.opened)
	p.mu.Unlock()
	if st == nil {
		return dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeConflict, "camera is not streaming")
	}
	return st.publish(Frame{Image: img, Timestamp: ts})
}

func (p *PushSource) release(st *pushStream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == st {
		p.stream = nil
	}
}

// pushStream keeps only the latest frame; readers skip anything older.
type pushStream struct {
	source *PushSource

	mu      sync.Mutex
	frame   Frame
	seq     uint64
	seen    uint64
	changed chan struct{}
	closed  bool
}

func (s *pushStream) publish(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sentinel.ErrClosed
	}
	s.frame = f
	s.seq++
	close(s.changed)
	s.changed = make(chan struct{})
	return nil
}

func (s *pushStream) Next(ctx context.Context) (Frame, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return Frame{}, sentinel.ErrClosed
		}
		if s.seq > s.seen {
			s.seen = s.seq
			f := s.frame
			s.mu.Unlock()
			return f, nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		}
	}
}

func (s *pushStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.changed)
	s.mu.Unlock()
	s.source.release(s)
	return nil
}
