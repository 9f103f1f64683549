package capture

import (
	"context"
	"sync"

	"kiosk/internal/raster"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/platform/sentinel"
)

// Manager enforces a single active capture session across the kiosk.
type Manager struct {
	source   FrameSource
	detector Detector
	opts     []Option

	mu     sync.Mutex
	active *Session
}

// NewManager creates a manager; opts are applied to every new session.
func NewManager(source FrameSource, det Detector, opts ...Option) *Manager {
	return &Manager{source: source, detector: det, opts: opts}
}

// Begin starts a new camera session. It fails with CodeConflict while
// another session is still running.
func (m *Manager) Begin(ctx context.Context, extra ...Option) (*Session, error) {
	s, err := m.claim(extra)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Still runs the still-image path on a fresh session.
func (m *Manager) Still(ctx context.Context, data []byte, extra ...Option) (raster.Blob, error) {
	s, err := m.claim(extra)
	if err != nil {
		return raster.Blob{}, err
	}
	blob, err := s.ProcessStill(ctx, data)
	if err != nil {
		// The session never left Idle; drop it so a retry is possible.
		m.mu.Lock()
		if m.active == s {
			m.active = nil
		}
		m.mu.Unlock()
		return raster.Blob{}, err
	}
	return blob, nil
}

func (m *Manager) claim(extra []Option) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && !m.active.Phase().Terminal() {
		return nil, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "a capture session is already active")
	}
	opts := append(append([]Option{}, m.opts...), extra...)
	m.active = NewSession(m.source, m.detector, opts...)
	return m.active, nil
}

// Active returns the current session, if any.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Cancel stops the active session, if any.
func (m *Manager) Cancel() {
	if s := m.Active(); s != nil {
		s.Cancel()
	}
}

// Teardown cancels the active session and forgets it. Used when the user
// navigates away.
func (m *Manager) Teardown() {
	m.mu.Lock()
	s := m.active
	m.active = nil
	m.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}
