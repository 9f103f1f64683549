package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"kiosk/pkg/platform/sentinel"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// Memory is an in-process Locker. Expired entries are reclaimed lazily on
// the next Acquire of the same key.
type Memory struct {
	mu    sync.Mutex
	held  map[string]entry
	clock func() time.Time
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]entry), clock: time.Now}
}

func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if e, ok := m.held[key]; ok && now.Before(e.expiresAt) {
		return nil, fmt.Errorf("lock %s held: %w", key, sentinel.ErrConflict)
	}
	token := uuid.NewString()
	m.held[key] = entry{token: token, expiresAt: now.Add(ttl)}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			// A lock that expired and was re-acquired belongs to someone else.
			if e, ok := m.held[key]; ok && e.token == token {
				delete(m.held, key)
			}
		})
		return nil
	}, nil
}
