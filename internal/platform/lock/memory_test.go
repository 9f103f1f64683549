package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/pkg/platform/sentinel"
)

func TestMemory_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	release, err := m.Acquire(ctx, "visitor", time.Minute)
	require.NoError(t, err)

	_, err = m.Acquire(ctx, "visitor", time.Minute)
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	_, err = m.Acquire(ctx, "other", time.Minute)
	assert.NoError(t, err, "keys are independent")

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "release is idempotent")

	_, err = m.Acquire(ctx, "visitor", time.Minute)
	assert.NoError(t, err)
}

func TestMemory_ExpiredLockIsReclaimed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.clock = func() time.Time { return now }

	staleRelease, err := m.Acquire(ctx, "visitor", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = m.Acquire(ctx, "visitor", time.Minute)
	require.NoError(t, err)

	// The stale holder must not free the new holder's lock.
	require.NoError(t, staleRelease(ctx))
	_, err = m.Acquire(ctx, "visitor", time.Minute)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestMemory_ConcurrentAcquireSingleWinner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Acquire(ctx, "visitor", time.Minute); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
