// Package lock provides short-lived mutual exclusion keyed by string.
//
// The submission pipeline takes a lock on the visitor's national-ID hash so
// two kiosks (or two taps on one kiosk) cannot enroll the same visitor at
// once. Memory works for a single kiosk; Redis extends it across a site.
package lock

import (
	"context"
	"time"
)

// Release gives the lock back. It is safe to call more than once.
type Release func(ctx context.Context) error

// Locker acquires a lock on key for at most ttl. A held lock fails with a
// sentinel.ErrConflict-wrapped error; it never blocks waiting for release.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}
