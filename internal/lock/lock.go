package lock

import (
	"context"
	"time"
)

// Locker provides per-key mutual exclusion. Reconciliation holds a lock
// for the order it is mutating so that two concurrent "approved"
// observations can never both pass the terminal-state guard.
type Locker interface {
	// Acquire returns true if the lock was taken, false if already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
