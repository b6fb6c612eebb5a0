package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates access to a document across several editor
// processes (e.g. replicas of the HTTP server sharing one Redis).
type DistributedLocker interface {
	// Lock acquires the lock for key, typically a document ID. It blocks until
	// the lock is acquired or ctx is done. The lock expires after ttl even if
	// it is never released.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
