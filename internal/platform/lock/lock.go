// Package lock provides TTL-guarded mutual exclusion for fixture analysis.
// Leases carry a fencing token so a holder can only release or extend its own
// lease, never one that expired and was re-acquired by another worker.
package lock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrLockUnavailable is returned when the resource is held by someone
	// else and the retry budget is exhausted.
	ErrLockUnavailable = errors.New("lock unavailable")

	// ErrLeaseLost is returned by Release and Extend when the lease expired
	// or the resource is now held under a different token.
	ErrLeaseLost = errors.New("lock lease lost")
)

// Manager acquires leases on named resources.
type Manager interface {
	// Acquire takes the lock on resource for roughly ttl. When the lock is
	// held it retries a bounded number of times before returning
	// ErrLockUnavailable.
	Acquire(ctx context.Context, resource string, ttl time.Duration) (Lease, error)

	// ForceRelease removes the lock regardless of holder. Operator use only.
	ForceRelease(ctx context.Context, resource string) error
}

// Lease is a held lock.
type Lease interface {
	Resource() string
	Token() string
	Release(ctx context.Context) error
	Extend(ctx context.Context, ttl time.Duration) error
}

// RetryPolicy bounds how long Acquire waits for a contended lock.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Backoff:  200 * time.Millisecond,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	defaults := DefaultRetryPolicy()
	if p.Attempts < 1 {
		p.Attempts = defaults.Attempts
	}
	if p.Backoff <= 0 {
		p.Backoff = defaults.Backoff
	}
	return p
}
