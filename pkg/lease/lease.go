// Package lease provides short-lived exclusive locks used to keep concurrent
// sweeps from double-processing the same tenant rule.
package lease

import (
	"context"
	"time"
)

// Lease grants exclusive ownership of a key for a bounded duration. Acquire
// reports false when another holder currently owns the key.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
