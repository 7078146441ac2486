package lease

import (
	"context"
	"sync"
	"time"
)

// MemoryLease is a process-local Lease for single-instance deployments and
// tests.
type MemoryLease struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemoryLease() *MemoryLease {
	return &MemoryLease{expires: make(map[string]time.Time)}
}

func (l *MemoryLease) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if until, held := l.expires[key]; held && now.Before(until) {
		return false, nil
	}

	l.expires[key] = now.Add(ttl)

	return true, nil
}

func (l *MemoryLease) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.expires, key)

	return nil
}
