package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pitchsider/match-context/internal/platform/id"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryManager implements Manager in-process. It mirrors the Redis manager's
// semantics, including TTL expiry and token-checked release, so single-node
// deployments behave the same way.
type MemoryManager struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	tokens  id.Generator
	retry   RetryPolicy
	now     func() time.Time
}

func NewMemoryManager(retry RetryPolicy) *MemoryManager {
	return &MemoryManager{
		entries: make(map[string]memoryEntry),
		tokens:  id.NewRandomGenerator(),
		retry:   retry.normalize(),
		now:     time.Now,
	}
}

func (m *MemoryManager) Acquire(ctx context.Context, resource string, ttl time.Duration) (Lease, error) {
	if resource == "" {
		return nil, fmt.Errorf("lock resource is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}

	token, err := m.tokens.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	for attempt := 0; attempt < m.retry.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.retry.Backoff):
			}
		}

		if m.tryAcquire(resource, token, ttl) {
			return &memoryLease{
				manager:  m,
				resource: resource,
				token:    token,
			}, nil
		}
	}

	return nil, fmt.Errorf("acquire lock %q: %w", resource, ErrLockUnavailable)
}

func (m *MemoryManager) ForceRelease(_ context.Context, resource string) error {
	m.mu.Lock()
	delete(m.entries, resource)
	m.mu.Unlock()
	return nil
}

func (m *MemoryManager) tryAcquire(resource, token string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[resource]; ok && e.expiresAt.After(now) {
		return false
	}

	m.entries[resource] = memoryEntry{
		token:     token,
		expiresAt: now.Add(ttl),
	}
	return true
}

func (m *MemoryManager) release(resource, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[resource]
	if !ok || e.token != token || !e.expiresAt.After(m.now()) {
		return fmt.Errorf("release lock %q: %w", resource, ErrLeaseLost)
	}

	delete(m.entries, resource)
	return nil
}

func (m *MemoryManager) extend(resource, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[resource]
	if !ok || e.token != token || !e.expiresAt.After(m.now()) {
		return fmt.Errorf("extend lock %q: %w", resource, ErrLeaseLost)
	}

	e.expiresAt = m.now().Add(ttl)
	m.entries[resource] = e
	return nil
}

type memoryLease struct {
	manager  *MemoryManager
	resource string
	token    string
}

func (l *memoryLease) Resource() string { return l.resource }
func (l *memoryLease) Token() string    { return l.token }

func (l *memoryLease) Release(_ context.Context) error {
	return l.manager.release(l.resource, l.token)
}

func (l *memoryLease) Extend(_ context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("lock ttl must be positive")
	}
	return l.manager.extend(l.resource, l.token, ttl)
}
