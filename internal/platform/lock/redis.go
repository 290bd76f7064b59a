package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitchsider/match-context/internal/platform/id"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// extendScript refreshes the TTL only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// RedisManager implements Manager on a single Redis instance using
// SET NX PX with token-checked Lua release and extend.
type RedisManager struct {
	client redis.UniversalClient
	tokens id.Generator
	retry  RetryPolicy
	prefix string
}

func NewRedisManager(client redis.UniversalClient, retry RetryPolicy) *RedisManager {
	return &RedisManager{
		client: client,
		tokens: id.NewRandomGenerator(),
		retry:  retry.normalize(),
		prefix: "lock:",
	}
}

func (m *RedisManager) Acquire(ctx context.Context, resource string, ttl time.Duration) (Lease, error) {
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

	key := m.prefix + resource
	for attempt := 0; attempt < m.retry.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.retry.Backoff):
			}
		}

		ok, err := m.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %q: %w", resource, err)
		}
		if ok {
			return &redisLease{
				manager:  m,
				resource: resource,
				key:      key,
				token:    token,
			}, nil
		}
	}

	return nil, fmt.Errorf("acquire lock %q: %w", resource, ErrLockUnavailable)
}

func (m *RedisManager) ForceRelease(ctx context.Context, resource string) error {
	if err := m.client.Del(ctx, m.prefix+resource).Err(); err != nil {
		return fmt.Errorf("force release lock %q: %w", resource, err)
	}
	return nil
}

type redisLease struct {
	manager  *RedisManager
	resource string
	key      string
	token    string
}

func (l *redisLease) Resource() string { return l.resource }
func (l *redisLease) Token() string    { return l.token }

func (l *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.manager.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lock %q: %w", l.resource, err)
	}
	if n == 0 {
		return fmt.Errorf("release lock %q: %w", l.resource, ErrLeaseLost)
	}
	return nil
}

func (l *redisLease) Extend(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("lock ttl must be positive")
	}
	n, err := extendScript.Run(ctx, l.manager.client, []string{l.key}, l.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("extend lock %q: %w", l.resource, err)
	}
	if n == 0 {
		return fmt.Errorf("extend lock %q: %w", l.resource, ErrLeaseLost)
	}
	return nil
}
