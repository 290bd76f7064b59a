package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisManager(t *testing.T) (*RedisManager, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisManager(client, RetryPolicy{Attempts: 1, Backoff: time.Millisecond}), srv
}

func managers(t *testing.T) map[string]Manager {
	t.Helper()

	redisMgr, _ := newRedisManager(t)
	return map[string]Manager{
		"redis":  redisMgr,
		"memory": NewMemoryManager(RetryPolicy{Attempts: 1, Backoff: time.Millisecond}),
	}
}

func TestManager_MutualExclusion(t *testing.T) {
	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			lease, err := mgr.Acquire(ctx, "fixture:215662", time.Minute)
			if err != nil {
				t.Fatalf("first acquire failed: %v", err)
			}
			if lease.Token() == "" {
				t.Fatal("expected non-empty fencing token")
			}

			if _, err := mgr.Acquire(ctx, "fixture:215662", time.Minute); !errors.Is(err, ErrLockUnavailable) {
				t.Fatalf("expected ErrLockUnavailable, got %v", err)
			}

			// A different resource is independent.
			other, err := mgr.Acquire(ctx, "fixture:999999", time.Minute)
			if err != nil {
				t.Fatalf("acquire on independent resource failed: %v", err)
			}
			_ = other.Release(ctx)

			if err := lease.Release(ctx); err != nil {
				t.Fatalf("release failed: %v", err)
			}

			relock, err := mgr.Acquire(ctx, "fixture:215662", time.Minute)
			if err != nil {
				t.Fatalf("acquire after release failed: %v", err)
			}
			_ = relock.Release(ctx)
		})
	}
}

func TestManager_ReleaseAfterExpiryIsLeaseLost(t *testing.T) {
	t.Run("redis", func(t *testing.T) {
		mgr, srv := newRedisManager(t)
		ctx := context.Background()

		lease, err := mgr.Acquire(ctx, "fixture:1", 50*time.Millisecond)
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}

		srv.FastForward(time.Second)

		// The resource is free again and a second holder takes it.
		second, err := mgr.Acquire(ctx, "fixture:1", time.Minute)
		if err != nil {
			t.Fatalf("acquire after expiry failed: %v", err)
		}

		if err := lease.Release(ctx); !errors.Is(err, ErrLeaseLost) {
			t.Fatalf("stale release: expected ErrLeaseLost, got %v", err)
		}
		if err := lease.Extend(ctx, time.Minute); !errors.Is(err, ErrLeaseLost) {
			t.Fatalf("stale extend: expected ErrLeaseLost, got %v", err)
		}

		if err := second.Release(ctx); err != nil {
			t.Fatalf("second holder release failed: %v", err)
		}
	})

	t.Run("memory", func(t *testing.T) {
		mgr := NewMemoryManager(RetryPolicy{Attempts: 1, Backoff: time.Millisecond})
		now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
		mgr.now = func() time.Time { return now }
		ctx := context.Background()

		lease, err := mgr.Acquire(ctx, "fixture:1", 50*time.Millisecond)
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}

		now = now.Add(time.Second)

		second, err := mgr.Acquire(ctx, "fixture:1", time.Minute)
		if err != nil {
			t.Fatalf("acquire after expiry failed: %v", err)
		}

		if err := lease.Release(ctx); !errors.Is(err, ErrLeaseLost) {
			t.Fatalf("stale release: expected ErrLeaseLost, got %v", err)
		}

		if err := second.Release(ctx); err != nil {
			t.Fatalf("second holder release failed: %v", err)
		}
	})
}

func TestManager_AcquireRetriesContendedLock(t *testing.T) {
	mgr := NewMemoryManager(RetryPolicy{Attempts: 3, Backoff: 10 * time.Millisecond})
	ctx := context.Background()

	lease, err := mgr.Acquire(ctx, "fixture:7", time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	released := make(chan struct{})
	go func() {
		time.Sleep(15 * time.Millisecond)
		_ = lease.Release(ctx)
		close(released)
	}()

	second, err := mgr.Acquire(ctx, "fixture:7", time.Minute)
	if err != nil {
		t.Fatalf("expected retry to win the lock, got %v", err)
	}
	<-released
	_ = second.Release(ctx)
}

func TestManager_ExtendKeepsLease(t *testing.T) {
	mgr, srv := newRedisManager(t)
	ctx := context.Background()

	lease, err := mgr.Acquire(ctx, "fixture:3", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := lease.Extend(ctx, time.Minute); err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	srv.FastForward(200 * time.Millisecond)

	// Extended lease must still hold past the original TTL.
	if _, err := mgr.Acquire(ctx, "fixture:3", time.Minute); !errors.Is(err, ErrLockUnavailable) {
		t.Fatalf("expected lock still held, got %v", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
}

func TestManager_ForceRelease(t *testing.T) {
	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := mgr.Acquire(ctx, "fixture:5", time.Minute); err != nil {
				t.Fatalf("acquire failed: %v", err)
			}

			if err := mgr.ForceRelease(ctx, "fixture:5"); err != nil {
				t.Fatalf("force release failed: %v", err)
			}

			lease, err := mgr.Acquire(ctx, "fixture:5", time.Minute)
			if err != nil {
				t.Fatalf("acquire after force release failed: %v", err)
			}
			_ = lease.Release(ctx)
		})
	}
}
