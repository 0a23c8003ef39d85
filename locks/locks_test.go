package locks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestMemoryLockSerializesSameKey(t *testing.T) {
	m := NewMemory()

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), "a@example.com")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxInside.Load())
	}
	if m.Len() != 0 {
		t.Fatalf("expected entries to be reclaimed, have %d", m.Len())
	}
}

func TestMemoryLockIndependentKeys(t *testing.T) {
	m := NewMemory()
	unlockA, err := m.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock b must not wait on a: %v", err)
	}
	unlockB()
}

func TestMemoryLockHonorsContext(t *testing.T) {
	m := NewMemory()
	unlock, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock()
	if m.Len() != 0 {
		t.Fatalf("expected no tracked keys, have %d", m.Len())
	}
}

func TestRedisLockExcludesSecondHolder(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRedis(rdb, WithWait(5*time.Millisecond, 50*time.Millisecond))

	unlock, err := l.Lock(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if _, err := l.Lock(context.Background(), "a@example.com"); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}

	unlock()

	unlock2, err := l.Lock(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	unlock2()
}

func TestRedisLockWaitsForRelease(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRedis(rdb, WithWait(5*time.Millisecond, 2*time.Second))

	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	acquired := make(chan error, 1)
	go func() {
		u, err := l.Lock(context.Background(), "k")
		if err == nil {
			u()
		}
		acquired <- err
	}()

	time.Sleep(30 * time.Millisecond)
	unlock()

	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("waiter failed: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestRedisStaleReleaseKeepsNewHolder(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedis(rdb, WithLease(time.Second), WithWait(5*time.Millisecond, 50*time.Millisecond))

	staleUnlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	mr.FastForward(2 * time.Second)

	freshUnlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock after lease expiry: %v", err)
	}
	defer freshUnlock()

	staleUnlock()
	if !mr.Exists("goaccount:lock:k") {
		t.Fatal("stale holder must not delete the new holder's key")
	}
}
