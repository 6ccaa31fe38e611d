package worker

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values  map[string]string
	lastTTL time.Duration
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (s *fakeRedisStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.lastTTL = ttl
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "sp:lock:payout-worker", time.Hour)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}

	second, err := NewRedisLock(store, "sp:lock:payout-worker", time.Hour)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || ok {
		t.Fatalf("expected second acquire to be denied, got ok=%v err=%v", ok, err)
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestLockTTLOutlivesRunInterval(t *testing.T) {
	if got := LockTTL(6 * time.Hour); got != 7*time.Hour {
		t.Fatalf("expected interval plus margin, got %v", got)
	}
	if got := LockTTL(0); got != defaultLockTTL {
		t.Fatalf("expected default ttl for unset interval, got %v", got)
	}

	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "sp:lock:payout-worker", LockTTL(6*time.Hour))
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("acquire should succeed")
	}
	if store.lastTTL != 7*time.Hour {
		t.Fatalf("ttl not passed through to redis, got %v", store.lastTTL)
	}
}

func TestRedisLockReleaseOnlyOwn(t *testing.T) {
	store := newFakeRedisStore()
	ctx := context.Background()

	first, _ := NewRedisLock(store, "sp:lock:payout-worker", time.Hour)
	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("first acquire should succeed")
	}

	// simulate another instance stealing the key after expiry
	store.values["sp:lock:payout-worker"] = "other-owner"
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["sp:lock:payout-worker"] != "other-owner" {
		t.Fatal("release must not delete a lock owned by someone else")
	}
}
