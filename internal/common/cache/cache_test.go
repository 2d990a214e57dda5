package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetWithCachedStoresNull(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	calls := 0
	load := func(context.Context) (*string, error) {
		calls++
		return nil, nil
	}
	for i := 0; i < 2; i++ {
		v, err := GetWithCached[*string](ctx, c, "country:7", time.Minute, time.Minute,
			func(s *string) bool { return s == nil },
			func(s *string) string { return *s },
			func(s string) (*string, error) { return &s, nil },
			load)
		if err != nil || v != nil {
			t.Fatalf("expected nil value, got %v (%v)", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}
}

func TestTextCacheGenerations(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	tc := NewTextCache(c, "test", time.Minute)
	var calls int32
	gen := func(context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		return "scoreboard " + string(rune('0'+n)), nil
	}

	text, hit, err := tc.Get(ctx, "scoreboard", gen)
	if err != nil || hit || text != "scoreboard 1" {
		t.Fatalf("expected fresh scoreboard 1, got %q hit=%v (%v)", text, hit, err)
	}
	text, hit, err = tc.Get(ctx, "scoreboard", gen)
	if err != nil || !hit || text != "scoreboard 1" {
		t.Fatalf("expected cached scoreboard 1, got %q hit=%v (%v)", text, hit, err)
	}
	if err := tc.Invalidate(ctx, "scoreboard", "scores-csv"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	text, hit, err = tc.Get(ctx, "scoreboard", gen)
	if err != nil || hit || text != "scoreboard 2" {
		t.Fatalf("expected regenerated scoreboard 2, got %q hit=%v (%v)", text, hit, err)
	}
}

func TestTextCacheEmptyAndError(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	tc := NewTextCache(c, "test", time.Minute)
	text, _, err := tc.Get(ctx, "empty", func(context.Context) (string, error) { return "", nil })
	if err != nil || text != "" {
		t.Fatalf("expected empty text, got %q (%v)", text, err)
	}
	text, hit, err := tc.Get(ctx, "empty", func(context.Context) (string, error) {
		return "", errors.New("should not run")
	})
	if err != nil || !hit || text != "" {
		t.Fatalf("expected cached empty text, got %q hit=%v (%v)", text, hit, err)
	}
	boom := errors.New("boom")
	if _, _, err := tc.Get(ctx, "broken", func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestLock(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	ok, err := c.TryLock(ctx, "lock:role", time.Second)
	if err != nil || !ok {
		t.Fatalf("expected lock acquired, got %v (%v)", ok, err)
	}
	ok, _ = c.TryLock(ctx, "lock:role", time.Second)
	if ok {
		t.Fatalf("expected second lock to fail")
	}
	mr.FastForward(2 * time.Second)
	ok, _ = c.TryLock(ctx, "lock:role", time.Second)
	if !ok {
		t.Fatalf("expected lock after expiry")
	}
	if err := c.Unlock(ctx, "lock:role"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
}

func TestJitterTTL(t *testing.T) {
	for i := 0; i < 20; i++ {
		got := JitterTTL(time.Minute)
		if got > time.Minute || got < 54*time.Second {
			t.Fatalf("expected jitter within a tenth, got %v", got)
		}
	}
	if JitterTTL(0) != 0 {
		t.Fatalf("expected zero ttl unchanged")
	}
}
