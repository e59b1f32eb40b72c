package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "a", "1")
	c.Set(ctx, "a", "2")
	if v, ok := c.Get(ctx, "a"); !ok || v != "2" {
		t.Fatalf("Get(a) = %q, %v; want 2, true", v, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}

	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Get(ctx, "a") // a is now most recent
	c.Set(ctx, "c", 3)

	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatal("expected b to be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(ctx, k); !ok {
			t.Fatalf("expected %s to be kept", k)
		}
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	now = now.Add(30 * time.Second)
	c.Set(ctx, "c", 3)
	now = now.Add(45 * time.Second)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("expected a to be expired")
	}

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow() = %d, want 1 (b)", n)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
}

func TestNoopNeverHits(t *testing.T) {
	var c Cache[int] = Noop[int]{}
	c.Set(context.Background(), "a", 1)
	if _, ok := c.Get(context.Background(), "a"); ok {
		t.Fatal("noop cache must never hit")
	}
}
