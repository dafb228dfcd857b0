package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCache_CapacityEviction(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, time.Minute, WithEvictHook(func(key string, _ int) {
		evicted = append(evicted, key)
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatal("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
}

func TestLRUCache_SlidingExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, 10*time.Minute, WithClock[string](clk.Now))

	c.Set("s", "v")
	clk.Advance(8 * time.Minute)
	v, ok := c.Get("s")
	if !ok || v != "v" {
		t.Fatalf("expected hit before ttl")
	}
	c.Set("s", v) // refresh
	clk.Advance(8 * time.Minute)
	if _, ok := c.Get("s"); !ok {
		t.Fatal("refresh should extend ttl")
	}
	clk.Advance(11 * time.Minute)
	if _, ok := c.Get("s"); ok {
		t.Fatal("expected expiry")
	}
}

func TestLRUCache_CleanExpiredAndDeleteFunc(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Minute, WithClock[int](clk.Now))

	c.Set("old", 1)
	clk.Advance(2 * time.Minute)
	c.Set("new", 2)
	c.Set("odd", 3)

	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if n := c.DeleteFunc(func(_ string, v int) bool { return v%2 == 1 }); n != 1 {
		t.Fatalf("DeleteFunc = %d, want 1", n)
	}
	if _, ok := c.Get("new"); !ok || c.Size() != 1 {
		t.Fatalf("expected only 'new' to remain, size=%d", c.Size())
	}

	c.Delete("new")
	if c.Size() != 0 {
		t.Fatalf("size after delete = %d", c.Size())
	}
}
