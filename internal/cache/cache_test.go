package cache

import (
	"fmt"
	"testing"
	"time"
)

// fixedClock lets tests advance time explicitly.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(max int) (*Store, *fixedClock) {
	s := New(max)
	clk := &fixedClock{t: time.Date(2026, time.August, 19, 10, 0, 0, 0, time.UTC)}
	s.now = clk.now
	return s, clk
}

func TestSetGetRoundtrip(t *testing.T) {
	s, _ := newTestStore(8)
	s.Set("k", "payload", time.Minute)
	v, age, ok := s.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if v.(string) != "payload" {
		t.Fatalf("value = %v", v)
	}
	if age != 0 {
		t.Fatalf("age = %v, want 0", age)
	}
}

func TestGetMiss(t *testing.T) {
	s, _ := newTestStore(8)
	if _, _, ok := s.Get("absent"); ok {
		t.Fatal("expected miss")
	}
}

func TestExpiryIsLazy(t *testing.T) {
	s, clk := newTestStore(8)
	s.Set("k", 1, time.Minute)

	clk.advance(59 * time.Second)
	if _, age, ok := s.Get("k"); !ok || age != 59*time.Second {
		t.Fatalf("expected hit at 59s, ok=%v age=%v", ok, age)
	}

	clk.advance(1 * time.Second)
	if _, _, ok := s.Get("k"); ok {
		t.Fatal("entry should expire at exactly ttl")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry not removed, len = %d", s.Len())
	}
}

func TestEvictionBoundAndOrder(t *testing.T) {
	s, _ := newTestStore(3)
	for i := 1; i <= 4; i++ {
		s.Set(fmt.Sprintf("k%d", i), i, time.Minute)
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	if _, _, ok := s.Get("k1"); ok {
		t.Fatal("oldest-inserted k1 should be evicted")
	}
	for _, k := range []string{"k2", "k3", "k4"} {
		if _, _, ok := s.Get(k); !ok {
			t.Fatalf("%s should survive", k)
		}
	}
}

func TestOverwriteKeepsInsertionPosition(t *testing.T) {
	s, _ := newTestStore(3)
	s.Set("k1", 1, time.Minute)
	s.Set("k2", 2, time.Minute)
	s.Set("k3", 3, time.Minute)

	// Refreshing k1 must not move it to the back of the eviction queue.
	s.Set("k1", 10, time.Minute)
	s.Set("k4", 4, time.Minute)

	if _, _, ok := s.Get("k1"); ok {
		t.Fatal("k1 should still be the eviction candidate (FIFO, not LRU)")
	}
	if v, _, ok := s.Get("k4"); !ok || v.(int) != 4 {
		t.Fatal("k4 should be present")
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
}

func TestOverwriteRefreshesTimestamp(t *testing.T) {
	s, clk := newTestStore(8)
	s.Set("k", 1, time.Minute)
	clk.advance(50 * time.Second)
	s.Set("k", 2, time.Minute)
	clk.advance(30 * time.Second)

	v, age, ok := s.Get("k")
	if !ok {
		t.Fatal("refreshed entry should still be live at 30s")
	}
	if v.(int) != 2 {
		t.Fatalf("value = %v, want 2", v)
	}
	if age != 30*time.Second {
		t.Fatalf("age = %v, want 30s", age)
	}
}

func TestExpiredEntryFreesSlot(t *testing.T) {
	s, clk := newTestStore(2)
	s.Set("k1", 1, time.Second)
	s.Set("k2", 2, time.Minute)
	clk.advance(2 * time.Second)

	// Observing the expired k1 removes it, so k3 fits without evicting k2.
	if _, _, ok := s.Get("k1"); ok {
		t.Fatal("k1 should be expired")
	}
	s.Set("k3", 3, time.Minute)
	if _, _, ok := s.Get("k2"); !ok {
		t.Fatal("k2 should survive")
	}
	if _, _, ok := s.Get("k3"); !ok {
		t.Fatal("k3 should be present")
	}
}

func TestCapacityDefault(t *testing.T) {
	s := New(0)
	if s.Capacity() != DefaultMaxEntries {
		t.Fatalf("capacity = %d, want %d", s.Capacity(), DefaultMaxEntries)
	}
}
