package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// withClock replaces the cache clock with a controllable one.
func withClock(c *Cache) *time.Time {
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	return &now
}

func TestRequest_CachesWithinTTL(t *testing.T) {
	c := New(30 * time.Second)
	now := withClock(c)

	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	for i := 0; i < 2; i++ {
		got, err := Request(context.Background(), c, "k", fn, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "v" {
			t.Fatalf("got %q, want v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("fn called %d times within TTL, want 1", calls)
	}

	// After the TTL elapses the next request invokes fn again.
	*now = now.Add(30 * time.Second)
	if _, err := Request(context.Background(), c, "k", fn, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("fn called %d times after expiry, want 2", calls)
	}
}

func TestRequest_BypassesCacheWhenDisabled(t *testing.T) {
	c := New(0)
	withClock(c)

	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	for i := 1; i <= 3; i++ {
		got, err := Request(context.Background(), c, "k", fn, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != i {
			t.Fatalf("got %d, want %d", got, i)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("cache stored %d entries with useCache=false", c.Len())
	}
}

func TestRequest_ErrorsAreNotCached(t *testing.T) {
	c := New(0)
	withClock(c)

	boom := errors.New("boom")
	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "ok", nil
	}

	if _, err := Request(context.Background(), c, "k", fn, true); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	got, err := Request(context.Background(), c, "k", fn, true)
	if err != nil || got != "ok" {
		t.Fatalf("got (%q, %v), want (ok, nil)", got, err)
	}
	if calls != 2 {
		t.Fatalf("fn called %d times, want 2", calls)
	}
}

func TestClear_IdempotentAndForcesRefetch(t *testing.T) {
	c := New(0)
	withClock(c)

	// Clearing a missing key must not panic.
	c.Clear("missing")

	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}
	if _, err := Request(context.Background(), c, "k", fn, true); err != nil {
		t.Fatal(err)
	}
	c.Clear("k")
	c.Clear("k") // second clear is a no-op
	if _, err := Request(context.Background(), c, "k", fn, true); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("fn called %d times, want 2 after Clear", calls)
	}
}

func TestClearAll_EmptiesCache(t *testing.T) {
	c := New(0)
	withClock(c)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%d", i)
		if _, err := Request(context.Background(), c, key, func(context.Context) (int, error) { return i, nil }, true); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}
	c.ClearAll()
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after ClearAll, want 0", c.Len())
	}
}

func TestSet_SweepsExpiredAtCap(t *testing.T) {
	c := New(30 * time.Second)
	now := withClock(c)

	// Fill to the cap with entries that will all be expired.
	for i := 0; i < maxEntries; i++ {
		c.set(fmt.Sprintf("old%d", i), i)
	}
	*now = now.Add(31 * time.Second)

	// The insert at the cap sweeps every expired entry.
	c.set("fresh", 1)
	if got := c.Len(); got != 1 {
		t.Fatalf("Len() = %d after sweep, want 1", got)
	}
	if _, ok := c.get("fresh"); !ok {
		t.Fatal("fresh entry missing after sweep")
	}
}

func TestSet_SweepKeepsLiveEntries(t *testing.T) {
	c := New(30 * time.Second)
	withClock(c)

	for i := 0; i < maxEntries; i++ {
		c.set(fmt.Sprintf("k%d", i), i)
	}
	// All entries are live, so the sweep removes nothing and the cap is a
	// soft bound.
	c.set("extra", 1)
	if got := c.Len(); got != maxEntries+1 {
		t.Fatalf("Len() = %d, want %d", got, maxEntries+1)
	}
}
