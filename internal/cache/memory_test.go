package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	type payload struct {
		Hours []int `json:"hours"`
	}

	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	key := DayKey("prov-1", day)

	if err := c.Set(ctx, key, payload{Hours: []int{8, 9}}, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	ok, err := c.Get(ctx, key, &got)
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v), want hit", ok, err)
	}
	if len(got.Hours) != 2 || got.Hours[0] != 8 {
		t.Fatalf("unexpected payload %+v", got)
	}

	if err := c.Invalidate(ctx, key); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if ok, _ := c.Get(ctx, key, &got); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestMemoryInvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	d1 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	_ = c.Set(ctx, DayKey("prov-1", d1), 1, 0)
	_ = c.Set(ctx, DayKey("prov-1", d2), 2, 0)
	_ = c.Set(ctx, DayKey("prov-2", d1), 3, 0)

	if err := c.InvalidatePrefix(ctx, ProviderPrefix("prov-1")); err != nil {
		t.Fatalf("InvalidatePrefix failed: %v", err)
	}

	var n int
	if ok, _ := c.Get(ctx, DayKey("prov-1", d1), &n); ok {
		t.Fatal("prov-1 day 1 should be gone")
	}
	if ok, _ := c.Get(ctx, DayKey("prov-1", d2), &n); ok {
		t.Fatal("prov-1 day 2 should be gone")
	}
	if ok, _ := c.Get(ctx, DayKey("prov-2", d1), &n); !ok {
		t.Fatal("prov-2 entry should survive")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_ = c.Set(ctx, "k", "v", time.Nanosecond)
	time.Sleep(2 * time.Millisecond)

	var s string
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatal("expected expired entry to miss")
	}
}
