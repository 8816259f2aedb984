package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, ok, _ := m.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryCacheIncr(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for want := int64(1); want <= 3; want++ {
		got, err := m.Incr(ctx, "counter")
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	if err := m.Set(ctx, "text", []byte("abc"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := m.Incr(ctx, "text"); err == nil {
		t.Fatalf("expected error incrementing non numeric value")
	}
}

func TestTaggedInvalidateHidesOldEntries(t *testing.T) {
	ctx := context.Background()
	tagged := NewTagged(NewMemory(), "content:")

	slot, err := tagged.Slot(ctx, "caseStudy:acme:en", "caseStudy", "caseStudy:acme")
	if err != nil {
		t.Fatalf("slot: %v", err)
	}
	if err := slot.Set(ctx, []byte("cached"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	again, _ := tagged.Slot(ctx, "caseStudy:acme:en", "caseStudy", "caseStudy:acme")
	if got, ok, _ := again.Get(ctx); !ok || string(got) != "cached" {
		t.Fatalf("expected cache hit before invalidation")
	}

	if err := tagged.Invalidate(ctx, "caseStudy:acme"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	after, _ := tagged.Slot(ctx, "caseStudy:acme:en", "caseStudy", "caseStudy:acme")
	if after.Key() == slot.Key() {
		t.Fatalf("expected a new versioned key after invalidation")
	}
	if _, ok, _ := after.Get(ctx); ok {
		t.Fatalf("expected miss after invalidation")
	}
}

func TestTaggedUnrelatedTagUnaffected(t *testing.T) {
	ctx := context.Background()
	tagged := NewTagged(NewMemory(), "content:")

	slot, _ := tagged.Slot(ctx, "insights:en", "insight")
	_ = slot.Set(ctx, []byte("list"), time.Hour)

	if err := tagged.Invalidate(ctx, "caseStudy"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	again, _ := tagged.Slot(ctx, "insights:en", "insight")
	if _, ok, _ := again.Get(ctx); !ok {
		t.Fatalf("expected insight entry to survive a caseStudy invalidation")
	}
}

func TestSlotZeroTTLSkipsWrite(t *testing.T) {
	ctx := context.Background()
	tagged := NewTagged(NewMemory(), "")
	slot, _ := tagged.Slot(ctx, "k", "t")
	if err := slot.Set(ctx, []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := slot.Get(ctx); ok {
		t.Fatalf("expected zero ttl to disable caching")
	}
}

func TestMemoryCacheSweepsKeysOrphanedByInvalidate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	tagged := NewTagged(m, "content:")

	for i := 0; i < 100; i++ {
		slot, err := tagged.Slot(ctx, "caseStudies:en", "caseStudy")
		if err != nil {
			t.Fatalf("slot: %v", err)
		}
		if err := slot.Set(ctx, []byte("[]"), time.Hour); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := tagged.Invalidate(ctx, "caseStudy"); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
	}
	// 100 versioned keys plus the tag counter.
	if got := m.Len(); got != 101 {
		t.Fatalf("expected 101 entries, got %d", got)
	}

	now = now.Add(2 * time.Hour)
	slot, err := tagged.Slot(ctx, "caseStudies:en", "caseStudy")
	if err != nil {
		t.Fatalf("slot: %v", err)
	}
	if err := slot.Set(ctx, []byte("[]"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := m.Len(); got != 2 {
		t.Fatalf("expected expired keys swept on write, %d entries left", got)
	}
}

func TestMemoryCacheSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "short", []byte("a"), time.Minute)
	_ = m.Set(ctx, "long", []byte("b"), time.Hour)
	_ = m.Set(ctx, "forever", []byte("c"), 0)

	now = now.Add(10 * time.Minute)
	if removed := m.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok, _ := m.Get(ctx, "long"); !ok {
		t.Fatalf("expected unexpired entry kept")
	}
	if _, ok, _ := m.Get(ctx, "forever"); !ok {
		t.Fatalf("expected entry without ttl kept")
	}
}
