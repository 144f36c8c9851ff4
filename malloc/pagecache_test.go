package malloc

import "testing"

func TestPageCacheAllocateExact(t *testing.T) {
	pc := newPageCache()
	addr := pc.AllocateSpan(2)
	if addr == 0 {
		t.Fatalf("expected a non-zero span address")
	}
	stats := pc.Stats()
	if stats["live_spans"].(int) != 1 {
		t.Errorf("expected 1 live span, got %v", stats["live_spans"])
	}
}

func TestPageCacheReuseAfterDeallocate(t *testing.T) {
	pc := newPageCache()
	addr := pc.AllocateSpan(4)
	pc.DeallocateSpan(addr, 4)

	again := pc.AllocateSpan(4)
	if again != addr {
		t.Errorf("expected freed span %v to be reused, got %v", addr, again)
	}
}

func TestPageCacheSplitsLargerSpan(t *testing.T) {
	pc := newPageCache()
	addr := pc.AllocateSpan(8)
	pc.DeallocateSpan(addr, 8)

	small := pc.AllocateSpan(3)
	if small != addr {
		t.Errorf("expected split to serve from the head of the free span")
	}
	// the remaining 5 pages should be free and reusable.
	rest := pc.AllocateSpan(5)
	if rest != addr+uintptr(3*PageSize) {
		t.Errorf("expected remainder at %v, got %v", addr+uintptr(3*PageSize), rest)
	}
}

func TestPageCacheCoalescesForward(t *testing.T) {
	pc := newPageCache()
	a := pc.AllocateSpan(8)
	pc.DeallocateSpan(a, 8)

	first := pc.AllocateSpan(3)
	second := pc.AllocateSpan(3)
	if first != a || second != a+uintptr(3*PageSize) {
		t.Fatalf("unexpected split layout: first=%v second=%v", first, second)
	}

	// Coalescing only looks forward from the span being freed, at the
	// moment it is freed. Freeing "second" first, then "first", means
	// "first" sees an already-free successor and merges with it.
	pc.DeallocateSpan(second, 3)
	pc.DeallocateSpan(first, 3)

	whole := pc.AllocateSpan(6)
	if whole != first {
		t.Errorf("expected forward coalescing to produce a span of at least 6 pages at %v, got %v", first, whole)
	}
}

func TestPageCacheNoBackwardCoalescing(t *testing.T) {
	pc := newPageCache()
	a := pc.AllocateSpan(8)
	pc.DeallocateSpan(a, 8)

	first := pc.AllocateSpan(3)
	second := pc.AllocateSpan(3)

	// Freeing "first" before "second" is free: at the instant "first"
	// is freed, its successor is still in use, so no merge happens. The
	// asymmetry means the two spans stay separate even after "second"
	// is later freed too.
	pc.DeallocateSpan(first, 3)
	pc.DeallocateSpan(second, 3)

	got := pc.AllocateSpan(3)
	if got != first {
		t.Errorf("expected the un-merged 3-page span at %v, got %v", first, got)
	}
}

func TestPageCacheDeallocateUnknownIgnored(t *testing.T) {
	pc := newPageCache()
	pc.DeallocateSpan(0xdeadbeef, 1) // must not panic
	if len(pc.addrIndex) != 0 {
		t.Errorf("expected no spans recorded")
	}
}
