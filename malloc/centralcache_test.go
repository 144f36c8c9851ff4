package malloc

import "testing"

func TestCentralCacheFetchRefills(t *testing.T) {
	cc := newCentralCache(newPageCache())
	class := classOf(64)

	head, n := cc.FetchToThreadCache(class)
	if head == 0 || n == 0 {
		t.Fatalf("expected a non-empty batch, got head=%v n=%v", head, n)
	}
	if n != batch(sizeOf(class)) {
		t.Errorf("expected batch size %v, got %v", batch(sizeOf(class)), n)
	}
	if chainLength(head) != n {
		t.Errorf("chain length %v does not match reported count %v", chainLength(head), n)
	}
}

func TestCentralCacheRoundTrip(t *testing.T) {
	cc := newCentralCache(newPageCache())
	class := classOf(128)

	head, n := cc.FetchToThreadCache(class)
	if n == 0 {
		t.Fatalf("expected a batch")
	}
	cc.ReceiveFromThreadCache(class, head, n)

	// returning the only outstanding batch leaves the span fully free,
	// and n >= MaxDelayCount fires a drain that hands it back to the
	// PageCache, emptying the shard's free list.
	shard := &cc.shards[class]
	if shard.freeCount != 0 {
		t.Errorf("expected shard free count %v, got %v", 0, shard.freeCount)
	}
}

func TestCentralCacheTrackerAccounting(t *testing.T) {
	cc := newCentralCache(newPageCache())
	class := classOf(32)

	head, n := cc.FetchToThreadCache(class)
	shard := &cc.shards[class]
	if len(shard.liveSlots) != 1 {
		t.Fatalf("expected exactly one span tracker, got %v", len(shard.liveSlots))
	}
	tracker := &cc.trackers[shard.liveSlots[0]]
	if tracker.fullyFree() {
		t.Errorf("span should not be fully free after a fetch")
	}

	cc.ReceiveFromThreadCache(class, head, n)
	if !tracker.fullyFree() {
		// true once every block taken from the span has been returned:
		// the blocks never fetched stayed on the central list, and
		// nothing else touched this class. (If the drain has already
		// released the span, its cleared tracker reads as fully free.)
		if tracker.freeInCentral != tracker.totalBlocks {
			t.Errorf("expected freeInCentral == totalBlocks, got %v/%v",
				tracker.freeInCentral, tracker.totalBlocks)
		}
	}
}

func TestCentralCacheDrainReturnsFullyFreeSpanToPageCache(t *testing.T) {
	pc := newPageCache()
	cc := newCentralCache(pc)
	class := classOf(64)
	shard := &cc.shards[class]

	var heads []uintptr
	var counts []int64
	for {
		head, n := cc.FetchToThreadCache(class)
		if n == 0 {
			t.Fatalf("expected fetch to succeed")
		}
		heads = append(heads, head)
		counts = append(counts, n)
		if len(shard.liveSlots) != 1 {
			t.Fatalf("expected exactly one span tracker, got %v", len(shard.liveSlots))
		}
		if cc.trackers[shard.liveSlots[0]].freeInCentral == 0 {
			break
		}
	}

	pageStatsBefore := pc.Stats()

	for i, head := range heads {
		if i == len(heads)-1 {
			// force the delay hysteresis to fire on exactly the call that
			// returns the span's last outstanding block.
			shard.delayCount = MaxDelayCount - 1
		}
		cc.ReceiveFromThreadCache(class, head, counts[i])
	}

	if len(shard.liveSlots) != 0 {
		t.Errorf("expected the fully-free span to be released, liveSlots=%v", shard.liveSlots)
	}
	pageStatsAfter := pc.Stats()
	if pageStatsAfter["free_spans"].(int) <= pageStatsBefore["free_spans"].(int) {
		t.Errorf("expected at least one span returned to PageCache")
	}
}

func TestCentralCacheMultipleClassesIndependent(t *testing.T) {
	cc := newCentralCache(newPageCache())
	c1, c2 := classOf(16), classOf(4096)

	h1, n1 := cc.FetchToThreadCache(c1)
	h2, n2 := cc.FetchToThreadCache(c2)
	if h1 == 0 || h2 == 0 {
		t.Fatalf("expected both classes to be served")
	}
	// a fetch hands out at most one batch, and no more blocks than one
	// freshly carved span holds (a 4-page span of 4096-byte blocks has
	// only 4 of them, fewer than its batch of 8).
	want := func(c int64) int64 {
		size := sizeOf(c)
		if perSpan := pages(size) * PageSize / size; perSpan < batch(size) {
			return perSpan
		}
		return batch(size)
	}
	if n1 != want(c1) || n2 != want(c2) {
		t.Errorf("expected each class served its own batch size, capped at one span's blocks")
	}
	// whatever a refill carves beyond the batch stays on that shard's
	// own free list, untouched by the other class's fetch.
	if cc.shards[c1].freeCount < 0 || cc.shards[c2].freeCount < 0 {
		t.Errorf("shard free counts must never go negative")
	}
}
