package malloc

import "sync"
import "time"

import "github.com/prataprc/tcmalloc/internal/xlog"

import "github.com/prataprc/tcmalloc/api"
import "github.com/prataprc/tcmalloc/lib"

// centralShard is CentralCache's state for one size class. Its free
// list and delay bookkeeping are guarded by lock, a spinlock (the
// critical sections here are a handful of pointer writes, too short to
// be worth parking a goroutine for).
type centralShard struct {
	lock       lib.Spinlock
	head       uintptr
	freeCount  int64
	delayCount int64
	lastReturn time.Time
	liveSlots  []int64 // indices into CentralCache.trackers owned by this class
}

// CentralCache is the size-class-sharded pool shared by every
// ThreadCache. Span trackers live in one shared, stably indexed table
// so that a slot's index, once handed out, never moves underneath a
// concurrent reader; only the owning shard's lock protects mutation of
// a tracker's freeInCentral counter.
type CentralCache struct {
	shards [NumSizeClasses]centralShard

	trackerMu    sync.Mutex
	trackerAlloc *slotbits
	trackers     [TrackerCapacity]spanTracker

	source api.SpanSource
}

func newCentralCache(source api.SpanSource) *CentralCache {
	cc := &CentralCache{
		trackerAlloc: newslotbits(TrackerCapacity),
		source:       source,
	}
	now := time.Time{}
	for i := range cc.shards {
		cc.shards[i].lastReturn = now
	}
	return cc
}

var centralCacheOnce sync.Once
var centralCacheSingleton *CentralCache

// theCentralCache returns the process-wide CentralCache, creating it
// lazily with the process-wide PageCache as its span source.
func theCentralCache() *CentralCache {
	centralCacheOnce.Do(func() {
		centralCacheSingleton = newCentralCache(thePageCache())
	})
	return centralCacheSingleton
}

// FetchToThreadCache hands a ThreadCache a fresh batch for class,
// refilling this shard from the PageCache first if it is empty. The
// returned chain is detached from the shard's own free list, so the
// shard never double-serves a block.
func (cc *CentralCache) FetchToThreadCache(class int64) (head uintptr, count int64) {
	shard := &cc.shards[class]
	size := sizeOf(class)
	want := batch(size)

	shard.lock.Lock()
	defer shard.lock.Unlock()

	if shard.head == 0 {
		cc.refillLocked(class, shard, size)
	}
	if shard.head == 0 {
		return 0, 0
	}

	detachedHead := shard.head
	_, n, rest := detachChain(shard.head, want)
	shard.head = rest
	shard.freeCount -= n
	cc.accountTakenLocked(shard, detachedHead, n)
	return detachedHead, n
}

// accountTakenLocked debits each block handed to a ThreadCache from the
// tracker that owns its address, the inverse of accountReturnsLocked.
func (cc *CentralCache) accountTakenLocked(shard *centralShard, head uintptr, n int64) {
	for addr, i := head, int64(0); addr != 0 && i < n; addr, i = nextlink(addr), i+1 {
		if t := cc.lookupTrackerLocked(shard, addr); t != nil {
			t.freeInCentral--
		}
	}
}

// refillLocked obtains a new span from the PageCache, slices it into
// blocks of size, registers a tracker for it, and pushes the whole
// chain onto shard's free list. Caller holds shard.lock.
func (cc *CentralCache) refillLocked(class int64, shard *centralShard, size int64) {
	numPages := pages(size)
	addr := cc.source.AllocateSpan(numPages)
	if addr == 0 {
		xlog.Warnf("malloc: centralcache: class %d refill failed, out of memory", class)
		return
	}
	head, total := sliceSpan(addr, numPages, size)
	if total == 0 {
		cc.source.DeallocateSpan(addr, numPages)
		return
	}
	cc.registerSpan(class, shard, addr, numPages, total)
	shard.head = head
	shard.freeCount += total
}

// registerSpan allocates a stable tracker slot for a freshly sliced
// span and records it against this shard.
func (cc *CentralCache) registerSpan(class int64, shard *centralShard, addr uintptr, numPages, totalBlocks int64) {
	cc.trackerMu.Lock()
	idx, ok := cc.trackerAlloc.allocate()
	cc.trackerMu.Unlock()
	if !ok {
		xlog.Errorf("malloc: centralcache: tracker table exhausted, leaking span at %x", addr)
		return
	}
	cc.trackers[idx] = spanTracker{
		addr:          addr,
		numPages:      numPages,
		class:         class,
		totalBlocks:   totalBlocks,
		freeInCentral: totalBlocks,
	}
	shard.liveSlots = append(shard.liveSlots, idx)
}

// ReceiveFromThreadCache accepts a chain of n blocks of class back from
// a ThreadCache, prepends them to the shard's free list, and then looks
// for spans that have become entirely free so they can be offered back
// to the PageCache once the delay heuristics allow it.
func (cc *CentralCache) ReceiveFromThreadCache(class int64, head uintptr, n int64) {
	if head == 0 || n <= 0 {
		return
	}
	shard := &cc.shards[class]

	shard.lock.Lock()
	defer shard.lock.Unlock()

	tail := head
	for next := nextlink(tail); next != 0; next = nextlink(tail) {
		tail = next
	}
	setNextlink(tail, shard.head)
	shard.head = head
	shard.freeCount += n
	shard.delayCount += n

	cc.accountReturnsLocked(class, shard, head, n)
	cc.drainLocked(class, shard)
}

// accountReturnsLocked credits each returned block to the tracker that
// owns its address, so freeInCentral can reach totalBlocks once every
// block sliced from a span is back on the free list.
func (cc *CentralCache) accountReturnsLocked(class int64, shard *centralShard, head uintptr, n int64) {
	for addr, i := head, int64(0); addr != 0 && i < n; addr, i = nextlink(addr), i+1 {
		if t := cc.lookupTrackerLocked(shard, addr); t != nil {
			t.freeInCentral++
		}
	}
}

// lookupTrackerLocked finds the tracker owning addr among shard's live
// slots. Linear in the shard's span count, which is small relative to
// its block count.
func (cc *CentralCache) lookupTrackerLocked(shard *centralShard, addr uintptr) *spanTracker {
	for _, idx := range shard.liveSlots {
		t := &cc.trackers[idx]
		if t.contains(addr) {
			return t
		}
	}
	return nil
}

// drainLocked applies the MAX_DELAY_COUNT / MAX_DELAY_DURATION hysteresis:
// a fully-free span is not returned to the PageCache the instant it goes
// idle (that would thrash under bursty alloc/free patterns). Once this
// shard has received MaxDelayCount blocks, or MaxDelayDuration has
// passed, since the last drain, every span that is currently fully free
// is released in this one pass, and the hysteresis state resets whether
// or not any span actually qualified.
func (cc *CentralCache) drainLocked(class int64, shard *centralShard) {
	overCount := shard.delayCount >= MaxDelayCount
	overTime := !shard.lastReturn.IsZero() && time.Since(shard.lastReturn) >= MaxDelayDuration
	if !overCount && !overTime {
		return
	}
	shard.delayCount = 0
	shard.lastReturn = time.Now()

	for {
		released := false
		for i, idx := range shard.liveSlots {
			t := &cc.trackers[idx]
			if !t.fullyFree() {
				continue
			}
			cc.releaseSpanLocked(shard, i, t)
			released = true
			break
		}
		if !released {
			return
		}
	}
}

// releaseSpanLocked unlinks every block of t's span from the shard's
// free list, removes t from the live-slot table, and hands the span
// back to the PageCache.
func (cc *CentralCache) releaseSpanLocked(shard *centralShard, slotPos int, t *spanTracker) {
	var kept uintptr
	var prev uintptr
	for addr := shard.head; addr != 0; {
		next := nextlink(addr)
		if t.contains(addr) {
			shard.freeCount--
		} else {
			if prev == 0 {
				kept = addr
			} else {
				setNextlink(prev, addr)
			}
			prev = addr
		}
		addr = next
	}
	if prev != 0 {
		setNextlink(prev, 0)
	}
	shard.head = kept

	idx := shard.liveSlots[slotPos]
	shard.liveSlots[slotPos] = shard.liveSlots[len(shard.liveSlots)-1]
	shard.liveSlots = shard.liveSlots[:len(shard.liveSlots)-1]

	addr, numPages := t.addr, t.numPages
	*t = spanTracker{}

	cc.trackerMu.Lock()
	cc.trackerAlloc.free(idx)
	cc.trackerMu.Unlock()

	cc.source.DeallocateSpan(addr, numPages)
}

// Stats implements api.Statser, summing free-list occupancy across
// classes actually in use.
func (cc *CentralCache) Stats() map[string]interface{} {
	var liveSpans, freeBlocks int64
	for i := range cc.shards {
		shard := &cc.shards[i]
		shard.lock.Lock()
		liveSpans += int64(len(shard.liveSlots))
		freeBlocks += shard.freeCount
		shard.lock.Unlock()
	}
	cc.trackerMu.Lock()
	trackerFree := cc.trackerAlloc.free_count()
	cc.trackerMu.Unlock()
	return map[string]interface{}{
		"live_spans":       liveSpans,
		"free_blocks":      freeBlocks,
		"tracker_free":     trackerFree,
		"tracker_capacity": TrackerCapacity,
	}
}
